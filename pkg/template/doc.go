// Package template describes page templates: the ordered field definitions a
// page of a given template carries. It parses template documents (JSON or
// YAML), loads them into a Catalog and validates them against an embedded
// JSON Schema plus a few structural rules the schema cannot express.
package template
