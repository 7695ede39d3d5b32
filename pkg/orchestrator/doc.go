// Package orchestrator wires the page form pipeline: fetch page and template,
// merge saved values into an editable field tree, and flatten the tree into
// the save payload. It also carries the list actions (delete, move, clone)
// with their confirm and notify steps.
package orchestrator
