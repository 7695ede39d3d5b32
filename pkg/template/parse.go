package template

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a template document. JSON is tried first, then YAML. source
// only labels errors.
func Parse(data []byte, source string) (Full, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Full{}, fmt.Errorf("template: file %s is empty", source)
	}

	var tpl Full
	if err := json.Unmarshal(data, &tpl); err != nil {
		tpl = Full{}
		if yerr := yaml.Unmarshal(data, &tpl); yerr != nil {
			return Full{}, fmt.Errorf("template: parse %s: invalid JSON or YAML", source)
		}
	}

	tpl.ID = strings.TrimSpace(tpl.ID)
	if tpl.ID == "" {
		return Full{}, fmt.Errorf("template: file %s defines an empty template id", source)
	}
	tpl.Source = source
	return tpl, nil
}

// decodeDocument reads a template document as generic JSON data for schema
// validation. YAML input is re-encoded as JSON so numbers and maps take the
// shapes the schema validator expects.
func decodeDocument(data []byte) (any, error) {
	if doc, err := unmarshalJSON(data); err == nil {
		return doc, nil
	}
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("template: invalid JSON or YAML: %w", err)
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("template: re-encode YAML: %w", err)
	}
	return unmarshalJSON(encoded)
}
