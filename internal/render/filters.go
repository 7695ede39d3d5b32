package render

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/flosch/pongo2/v6"

	"github.com/ozitag/tager-admin-pages/pkg/page"
)

// maxValueWidth bounds field values printed by the fieldvalue filter.
const maxValueWidth = 60

var registerOnce sync.Once

func registerFilters() {
	registerOnce.Do(func() {
		filters := map[string]pongo2.FilterFunction{
			"fieldvalue": filterFieldValue,
			"fieldtree":  filterFieldTree,
			"withdepth":  filterWithDepth,
		}
		for name, fn := range filters {
			if !pongo2.FilterExists(name) {
				_ = pongo2.RegisterFilter(name, fn)
			}
		}
	})
}

// filterFieldValue prints strings as is and anything else as compact JSON,
// truncated to maxValueWidth runes.
func filterFieldValue(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(truncate(displayValue(in.Interface()), maxValueWidth)), nil
}

func displayValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case string:
		return strings.Join(strings.Fields(v), " ")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-1]) + "…"
}

// filterWithDepth prefixes a title with dashes for its tree depth.
func filterWithDepth(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	depth := 0
	if param != nil {
		depth = param.Integer()
	}
	return pongo2.AsValue(page.NameWithDepth(in.String(), depth)), nil
}

// filterFieldTree prints decoded field definitions one per line, nested
// repeater fields indented below their parent.
func filterFieldTree(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var b strings.Builder
	writeFieldTree(&b, in.Interface(), 1)
	return pongo2.AsValue(b.String()), nil
}

func writeFieldTree(b *strings.Builder, value any, depth int) {
	list, _ := value.([]any)
	for _, item := range list {
		def, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := def["name"].(string)
		kind, _ := def["type"].(string)
		label, _ := def["label"].(string)
		fmt.Fprintf(b, "%s- %s (%s)", strings.Repeat("  ", depth-1), name, kind)
		if label != "" && label != name {
			fmt.Fprintf(b, " %q", label)
		}
		b.WriteString("\n")
		writeFieldTree(b, def["fields"], depth+1)
	}
}
