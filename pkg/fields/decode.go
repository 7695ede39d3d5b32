package fields

import (
	"bytes"
	"encoding/json"
)

// Decoders report ok=false for absent or malformed values; callers then fall
// back to the kind default.

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeText(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return "", false
	}
	return text, true
}

// decodeFile accepts a file object with a positive id or a bare numeric id,
// the latter being what Flatten emits.
func decodeFile(raw json.RawMessage) (*File, bool) {
	if isNull(raw) {
		return nil, true
	}
	file, ok := decodeFileRef(raw)
	if !ok {
		return nil, false
	}
	return &file, true
}

func decodeFileRef(raw json.RawMessage) (File, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return File{}, false
	}
	if trimmed[0] == '{' {
		var file File
		if err := json.Unmarshal(trimmed, &file); err != nil || file.ID <= 0 {
			return File{}, false
		}
		return file, true
	}
	var id int64
	if err := json.Unmarshal(trimmed, &id); err != nil || id <= 0 {
		return File{}, false
	}
	return File{ID: id}, true
}

// decodeGallery requires a JSON array; entries that are not file references
// are skipped.
func decodeGallery(raw json.RawMessage) ([]File, bool) {
	items, ok := decodeArray(raw)
	if !ok {
		return nil, false
	}
	files := make([]File, 0, len(items))
	for _, item := range items {
		if file, ok := decodeFileRef(item); ok {
			files = append(files, file)
		}
	}
	return files, true
}

// decodeGroups reads a repeater value: an outer list with one inner list of
// IncomingField per repetition. A malformed inner list still yields a
// repetition (with every sub-field at its default) so the repetition count
// always equals the outer list length.
func decodeGroups(raw json.RawMessage) ([][]IncomingField, bool) {
	items, ok := decodeArray(raw)
	if !ok {
		return nil, false
	}
	groups := make([][]IncomingField, 0, len(items))
	for _, item := range items {
		group, _ := decodeIncomingList(item)
		groups = append(groups, group)
	}
	return groups, true
}

// decodeIncomingList decodes a list of IncomingField, skipping entries that
// are not objects with a string name.
func decodeIncomingList(raw json.RawMessage) ([]IncomingField, bool) {
	items, ok := decodeArray(raw)
	if !ok {
		return nil, false
	}
	list := make([]IncomingField, 0, len(items))
	for _, item := range items {
		var field IncomingField
		if err := json.Unmarshal(item, &field); err != nil {
			continue
		}
		list = append(list, field)
	}
	return list, true
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if isNull(raw) {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}
