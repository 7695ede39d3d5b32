package fields

import (
	"encoding/json"
	"fmt"
)

// ToIncoming re-reads a flattened payload as incoming wire fields, exactly as
// the server would echo it back.
func ToIncoming(out []OutgoingField) ([]IncomingField, error) {
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("fields: encode outgoing: %w", err)
	}
	var incoming []IncomingField
	if err := json.Unmarshal(data, &incoming); err != nil {
		return nil, fmt.Errorf("fields: decode incoming: %w", err)
	}
	return incoming, nil
}

// ParseIncoming decodes a JSON list of incoming fields. Malformed entries are
// skipped; a payload that is not a list yields an error.
func ParseIncoming(data []byte) ([]IncomingField, error) {
	list, ok := decodeIncomingList(data)
	if !ok {
		return nil, fmt.Errorf("fields: incoming payload is not a list")
	}
	return list, nil
}
