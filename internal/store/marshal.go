package store

import (
	"fmt"

	"github.com/roach88/assetvariant/internal/ir"
)

// marshalMessages serializes import messages as a JSON array.
func marshalMessages(msgs []string) (string, error) {
	arr := make(ir.Array, len(msgs))
	for i, m := range msgs {
		arr[i] = ir.String(m)
	}
	data, err := ir.Marshal(arr)
	if err != nil {
		return "", fmt.Errorf("marshal messages: %w", err)
	}
	return string(data), nil
}

func unmarshalMessages(text string) ([]string, error) {
	v, err := ir.Unmarshal([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("unmarshal messages: expected array, got %T", v)
	}
	msgs := make([]string, 0, len(arr))
	for _, item := range arr {
		s, ok := item.(ir.String)
		if !ok {
			return nil, fmt.Errorf("unmarshal messages: expected string, got %T", item)
		}
		msgs = append(msgs, string(s))
	}
	return msgs, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
