package store

import (
	"encoding/json"
	"fmt"

	"codeclash/internal/protocol"
)

func marshalSettings(s protocol.Settings) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal settings: %w", err)
	}
	return string(data), nil
}
