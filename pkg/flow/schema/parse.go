package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse deserializes a UTF-8 YAML byte buffer into a Flow. Unknown fields
// are accepted and ignored for forward compatibility; this is the default
// behavior of yaml.Unmarshal and is not enforced specially.
//
// Parse performs no semantic validation; call Validate on the result
// before acting on it.
func Parse(data []byte) (*Flow, error) {
	var flow Flow
	if err := yaml.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("parsing flow document: %w", err)
	}
	return &flow, nil
}

// Marshal serializes a Flow back to YAML. Round-tripping Parse then
// Marshal then Parse yields a semantically identical Flow (field order
// may differ).
func Marshal(flow *Flow) ([]byte, error) {
	return yaml.Marshal(flow)
}
