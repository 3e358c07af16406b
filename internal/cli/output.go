package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const (
	outputJSON = "json"
	outputYAML = "yaml"
)

// writeOutput renders v with its JSON field names in either format
func writeOutput(w io.Writer, format string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if format == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(json.RawMessage(raw))
	}

	// JSON is valid YAML; re-encoding the node tree keeps the key order
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("convert output: %w", err)
	}
	plainStyle(&doc)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}

// plainStyle drops the flow and quoting styles inherited from JSON. Strings
// that would read back as another type stay quoted.
func plainStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		plainStyle(child)
	}
}

// decodeDocument reads a JSON or YAML document into dst through its JSON tags
func decodeDocument(raw []byte, dst any) error {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse document: %w", err)
	}
	return json.Unmarshal(normalized, dst)
}
