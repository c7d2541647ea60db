package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileBatch is the {"items": [...]} envelope the generate endpoint returns.
type fileBatch struct {
	Items []Script `yaml:"items"`
}

// Read loads scripts from a YAML or JSON file. The file may hold a single script,
// a list of scripts, or an {"items": [...]} envelope.
func Read(path string) ([]Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) ([]Script, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("empty script document")
	}
	doc := root.Content[0]

	switch doc.Kind {
	case yaml.SequenceNode:
		var list []Script
		if err := doc.Decode(&list); err != nil {
			return nil, err
		}
		return list, nil
	case yaml.MappingNode:
		if hasKey(doc, "items") {
			var batch fileBatch
			if err := doc.Decode(&batch); err != nil {
				return nil, err
			}
			return batch.Items, nil
		}
		var s Script
		if err := doc.Decode(&s); err != nil {
			return nil, err
		}
		return []Script{s}, nil
	default:
		return nil, fmt.Errorf("unexpected script document kind %d", doc.Kind)
	}
}

// Write stores scripts as a YAML list.
func Write(path string, scripts []Script) error {
	data, err := yaml.Marshal(scripts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func hasKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}
