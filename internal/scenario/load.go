package scenario

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type scenarioFile struct {
	Scenarios []SecurityScenario `json:"scenarios" yaml:"scenarios"`
}

// Load reads scenarios from a YAML or JSON file. The file may hold a single
// scenario, a list, or a document with a top-level "scenarios" list.
func Load(path string) ([]SecurityScenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenarios []SecurityScenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		scenarios, err = parseJSON(data)
	default:
		scenarios, err = parseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if len(scenarios) == 0 {
		return nil, fmt.Errorf("parse %s: no scenarios found", path)
	}

	seen := make(map[string]bool)
	for i := range scenarios {
		scenarios[i].normalize()
		if err := scenarios[i].Validate(); err != nil {
			return nil, err
		}
		if seen[scenarios[i].ID] {
			return nil, fmt.Errorf("duplicate scenario id %s", scenarios[i].ID)
		}
		seen[scenarios[i].ID] = true
	}
	return scenarios, nil
}

func parseJSON(data []byte) ([]SecurityScenario, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("[")) {
		var list []SecurityScenario
		err := json.Unmarshal(trimmed, &list)
		return list, err
	}

	var file scenarioFile
	if err := json.Unmarshal(trimmed, &file); err != nil {
		return nil, err
	}
	if len(file.Scenarios) > 0 {
		return file.Scenarios, nil
	}

	var single SecurityScenario
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []SecurityScenario{single}, nil
}

func parseYAML(data []byte) ([]SecurityScenario, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []SecurityScenario
		err := root.Decode(&list)
		return list, err
	}

	var file scenarioFile
	if err := root.Decode(&file); err != nil {
		return nil, err
	}
	if len(file.Scenarios) > 0 {
		return file.Scenarios, nil
	}

	var single SecurityScenario
	if err := root.Decode(&single); err != nil {
		return nil, err
	}
	return []SecurityScenario{single}, nil
}
