package ops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/godupes/internal/model"
)

// Import reads a report written by Export. JSON and YAML are both accepted
// regardless of the file extension.
func Import(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open import file: %w", err)
	}

	var report Report
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &report); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	if report.Tool != ToolName {
		return nil, fmt.Errorf("not a %s report (tool %q)", ToolName, report.Tool)
	}
	if report.Groups == nil {
		report.Groups = []model.Group{}
	}
	for i, g := range report.Groups {
		if len(g.Paths) < 2 {
			return nil, fmt.Errorf("group %d has %d paths, expected at least 2", i+1, len(g.Paths))
		}
		if g.Size < 0 || g.Links < 0 || g.Links >= len(g.Paths) {
			return nil, fmt.Errorf("group %d has invalid size or link count", i+1)
		}
	}
	return &report, nil
}
