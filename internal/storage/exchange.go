package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dohr-michael/dayplanner/internal/tasks"
)

// Format is an export/import encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// FormatFromPath guesses the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// exportVersion is bumped when the document shape changes.
const exportVersion = 1

// ExportDocument is the top-level shape of an export file.
type ExportDocument struct {
	Version    int          `json:"version" yaml:"version"`
	ExportedAt time.Time    `json:"exported_at" yaml:"exported_at"`
	Tasks      []tasks.Task `json:"tasks" yaml:"tasks"`
}

// Encode writes list to w as an ExportDocument.
func Encode(w io.Writer, f Format, list []tasks.Task, now time.Time) error {
	if list == nil {
		list = []tasks.Task{}
	}
	doc := ExportDocument{Version: exportVersion, ExportedAt: now, Tasks: list}

	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown format %q", f)
}

// Decode reads tasks from r. Both an ExportDocument and a bare task array
// are accepted.
func Decode(r io.Reader, f Format) ([]tasks.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	switch f {
	case FormatYAML:
		return decodeYAML(data)
	case FormatJSON, "":
		return decodeJSON(data)
	}
	return nil, fmt.Errorf("unknown format %q", f)
}

func decodeJSON(data []byte) ([]tasks.Task, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []tasks.Task
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return list, nil
	}

	var doc ExportDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if doc.Version > exportVersion {
		return nil, fmt.Errorf("unsupported export version %d", doc.Version)
	}
	return doc.Tasks, nil
}

func decodeYAML(data []byte) ([]tasks.Task, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	node := root.Content[0]
	if node.Kind == yaml.SequenceNode {
		var list []tasks.Task
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return list, nil
	}

	var doc ExportDocument
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if doc.Version > exportVersion {
		return nil, fmt.Errorf("unsupported export version %d", doc.Version)
	}
	return doc.Tasks, nil
}
