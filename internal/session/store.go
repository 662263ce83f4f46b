package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHistoryPath is where the REPL writes the transcript.
const DefaultHistoryPath = "chat_history.json"

// SaveHistory writes the session transcript to path.
// Files ending in .yaml or .yml are written as YAML, everything else as
// indented JSON with non-ASCII text kept literal.
func SaveHistory(path string, s *Session) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = encodeYAML(s.Records())
	} else {
		data, err = encodeJSON(s.Records())
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// LoadHistory reads a transcript written by SaveHistory.
func LoadHistory(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var records []Record
	if isYAML(path) {
		err = yaml.Unmarshal(data, &records)
	} else {
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode history file: %w", err)
	}
	return FromRecords(records)
}

func encodeJSON(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func encodeYAML(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return buf.Bytes(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
