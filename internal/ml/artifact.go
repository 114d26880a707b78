package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveModel writes the model artifact. The file is replaced atomically.
func SaveModel(path string, m *Model) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("ml: refusing to save invalid model: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("ml: encode model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ml: create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ml: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("ml: write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ml: write model: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("ml: replace %s: %w", path, err)
	}
	return nil
}

// LoadModel reads and validates a model artifact
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ml: read %s: %w", path, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("ml: decode %s: %w", path, err)
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("ml: invalid artifact %s: %w", path, err)
	}
	return &m, nil
}
