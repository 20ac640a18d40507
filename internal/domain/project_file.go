package domain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func decodeProjectFile(data []byte) (ProjectFile, error) {
	var file ProjectFile
	if err := json.Unmarshal(data, &file); err != nil {
		return ProjectFile{}, err
	}
	for i := range file.Projects {
		if file.Projects[i].Awards == nil {
			file.Projects[i].Awards = []string{}
		}
	}
	return file, nil
}

// ReadProjectFile loads a projects JSON file from disk.
func ReadProjectFile(path string) (ProjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ProjectFile{}, err
	}
	file, err := decodeProjectFile(data)
	if err != nil {
		return ProjectFile{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return file, nil
}

// WriteProjectFile replaces path atomically through a temporary file.
func WriteProjectFile(path string, file ProjectFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpFile, path)
}
