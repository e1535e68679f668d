package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"salespipe/pkg/contracts/domain"
)

// SaveResults writes the document as two-space indented JSON, creating
// the parent directory if needed. The layout is a persisted contract
// consumed by comparison tooling.
func SaveResults(path string, doc *domain.ResultsDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// LoadResults reads a previously saved results document.
func LoadResults(path string) (*domain.ResultsDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc domain.ResultsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &doc, nil
}
