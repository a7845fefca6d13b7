package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lets-qa/EML-Content-Generator/model"
)

// EMLDir writes one .eml file per artifact inside a directory.
type EMLDir struct {
	dir string
}

func NewEMLDir(dir string) (*EMLDir, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &EMLDir{dir: dir}, nil
}

func (s *EMLDir) Store(_ context.Context, a model.Artifact) error {
	path := filepath.Join(s.dir, a.Name)
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (s *EMLDir) Close() error { return nil }
