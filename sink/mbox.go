package sink

import (
	"context"
	"fmt"
	"os"

	mboxlib "github.com/emersion/go-mbox"

	"github.com/lets-qa/EML-Content-Generator/model"
)

// Mbox appends every artifact to a single mbox file.
type Mbox struct {
	file *os.File
	w    *mboxlib.Writer
}

func NewMbox(path string) (*Mbox, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open mbox: %w", err)
	}
	return &Mbox{file: file, w: mboxlib.NewWriter(file)}, nil
}

func (s *Mbox) Store(_ context.Context, a model.Artifact) error {
	mw, err := s.w.CreateMessage(a.From, a.Date)
	if err != nil {
		return fmt.Errorf("mbox message %s: %w", a.Name, err)
	}
	if _, err := mw.Write(a.Data); err != nil {
		return fmt.Errorf("mbox write %s: %w", a.Name, err)
	}
	return nil
}

func (s *Mbox) Close() error {
	var firstErr error
	if err := s.w.Close(); err != nil {
		firstErr = fmt.Errorf("close mbox writer: %w", err)
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close mbox file: %w", err)
	}
	return firstErr
}
