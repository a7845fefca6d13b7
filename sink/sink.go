// Package sink persists generated message artifacts. The generator hands
// each sink ready-to-store bytes plus a target name; a sink failure is fatal
// for the whole run.
package sink

import (
	"context"

	"github.com/lets-qa/EML-Content-Generator/model"
)

type Sink interface {
	Store(ctx context.Context, a model.Artifact) error
	Close() error
}

// Discard accounts for artifacts without persisting them, for dry runs.
type Discard struct {
	Count int
	Bytes int64
}

func (d *Discard) Store(_ context.Context, a model.Artifact) error {
	d.Count++
	d.Bytes += int64(len(a.Data))
	return nil
}

func (d *Discard) Close() error { return nil }
