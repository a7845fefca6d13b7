// Package generator runs the generation loop: it draws content from the
// pools, assembles each message and hands the result to the configured sink.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/lets-qa/EML-Content-Generator/compose"
	"github.com/lets-qa/EML-Content-Generator/config"
	"github.com/lets-qa/EML-Content-Generator/dates"
	"github.com/lets-qa/EML-Content-Generator/dkim"
	"github.com/lets-qa/EML-Content-Generator/model"
	"github.com/lets-qa/EML-Content-Generator/pools"
	"github.com/lets-qa/EML-Content-Generator/progress"
	"github.com/lets-qa/EML-Content-Generator/selector"
	"github.com/lets-qa/EML-Content-Generator/sink"
	"github.com/lets-qa/EML-Content-Generator/stats"
)

// Selection slots. Each gets an independent cursor in linear mode.
const (
	slotFrom   = "from"
	slotTo     = "to"
	slotText   = "text"
	slotHTML   = "html"
	slotAttach = "attachment"
)

const logEvery = 100

// Generator produces a batch of synthetic messages. All randomness flows
// from one shared source so a seeded run is reproducible end to end.
type Generator struct {
	cfg      config.Config
	pools    *pools.Pools
	rng      *rand.Rand
	sel      *selector.Selector
	sampler  *dates.Sampler
	composer *compose.Composer
	signer   *dkim.Signer
	sink     sink.Sink
	bar      *progress.Bar
	logger   *slog.Logger
	summary  stats.Summary
}

func New(cfg config.Config, p *pools.Pools, snk sink.Sink, signer *dkim.Signer, bar *progress.Bar, logger *slog.Logger) *Generator {
	seed := cfg.Seed
	if !cfg.HasSeed {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var sampler *dates.Sampler
	if cfg.HasDateRange {
		window := &dates.Window{StartMin: cfg.BusinessStartMin, EndMin: cfg.BusinessEndMin}
		sampler = dates.NewSampler(rng, cfg.DateStart, cfg.DateEnd, window, cfg.BusinessBias)
	}

	return &Generator{
		cfg:      cfg,
		pools:    p,
		rng:      rng,
		sel:      selector.New(selector.Mode(cfg.SelectionMode), rng),
		sampler:  sampler,
		composer: compose.New(rng, cfg.HasSeed, logger),
		signer:   signer,
		sink:     snk,
		bar:      bar,
		logger:   logger,
	}
}

// Run generates the configured number of messages. Sink failures abort the
// run; unreadable templates and attachments only degrade single messages.
func (g *Generator) Run(ctx context.Context) (stats.Summary, error) {
	started := time.Now()
	total := g.cfg.NumEmails

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return g.summary, err
		}

		artifact, err := g.generateOne(i)
		if err != nil {
			g.summary.LastError = err
			if g.bar != nil {
				g.bar.Fail(err)
			}
			return g.summary, fmt.Errorf("generate %s: %w", artifact.Name, err)
		}

		if err := g.sink.Store(ctx, artifact); err != nil {
			g.summary.LastError = err
			if g.bar != nil {
				g.bar.Fail(err)
			}
			return g.summary, fmt.Errorf("store %s: %w", artifact.Name, err)
		}

		g.summary.Generated++
		g.summary.Bytes += int64(len(artifact.Data))

		if g.bar != nil {
			g.bar.Increment(artifact.Name)
		}
		if i%logEvery == 0 {
			g.logger.Info("generation progress", "generated", i, "total", total)
		}
	}

	attrs := append(g.summary.LogAttrs(), "duration", time.Since(started))
	g.logger.Info("generation summary", attrs...)
	return g.summary, nil
}

func (g *Generator) generateOne(seq int) (model.Artifact, error) {
	name := fmt.Sprintf("email_%06d.eml", seq)

	from, err := g.sel.Choose(slotFrom, g.pools.Senders)
	if err != nil {
		return model.Artifact{Name: name}, err
	}
	to, err := g.sel.Choose(slotTo, g.pools.Recipients)
	if err != nil {
		return model.Artifact{Name: name}, err
	}

	useHTML, textBody, htmlBody := g.chooseBody()
	attachmentPaths, err := g.chooseAttachments()
	if err != nil {
		return model.Artifact{Name: name}, err
	}

	var sendTime time.Time
	if g.sampler != nil {
		sendTime = g.sampler.Sample()
	}

	msg, err := g.composer.Assemble(compose.Input{
		From:            from,
		To:              to,
		UseHTML:         useHTML,
		SubjectLen:      g.cfg.SubjectLen,
		TextBody:        textBody,
		HTMLBody:        htmlBody,
		AttachmentPaths: attachmentPaths,
		RelayHosts:      g.pools.RelayHosts,
		SendTime:        sendTime,
	})
	if err != nil {
		return model.Artifact{Name: name}, err
	}

	raw := msg.Raw
	if g.signer != nil {
		signed, err := g.signer.Sign(msg.Raw, msg.From)
		if err != nil {
			return model.Artifact{Name: name}, err
		}
		raw = signed
		g.summary.Signed++
	}

	if useHTML && htmlBody != "" {
		g.summary.HTML++
	}
	if len(attachmentPaths) > 0 {
		g.summary.WithAttachments++
	}

	return model.Artifact{
		Name: name,
		From: msg.From,
		Date: msg.Date,
		Data: raw,
	}, nil
}

// chooseBody draws the rendering style and loads one body template. A draw
// that cannot be honored (empty pool, unreadable template) falls back to the
// other pool, then to an empty body the composer replaces with a
// placeholder.
func (g *Generator) chooseBody() (useHTML bool, textBody, htmlBody string) {
	wantHTML := g.rng.Intn(100) < g.cfg.HTMLPct

	if wantHTML && len(g.pools.HTMLBodies) > 0 {
		if body, ok := g.loadTemplate(slotHTML, g.pools.HTMLBodies); ok {
			return true, "", body
		}
	}

	if len(g.pools.TextBodies) > 0 {
		if body, ok := g.loadTemplate(slotText, g.pools.TextBodies); ok {
			return false, body, ""
		}
	} else if len(g.pools.HTMLBodies) > 0 {
		// Only HTML templates exist. A plain draw still gets a body, with
		// the markup stripped out.
		if body, ok := g.loadTemplate(slotHTML, g.pools.HTMLBodies); ok {
			g.summary.BodyFallbacks++
			return false, compose.StripMarkup(body), ""
		}
	}

	g.summary.BodyFallbacks++
	return false, "", ""
}

func (g *Generator) loadTemplate(slot string, pool []string) (string, bool) {
	path, err := g.sel.Choose(slot, pool)
	if err != nil {
		return "", false
	}
	body, err := pools.LoadText(path)
	if err != nil {
		g.logger.Warn("skipping unreadable template", "path", path, "err", err)
		g.summary.SkippedFiles++
		return "", false
	}
	return body, true
}

func (g *Generator) chooseAttachments() ([]string, error) {
	if g.cfg.AttachPct <= 0 || len(g.pools.Attachments) == 0 {
		return nil, nil
	}
	if g.rng.Intn(100) >= g.cfg.AttachPct {
		return nil, nil
	}

	count := g.sel.WeightedCount(g.cfg.MaxAttachments)
	return g.sel.PickN(slotAttach, g.pools.Attachments, count)
}
