package generator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/lets-qa/EML-Content-Generator/config"
	"github.com/lets-qa/EML-Content-Generator/model"
	"github.com/lets-qa/EML-Content-Generator/pools"
)

type memSink struct {
	artifacts []model.Artifact
	failAt    int
}

func (m *memSink) Store(_ context.Context, a model.Artifact) error {
	if m.failAt > 0 && len(m.artifacts)+1 >= m.failAt {
		return errors.New("disk full")
	}
	m.artifacts = append(m.artifacts, a)
	return nil
}

func (m *memSink) Close() error { return nil }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(n int) config.Config {
	return config.Config{
		SubjectLen:       50,
		NumEmails:        n,
		SelectionMode:    "random",
		MaxAttachments:   4,
		Seed:             42,
		HasSeed:          true,
		DateStart:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:          time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC),
		HasDateRange:     true,
		BusinessStartMin: 8 * 60,
		BusinessEndMin:   18 * 60,
		BusinessBias:     70,
		OutputFormat:     "eml",
		LogLevel:         "error",
	}
}

func testPools(t *testing.T) *pools.Pools {
	t.Helper()
	dir := t.TempDir()
	body := writeTempFile(t, dir, "greeting.txt", "Hello world, this is a test body.")
	return &pools.Pools{
		Senders:    []string{"alice@example.com"},
		Recipients: []string{"bob@example.net"},
		RelayHosts: []string{"mx1.example.com", "mx2.example.com"},
		TextBodies: []string{body},
	}
}

func parseMessage(t *testing.T, data []byte) *mail.Message {
	t.Helper()
	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("parse generated message: %v", err)
	}
	return msg
}

func TestRun_SequentialArtifacts(t *testing.T) {
	snk := &memSink{}
	gen := New(testConfig(3), testPools(t), snk, nil, nil, discardLogger())

	summary, err := gen.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.Generated != 3 {
		t.Errorf("Generated = %d, want 3", summary.Generated)
	}

	var names []string
	for _, a := range snk.artifacts {
		names = append(names, a.Name)
	}
	want := []string{"email_000001.eml", "email_000002.eml", "email_000003.eml"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("artifact names mismatch (-want +got):\n%s", diff)
	}

	seen := map[string]bool{}
	for _, a := range snk.artifacts {
		msg := parseMessage(t, a.Data)
		if got := msg.Header.Get("From"); got != "<alice@example.com>" {
			t.Errorf("From = %q, want <alice@example.com>", got)
		}
		if got := msg.Header.Get("To"); got != "<bob@example.net>" {
			t.Errorf("To = %q, want <bob@example.net>", got)
		}
		id := msg.Header.Get("Message-Id")
		if id == "" {
			t.Error("message has no Message-Id")
		}
		if seen[id] {
			t.Errorf("duplicate Message-Id %q", id)
		}
		seen[id] = true
	}
}

func TestRun_SeededRunsIdentical(t *testing.T) {
	p := testPools(t)

	run := func() []model.Artifact {
		snk := &memSink{}
		if _, err := New(testConfig(5), p, snk, nil, nil, discardLogger()).Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return snk.artifacts
	}

	first := run()
	second := run()

	if len(first) != len(second) {
		t.Fatalf("runs produced %d and %d artifacts", len(first), len(second))
	}
	for i := range first {
		if !bytes.Equal(first[i].Data, second[i].Data) {
			t.Errorf("artifact %s differs between seeded runs", first[i].Name)
		}
	}
}

func TestRun_HTMLRendering(t *testing.T) {
	p := testPools(t)
	dir := t.TempDir()
	p.HTMLBodies = []string{writeTempFile(t, dir, "news.html", "<p>Quarterly <b>update</b> attached.</p>")}

	cfg := testConfig(4)
	cfg.HTMLPct = 100

	snk := &memSink{}
	summary, err := New(cfg, p, snk, nil, nil, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.HTML != 4 {
		t.Errorf("HTML = %d, want 4", summary.HTML)
	}
	for _, a := range snk.artifacts {
		if !strings.Contains(string(a.Data), "multipart/alternative") {
			t.Errorf("%s is not rendered as multipart/alternative", a.Name)
		}
	}
}

func TestRun_Attachments(t *testing.T) {
	p := testPools(t)
	dir := t.TempDir()
	p.Attachments = []string{writeTempFile(t, dir, "report.pdf", "%PDF-1.4 fake")}

	cfg := testConfig(3)
	cfg.AttachPct = 100

	snk := &memSink{}
	summary, err := New(cfg, p, snk, nil, nil, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.WithAttachments != 3 {
		t.Errorf("WithAttachments = %d, want 3", summary.WithAttachments)
	}
	for _, a := range snk.artifacts {
		if !strings.Contains(string(a.Data), "application/pdf") {
			t.Errorf("%s carries no pdf attachment part", a.Name)
		}
	}
}

func TestRun_PlainDrawFromHTMLOnlyPool(t *testing.T) {
	dir := t.TempDir()
	p := &pools.Pools{
		Senders:    []string{"alice@example.com"},
		Recipients: []string{"bob@example.net"},
		HTMLBodies: []string{writeTempFile(t, dir, "note.html", "<p>Plain <b>rendering</b> expected.</p>")},
	}

	cfg := testConfig(2)
	cfg.HTMLPct = 0

	snk := &memSink{}
	summary, err := New(cfg, p, snk, nil, nil, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.BodyFallbacks != 2 {
		t.Errorf("BodyFallbacks = %d, want 2", summary.BodyFallbacks)
	}
	for _, a := range snk.artifacts {
		raw := string(a.Data)
		if strings.Contains(raw, "multipart") {
			t.Errorf("%s should be a plain text message", a.Name)
		}
		if strings.Contains(raw, "<b>") {
			t.Errorf("%s still contains markup", a.Name)
		}
	}
}

func TestRun_AttachmentPoolEmpty(t *testing.T) {
	cfg := testConfig(2)
	cfg.AttachPct = 100

	snk := &memSink{}
	summary, err := New(cfg, testPools(t), snk, nil, nil, discardLogger()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if summary.WithAttachments != 0 {
		t.Errorf("WithAttachments = %d, want 0 for an empty pool", summary.WithAttachments)
	}
	if summary.Generated != 2 {
		t.Errorf("Generated = %d, want 2", summary.Generated)
	}
}

func TestRun_SinkFailureAborts(t *testing.T) {
	snk := &memSink{failAt: 2}
	summary, err := New(testConfig(5), testPools(t), snk, nil, nil, discardLogger()).Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected error on sink failure")
	}
	if summary.Generated != 1 {
		t.Errorf("Generated = %d, want 1 before the failure", summary.Generated)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snk := &memSink{}
	summary, err := New(testConfig(5), testPools(t), snk, nil, nil, discardLogger()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if summary.Generated != 0 {
		t.Errorf("Generated = %d, want 0", summary.Generated)
	}
}
