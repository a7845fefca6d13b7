package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lets-qa/EML-Content-Generator/config"
	"github.com/lets-qa/EML-Content-Generator/dkim"
	"github.com/lets-qa/EML-Content-Generator/generator"
	"github.com/lets-qa/EML-Content-Generator/pools"
	"github.com/lets-qa/EML-Content-Generator/progress"
	"github.com/lets-qa/EML-Content-Generator/sink"
)

var rootCmd = &cobra.Command{
	Use:   "eml-generator",
	Short: "Generate synthetic email corpora as .eml files, mbox archives or IMAP uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(cmd)
		if err != nil {
			return err
		}

		logger, cleanup, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = cleanup()
		}()

		slog.SetDefault(logger)
		logger.Info("starting eml-generator", "numEmails", cfg.NumEmails, "format", cfg.OutputFormat, "mode", cfg.SelectionMode, "dryRun", cfg.DryRun)

		return run(cfg, logger)
	},
}

func main() {
	if err := config.RegisterFlags(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register CLI flags: %v\n", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := pools.Load(pools.Paths{
		FromList:   cfg.FromList,
		ToList:     cfg.ToList,
		RelayHosts: cfg.RelayHosts,
		BodyDir:    cfg.BodyDir,
		HTMLDir:    cfg.HTMLDir,
		AttachDir:  cfg.AttachDir,
	})
	if err != nil {
		return fmt.Errorf("load pools: %w", err)
	}

	if len(p.RelayHosts) == 0 {
		logger.Warn("relay host list is empty, messages will carry no Received headers")
	}
	if cfg.HTMLPct > 0 && len(p.HTMLBodies) == 0 {
		logger.Warn("html percentage is set but the HTML pool is empty, falling back to plain text")
	}
	if cfg.AttachPct > 0 && len(p.Attachments) == 0 {
		logger.Warn("attachment percentage is set but the attachment pool is empty")
	}

	signer, err := dkim.New(cfg.DKIMDomain, cfg.DKIMSelector, cfg.DKIMKeyPath)
	if err != nil {
		return err
	}

	snk, err := newSink(cfg, logger)
	if err != nil {
		return fmt.Errorf("open sink: %w", err)
	}

	bar := progress.New(cfg.NumEmails, cfg.LogLevel)
	gen := generator.New(cfg, p, snk, signer, bar, logger)

	started := time.Now()
	summary, runErr := gen.Run(ctx)
	if runErr == nil {
		bar.Stop()
	}

	if err := snk.Close(); err != nil {
		logger.Error("closing sink failed", "err", err)
		if runErr == nil {
			runErr = err
		}
	}

	if cfg.LogLevel == "info" {
		summary.PrettyPrint(time.Since(started))
	}

	return runErr
}

func newSink(cfg config.Config, logger *slog.Logger) (sink.Sink, error) {
	if cfg.DryRun {
		return &sink.Discard{}, nil
	}

	switch cfg.OutputFormat {
	case "eml":
		return sink.NewEMLDir(cfg.OutputDir)
	case "mbox":
		return sink.NewMbox(cfg.MboxPath)
	case "imap":
		return sink.NewIMAP(sink.IMAPOptions{
			Host:               cfg.IMAPHost,
			Port:               cfg.IMAPPort,
			Username:           cfg.IMAPUser,
			Password:           cfg.IMAPPass,
			UseTLS:             cfg.UseTLS,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			TargetFolder:       cfg.TargetFolder,
		}, logger)
	}
	return nil, fmt.Errorf("unsupported output format %q", cfg.OutputFormat)
}

func setupLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	opts := &slog.HandlerOptions{Level: level}
	cleanup := func() error { return nil }

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, cleanup, err
		}

		logFilePath := filepath.Join(cfg.LogDir, fmt.Sprintf("eml-generator-%s.log", time.Now().Format("20060102T150405")))
		file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, cleanup, err
		}

		handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, file), opts)
		cleanup = func() error {
			return file.Close()
		}
		return slog.New(handler), cleanup, nil
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler), cleanup, nil
}
