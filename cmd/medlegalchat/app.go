package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"MedLegalChat/internal/chatbot"
	"MedLegalChat/internal/config"
	"MedLegalChat/internal/telemetry"
)

// app holds the process-wide pieces shared by every mode
type app struct {
	cfg    config.Config
	logger *slog.Logger
	bot    *chatbot.ChatBot
	audit  *telemetry.AuditLog

	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	logger, closeLog, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.closers = append(a.closers, closeLog)

	tracer, meter, shutdown, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.closers = append(a.closers, func() error { shutdown(); return nil })

	if cfg.AuditPath != "" {
		audit, err := telemetry.OpenAuditLog(cfg.AuditPath)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.audit = audit
		a.closers = append(a.closers, audit.Close)
	}

	a.bot = chatbot.NewChatBot(cfg, logger, tracer, meter, a.audit)
	logger.Info("medlegalchat starting", "model", cfg.Model, "base_url", cfg.BaseURL, "audit_db", cfg.AuditPath)
	return a, nil
}

// Close releases resources in reverse order of acquisition
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
