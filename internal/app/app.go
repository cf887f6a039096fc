package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"PublicationsMonitor/internal/config"
	"PublicationsMonitor/internal/extract"
	"PublicationsMonitor/internal/infrastructure/console"
	"PublicationsMonitor/internal/infrastructure/mail"
	"PublicationsMonitor/internal/infrastructure/parser"
	"PublicationsMonitor/internal/infrastructure/scheduler"
	"PublicationsMonitor/internal/infrastructure/storage"
	"PublicationsMonitor/internal/infrastructure/telegram"
	"PublicationsMonitor/internal/notifier"
	"PublicationsMonitor/internal/patterns"
	"PublicationsMonitor/internal/ports"
	"PublicationsMonitor/internal/usecase"
)

const stopTimeout = 30 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	registry  *patterns.Registry
	monitor   *usecase.Monitor
	scheduler *usecase.Scheduler
	closeFn   func() error
}

// RunOptions controls the long-running mode.
type RunOptions struct {
	// CheckNow runs one check before the scheduler starts.
	CheckNow bool
	// TestNotification sends the test message before the scheduler starts.
	TestNotification bool
	// Prompt enables operator commands read from In.
	Prompt bool
	In     io.Reader
	Out    io.Writer
}

// New builds the application from a validated configuration.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = slog.Default()
	}
	loc := cfg.Scheduler.Location()
	now := func() time.Time { return time.Now().In(loc) }

	store, closeFn, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	senders, err := buildSenders(cfg)
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	registry := patterns.Default()
	source := parser.NewPageSource(
		cfg.Source.URL,
		extract.New(registry, now),
		parser.Options{Timeout: cfg.Source.Timeout, UserAgent: cfg.Source.UserAgent},
		baseLogger.With("component", "source"),
	)

	n := notifier.New(registry, senders, notifier.Options{
		SourceName: cfg.Source.Name,
		SourceURL:  cfg.Source.URL,
		Location:   loc,
		Now:        now,
	}, baseLogger.With("component", "notifier"))

	monitor := usecase.NewMonitor(usecase.MonitorDeps{
		Source:   source,
		Store:    store,
		Notifier: n,
		Mode:     cfg.Dedupe.Mode,
		Logger:   baseLogger.With("component", "monitor"),
		Now:      now,
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, loc, baseLogger.With("component", "cron"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		registry:  registry,
		monitor:   monitor,
		scheduler: usecase.NewScheduler(driver, monitor, baseLogger.With("component", "scheduler")),
		closeFn:   closeFn,
	}, nil
}

// OpenStore opens the configured known-publications backend. The returned
// function releases it.
func OpenStore(ctx context.Context, cfg config.Config) (ports.KnownStore, func() error, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		store, err := storage.OpenSQLite(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendJSON, "":
		return storage.NewJSONStore(cfg.Storage.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("%w: storage backend %q", config.ErrInvalid, cfg.Storage.Backend)
	}
}

func buildSenders(cfg config.Config) ([]ports.Sender, error) {
	var senders []ports.Sender

	if email := cfg.Notifications.Email; email.Enabled() {
		senders = append(senders, mail.NewSMTPSender(mail.Config{
			Host:     email.SMTPHost,
			Port:     email.SMTPPort,
			Username: email.Username,
			Password: email.Password,
			From:     email.From,
			To:       email.To,
		}))
	}

	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		chatID, err := tg.ChatIDValue()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
		}
		senders = append(senders, telegram.NewSender(tg.BotToken, chatID))
	}

	return senders, nil
}

// Monitor exposes the check routine for one-shot commands.
func (a *Application) Monitor() *usecase.Monitor {
	return a.monitor
}

// Close releases the known store.
func (a *Application) Close() error {
	if a.closeFn == nil {
		return nil
	}
	return a.closeFn()
}

// Run starts the scheduler and, if requested, the operator prompt, then
// blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context, opts RunOptions) error {
	a.logger.Info("publications monitor starting",
		"source", a.cfg.Source.URL,
		"patterns", a.registry.Len(),
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Location().String(),
		"dedupe", string(a.cfg.Dedupe.Mode))

	if opts.TestNotification {
		if err := a.monitor.SendTest(ctx); err != nil {
			a.logger.Warn("startup test notification failed", "error", err)
		}
	}
	if opts.CheckNow {
		if _, err := a.monitor.Check(ctx); err != nil {
			a.logger.Warn("startup check failed", "error", err)
		}
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	if opts.Prompt && opts.In != nil {
		prompt := console.NewPrompt(opts.In, opts.Out, console.Actions{
			Check: func(ctx context.Context) error {
				_, err := a.monitor.Check(ctx)
				return err
			},
			Test: a.monitor.SendTest,
		}, a.logger.With("component", "prompt"))
		go func() {
			if err := prompt.Run(ctx); err != nil {
				a.logger.Warn("operator prompt stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	a.logger.Info("publications monitor stopping")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}
