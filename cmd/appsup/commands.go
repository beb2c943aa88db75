package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"

	"github.com/loykin/appsup/internal/config"
	"github.com/loykin/appsup/internal/journal"
	"github.com/loykin/appsup/internal/logger"
	"github.com/loykin/appsup/internal/metrics"
	"github.com/loykin/appsup/internal/report"
	"github.com/loykin/appsup/internal/server"
	"github.com/loykin/appsup/internal/service"
	"github.com/loykin/appsup/internal/supervisor"
)

// command implements the CLI operations. Each invocation is one-shot: load
// config, build a supervisor, run the operation, exit.
type command struct {
	flags *GlobalFlags
}

// build assembles the supervisor stack from the loaded configuration. The
// journal may come back nil when it cannot be opened; supervision proceeds
// without it.
func (c command) build(opts supervisor.Options) (*supervisor.Supervisor, *journal.Journal, config.Config, error) {
	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return nil, nil, config.Config{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, nil, config.Config{}, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	logger.Setup(logger.Config{Level: level, FilePath: cfg.LogFile})
	metrics.Register(nil)

	if opts.LockPath == "" {
		opts.LockPath = cfg.LockPath
	}
	sup := supervisor.New(cfg.Services, opts)

	var jr *journal.Journal
	if cfg.JournalPath != "" {
		jr, err = journal.Open(cfg.JournalPath)
		if err != nil {
			slog.Warn("journal unavailable, continuing without it", "path", cfg.JournalPath, "error", err)
			jr = nil
		} else {
			sup.SetRecorder(jr)
		}
	}
	return sup, jr, cfg, nil
}

// Start runs the ordered startup. Spawn failures make the command fail;
// a readiness timeout does not, since the service may still come up.
func (c command) Start(flags StartFlags) error {
	sup, jr, cfg, err := c.build(supervisor.Options{})
	if err != nil {
		return err
	}
	defer closeJournal(jr)

	snap, err := sup.Start(context.Background())
	if err != nil {
		if snap.Services != nil {
			fmt.Print(report.Text(snap))
		}
		return err
	}
	fmt.Print(report.Text(snap))

	if snap.Aggregate == service.BothRunning && !flags.NoBrowser {
		if url := frontendURL(cfg); url != "" {
			if err := browser.OpenURL(url); err != nil {
				slog.Debug("could not open browser", "url", url, "error", err)
			}
		}
	}
	return nil
}

// Stop runs the ordered shutdown plus orphan sweep. A process that survives
// the grace period is reported in the snapshot but does not fail the command;
// the exit status reflects that the shutdown attempt itself completed.
func (c command) Stop(flags StopFlags) error {
	sup, jr, _, err := c.build(supervisor.Options{TerminateGrace: flags.Wait})
	if err != nil {
		return err
	}
	defer closeJournal(jr)

	snap, err := sup.Stop(context.Background())
	if err != nil {
		if snap.Services == nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	fmt.Print(report.Text(snap))
	return nil
}

// Status probes and prints; never mutates.
func (c command) Status(flags StatusFlags) error {
	sup, jr, _, err := c.build(supervisor.Options{})
	if err != nil {
		return err
	}
	defer closeJournal(jr)

	snap := sup.Status(context.Background())
	if flags.JSON {
		out, err := report.JSON(snap)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Print(report.Text(snap))
	return nil
}

// Restart is stop, cooldown, start under one lock.
func (c command) Restart() error {
	sup, jr, _, err := c.build(supervisor.Options{})
	if err != nil {
		return err
	}
	defer closeJournal(jr)

	snap, err := sup.Restart(context.Background())
	if snap.Services != nil {
		fmt.Print(report.Text(snap))
	}
	return err
}

// Serve runs the dashboard API until SIGINT/SIGTERM.
func (c command) Serve(flags ServeFlags) error {
	sup, jr, cfg, err := c.build(supervisor.Options{})
	if err != nil {
		return err
	}
	defer closeJournal(jr)

	addr := cfg.ServeAddr
	if flags.Addr != "" {
		addr = flags.Addr
	}
	srv, err := server.NewServer(addr, sup, jr)
	if err != nil {
		return err
	}
	fmt.Printf("Serving dashboard API on http://%s\n", addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func frontendURL(cfg config.Config) string {
	for _, def := range cfg.Services {
		if def.Name == service.FrontendName {
			return def.HealthURL
		}
	}
	return ""
}

func closeJournal(jr *journal.Journal) {
	if jr != nil {
		_ = jr.Close()
	}
}

func printTo(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
}
