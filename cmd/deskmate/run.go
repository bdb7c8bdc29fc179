package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deskmate/internal/events"
	"github.com/alexisbeaulieu97/deskmate/internal/loader"
	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/tui"
)

const (
	shutdownTimeout = 10 * time.Second
	maxGoroutines   = 10000
)

type runOptions struct {
	tui    bool
	listen string
	once   bool
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Load, initialize and start every enabled plugin",
		Long: `Load, initialize and start every enabled plugin in dependency order, then
wait for an interrupt and shut them down in reverse order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd, flags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.tui, "tui", false, "Show a live dashboard of plugin states")
	cmd.Flags().StringVar(&opts.listen, "listen", "", "Serve /metrics, /live and /ready on this address")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Shut down as soon as every plugin has started")
	_ = cmd.Flags().MarkHidden("once")

	return cmd
}

func runRun(cmd *cobra.Command, flags *rootFlags, opts *runOptions) error {
	var logOut io.Writer
	if opts.tui {
		file, err := openTUILog(flags)
		if err != nil {
			return newCommandError("run plugins", "opening log file", err, "Check that the plugins directory is writable.")
		}
		defer file.Close()
		logOut = file
	}

	a, err := newApp(cmd, flags, "run plugins", logOut)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool
	listen := opts.listen
	if listen == "" {
		listen = a.opts.Listen
	}
	var server *http.Server
	if listen != "" {
		server, err = serveOps(a, listen, &ready)
		if err != nil {
			return newCommandError("run plugins", "listening on "+listen, err, "Pick a free address with --listen.")
		}
	}

	var stream <-chan events.Event
	if opts.tui {
		ch, sub := tui.Subscribe(ctx, a.manager.Events(), 64)
		defer sub.Unsubscribe()
		stream = ch
	}

	booted := make(chan struct{})
	go func() {
		defer close(booted)
		a.manager.LoadAll(ctx)
		a.manager.InitializeAll(ctx)
		a.manager.StartAll(ctx)
		ready.Store(true)
		a.log.WithFields(map[string]any{"running": countRunning(a.manager.Plugins())}).Info("plugins started")
	}()

	var runErr error
	switch {
	case opts.tui:
		program := tea.NewProgram(tui.NewModel(a.manager, stream),
			tea.WithContext(ctx),
			tea.WithAltScreen(),
			tea.WithOutput(cmd.OutOrStdout()),
		)
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			runErr = fmt.Errorf("run dashboard: %w", err)
		}
		stop()
	case opts.once:
		<-booted
	default:
		<-ctx.Done()
	}
	<-booted
	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
	defer cancel()

	a.log.Info("shutting down plugins")
	if err := a.manager.Shutdown(shutdownCtx); err != nil {
		a.log.Error(err, "plugin shutdown reported errors")
		runErr = errors.Join(runErr, err)
	}
	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("stop ops server: %w", err))
		}
	}
	return runErr
}

// opsHandler exposes Prometheus metrics and health endpoints.
func opsHandler(a *app, ready *atomic.Bool) http.Handler {
	health := healthcheck.NewMetricsHandler(a.registry, "deskmate")
	health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(maxGoroutines))
	health.AddReadinessCheck("plugins-started", func() error {
		if !ready.Load() {
			return errors.New("plugins are not started")
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	mux.HandleFunc("/live", health.LiveEndpoint)
	mux.HandleFunc("/ready", health.ReadyEndpoint)
	return mux
}

func serveOps(a *app, addr string, ready *atomic.Bool) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	server := &http.Server{Handler: opsHandler(a, ready), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(err, "ops server stopped")
		}
	}()
	a.log.WithFields(map[string]any{"addr": ln.Addr().String()}).Info("serving metrics and health checks")
	return server, nil
}

func openTUILog(flags *rootFlags) (*os.File, error) {
	opts, err := flags.options()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(opts.PluginsDir, loader.DataDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "deskmate.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func countRunning(descs []plugin.Descriptor) int {
	n := 0
	for _, d := range descs {
		if d.State == plugin.StateRunning {
			n++
		}
	}
	return n
}
