package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deskmate/internal/builtin/digest"
	"github.com/alexisbeaulieu97/deskmate/internal/config"
	"github.com/alexisbeaulieu97/deskmate/internal/host/inmem"
	"github.com/alexisbeaulieu97/deskmate/internal/loader"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
	"github.com/alexisbeaulieu97/deskmate/internal/manager"
	"github.com/alexisbeaulieu97/deskmate/internal/metrics"
	"github.com/alexisbeaulieu97/deskmate/internal/store"
)

// app bundles the runtime pieces a command needs.
type app struct {
	opts     config.Options
	log      *logger.Logger
	store    *store.Store
	loader   *loader.Loader
	host     *inmem.Host
	manager  *manager.Manager
	registry *prometheus.Registry
}

// newApp wires the runtime. Logs go to logOut, or stderr when it is nil.
func newApp(cmd *cobra.Command, flags *rootFlags, operation string, logOut io.Writer) (*app, error) {
	opts, err := flags.options()
	if err != nil {
		return nil, newCommandError(operation, "loading configuration", err, "Fix the configuration file or the flags shown above.")
	}

	if logOut == nil {
		logOut = cmd.ErrOrStderr()
	}
	log, err := newLogger(opts, logOut)
	if err != nil {
		return nil, newCommandError(operation, "creating logger", err, "Use one of trace, debug, info, warn or error.")
	}

	st, err := store.Open(opts.PluginsDir, store.WithPolicy(opts.GrantPolicy()), store.WithLogger(log))
	if err != nil {
		return nil, newCommandError(operation, "opening plugin configuration", err, "Check that the plugins directory is writable.")
	}

	ld, err := loader.New(loader.Options{
		Root:           opts.PluginsDir,
		SharedDir:      opts.SharedDir,
		SharedPrefixes: opts.SharedPrefixes,
		Builtins:       []loader.Builtin{digest.Builtin()},
		Logger:         log,
	})
	if err != nil {
		return nil, newCommandError(operation, "creating plugin loader", err, "")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	if err := metrics.TrackArenas(reg, ld.OpenArenas); err != nil {
		return nil, fmt.Errorf("register arena gauge: %w", err)
	}

	h := inmem.NewHost(log, filepath.Join(opts.PluginsDir, loader.DataDirName, "exports"))
	mgr := manager.New(ld, st, h.Services(),
		manager.WithLogger(log),
		manager.WithMetrics(collector),
		manager.WithLifecycleTimeout(opts.LifecycleTimeout),
	)

	return &app{
		opts:     opts,
		log:      log,
		store:    st,
		loader:   ld,
		host:     h,
		manager:  mgr,
		registry: reg,
	}, nil
}
