package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deskmate/internal/config"
	"github.com/alexisbeaulieu97/deskmate/internal/install"
	"github.com/alexisbeaulieu97/deskmate/internal/logger"
)

type installOptions struct {
	name string
	ref  string
}

func newInstallCmd(flags *rootFlags) *cobra.Command {
	opts := &installOptions{}

	cmd := &cobra.Command{
		Use:   "install <git-url>",
		Short: "Clone a plugin repository into the plugins directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd, flags, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.name, "name", "", "Directory name (defaults to the repository name)")
	cmd.Flags().StringVar(&opts.ref, "ref", "", "Branch or tag to check out")

	return cmd
}

func runInstall(cmd *cobra.Command, flags *rootFlags, opts *installOptions, url string) error {
	cfg, err := flags.options()
	if err != nil {
		return newCommandError("install plugin", "loading configuration", err, "Fix the configuration file or the flags shown above.")
	}
	log, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return newCommandError("install plugin", "creating logger", err, "")
	}

	res, err := install.New(cfg.PluginsDir, install.WithLogger(log)).Install(cmd.Context(), install.Request{
		URL:  url,
		Name: opts.name,
		Ref:  opts.ref,
	})
	switch {
	case errors.Is(err, install.ErrInvalidURL):
		return newCommandError("install plugin", url, err, "Use an https, ssh, git@host:path or local repository path.")
	case errors.Is(err, install.ErrAlreadyInstalled):
		return newCommandError("install plugin", url, err, "Pick another directory with --name or remove the existing one.")
	case err != nil:
		return newCommandError("install plugin", url, err, "Check the URL, your network connection and credentials.")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s into %s", res.ID, res.Dir)
	if res.Commit != "" {
		fmt.Fprintf(cmd.OutOrStdout(), " at %.12s", res.Commit)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), "Run 'deskmate list' to review the permissions it requests.")
	return nil
}

func newLogger(cfg config.Options, out io.Writer) (*logger.Logger, error) {
	return logger.New(logger.Options{
		Level:         cfg.LogLevel,
		HumanReadable: cfg.HumanLogs,
		Writer:        out,
	})
}
