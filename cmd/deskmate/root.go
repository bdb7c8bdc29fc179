package main

import (
	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deskmate/internal/config"
)

type rootFlags struct {
	configPath   string
	pluginsDir   string
	logLevel     string
	defaultGrant string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "deskmate",
		Short:         "Deskmate hosts sandboxed desktop assistant plugins",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to the configuration file (default "+config.DefaultPath()+")")
	pf.StringVar(&flags.pluginsDir, "plugins-dir", "", "Directory plugins are discovered in")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&flags.defaultGrant, "default-grant", "", "Capabilities granted to new plugins (all or none)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newListCmd(flags))
	cmd.AddCommand(newEnableCmd(flags))
	cmd.AddCommand(newDisableCmd(flags))
	cmd.AddCommand(newGrantCmd(flags))
	cmd.AddCommand(newRevokeCmd(flags))
	cmd.AddCommand(newInstallCmd(flags))
	cmd.AddCommand(newRunCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// options merges the configuration file with the command line.
func (f *rootFlags) options() (config.Options, error) {
	var (
		opts config.Options
		err  error
	)
	if f.configPath != "" {
		opts, err = config.Load(f.configPath)
	} else {
		opts, err = config.LoadOrDefault(config.DefaultPath())
	}
	if err != nil {
		return config.Options{}, err
	}

	if f.pluginsDir != "" {
		opts.PluginsDir = f.pluginsDir
	}
	if f.logLevel != "" {
		opts.LogLevel = f.logLevel
	}
	if f.verbose {
		opts.LogLevel = "debug"
	}
	if f.defaultGrant != "" {
		opts.DefaultGrant = f.defaultGrant
	}
	if err := opts.Validate(); err != nil {
		return config.Options{}, err
	}
	return opts, nil
}
