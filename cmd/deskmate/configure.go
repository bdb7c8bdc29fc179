package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexisbeaulieu97/deskmate/internal/manager"
	"github.com/alexisbeaulieu97/deskmate/internal/permission"
)

func newEnableCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <plugin-id>",
		Short: "Enable a plugin so it is loaded on the next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := discoveredManager(cmd, flags, "enable plugin", args[0])
			if err != nil {
				return err
			}
			if err := mgr.Enable(args[0]); err != nil {
				return newCommandError("enable plugin", args[0], err, "Check that the plugins directory is writable.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Enabled %s. The change applies on the next run.\n", args[0])
			return nil
		},
	}
}

func newDisableCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <plugin-id>",
		Short: "Disable a plugin so it is skipped on the next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := discoveredManager(cmd, flags, "disable plugin", args[0])
			if err != nil {
				return err
			}
			if err := mgr.Disable(args[0]); err != nil {
				return newCommandError("disable plugin", args[0], err, "Check that the plugins directory is writable.")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Disabled %s. The change applies on the next run.\n", args[0])
			return nil
		},
	}
}

type grantOptions struct {
	replace bool
}

func newGrantCmd(flags *rootFlags) *cobra.Command {
	opts := &grantOptions{}

	cmd := &cobra.Command{
		Use:   "grant <plugin-id> <permission>...",
		Short: "Grant capabilities to a plugin",
		Long:  "Grant capabilities to a plugin. Permissions: " + strings.Join(permission.KnownNames(), ", ") + ", or all.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPermissionChange(cmd, flags, "grant permissions", args[0], args[1:], func(current, change permission.Set) permission.Set {
				if opts.replace {
					return change
				}
				return current.Union(change)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.replace, "replace", false, "Replace the granted set instead of adding to it")

	return cmd
}

func newRevokeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <plugin-id> <permission>...",
		Short: "Revoke capabilities from a plugin",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPermissionChange(cmd, flags, "revoke permissions", args[0], args[1:], func(current, change permission.Set) permission.Set {
				return current &^ change
			})
		},
	}
}

func runPermissionChange(cmd *cobra.Command, flags *rootFlags, operation, id string, names []string, apply func(current, change permission.Set) permission.Set) error {
	change, err := permission.ParseSet(names)
	if err != nil {
		return newCommandError(operation, id, err, "Permissions: "+strings.Join(permission.KnownNames(), ", ")+", or all.")
	}

	a, err := newApp(cmd, flags, operation, nil)
	if err != nil {
		return err
	}
	a.manager.Discover(cmd.Context())
	if _, ok := a.manager.Plugin(id); !ok {
		return newCommandError(operation, id, manager.ErrPluginNotFound, "Run 'deskmate list' to see discovered plugins.")
	}

	cfg, err := a.store.GetOrCreate(id)
	if err != nil {
		return newCommandError(operation, id, err, "")
	}
	granted := apply(cfg.Granted, change)
	if err := a.manager.UpdatePermissions(id, granted); err != nil {
		return newCommandError(operation, id, err, "Check that the plugins directory is writable.")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s now has: %s. The change applies on the next run.\n", id, granted)
	return nil
}

func discoveredManager(cmd *cobra.Command, flags *rootFlags, operation, id string) (*manager.Manager, error) {
	a, err := newApp(cmd, flags, operation, nil)
	if err != nil {
		return nil, err
	}
	a.manager.Discover(cmd.Context())
	if _, ok := a.manager.Plugin(id); !ok {
		return nil, newCommandError(operation, id, manager.ErrPluginNotFound, "Run 'deskmate list' to see discovered plugins.")
	}
	return a.manager, nil
}
