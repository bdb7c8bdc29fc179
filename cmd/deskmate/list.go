package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/alexisbeaulieu97/deskmate/internal/plugin"
	"github.com/alexisbeaulieu97/deskmate/internal/store"
	"github.com/alexisbeaulieu97/deskmate/internal/tui"
)

type listOptions struct {
	jsonOutput bool
}

func newListCmd(flags *rootFlags) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List discovered plugins and their configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, flags, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

type listedPlugin struct {
	Descriptor plugin.Descriptor
	Config     store.PluginConfiguration
	Configured bool
}

func runList(cmd *cobra.Command, flags *rootFlags, opts *listOptions) error {
	a, err := newApp(cmd, flags, "list plugins", nil)
	if err != nil {
		return err
	}

	descs := a.manager.Discover(cmd.Context())
	listed := make([]listedPlugin, 0, len(descs))
	for _, d := range descs {
		cfg, ok := a.store.Get(d.ID)
		if !ok {
			cfg = store.PluginConfiguration{ID: d.ID, Enabled: true}
			if a.store.Policy() == store.GrantAll {
				cfg.Granted = d.RequiredPermissions
			}
		}
		d.Granted = cfg.Granted
		listed = append(listed, listedPlugin{Descriptor: d, Config: cfg, Configured: ok})
	}
	warnings := a.manager.Warnings()

	if opts.jsonOutput {
		return renderListJSON(cmd, listed, warnings)
	}
	if len(listed) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No plugins found in %s.\n", a.opts.PluginsDir)
		fmt.Fprintln(cmd.OutOrStdout(), "\nRun 'deskmate install <git-url>' to add your first plugin.")
		return nil
	}
	return renderListTable(cmd, listed, warnings)
}

func renderListTable(cmd *cobra.Command, listed []listedPlugin, warnings []error) error {
	styled := isTerminal(cmd.OutOrStdout())
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	header := "ID\tVERSION\tRUNTIME\tENABLED\tGRANTED\tMISSING\tPATH"
	if styled {
		header = lipgloss.NewStyle().Bold(true).Render(header)
	}
	fmt.Fprintln(writer, header)

	for _, p := range listed {
		d := p.Descriptor
		enabled := "yes"
		if !p.Config.Enabled {
			enabled = "no"
		}
		missing := d.MissingPermissions().String()
		if d.MissingPermissions().IsEmpty() {
			missing = "-"
		}
		id := d.ID
		if styled {
			id = tui.StateIcon(stateForListing(p)) + " " + id
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id, d.Version, d.Runtime, enabled, p.Config.Granted, missing, d.Path)
	}
	if err := writer.Flush(); err != nil {
		return err
	}

	if len(warnings) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "\nWarnings:")
		for _, w := range warnings {
			fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", w)
		}
	}
	return nil
}

func stateForListing(p listedPlugin) plugin.State {
	switch {
	case !p.Config.Enabled:
		return plugin.StateUnloaded
	case !p.Descriptor.MissingPermissions().IsEmpty():
		return plugin.StateError
	default:
		return plugin.StateLoaded
	}
}

type listJSONPlugin struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Author       string   `json:"author,omitempty"`
	Description  string   `json:"description,omitempty"`
	Runtime      string   `json:"runtime"`
	Builtin      bool     `json:"builtin"`
	Enabled      bool     `json:"enabled"`
	Configured   bool     `json:"configured"`
	Required     []string `json:"required"`
	Granted      []string `json:"granted"`
	Missing      []string `json:"missing"`
	Dependencies []string `json:"dependencies"`
	Path         string   `json:"path"`
}

type listJSONPayload struct {
	Version  string           `json:"version"`
	Count    int              `json:"count"`
	Plugins  []listJSONPlugin `json:"plugins"`
	Warnings []string         `json:"warnings"`
}

func renderListJSON(cmd *cobra.Command, listed []listedPlugin, warnings []error) error {
	payload := listJSONPayload{
		Version:  "1.0",
		Count:    len(listed),
		Plugins:  make([]listJSONPlugin, len(listed)),
		Warnings: make([]string, len(warnings)),
	}

	for i, p := range listed {
		d := p.Descriptor
		payload.Plugins[i] = listJSONPlugin{
			ID:           d.ID,
			Name:         d.Name,
			Version:      d.Version,
			Author:       d.Author,
			Description:  d.Description,
			Runtime:      string(d.Runtime),
			Builtin:      d.IsBuiltIn,
			Enabled:      p.Config.Enabled,
			Configured:   p.Configured,
			Required:     d.RequiredPermissions.Names(),
			Granted:      p.Config.Granted.Names(),
			Missing:      d.MissingPermissions().Names(),
			Dependencies: d.DependencyIDs(),
			Path:         d.Path,
		}
	}
	for i, w := range warnings {
		payload.Warnings[i] = w.Error()
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func isTerminal(writer any) bool {
	if file, ok := writer.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	return false
}
