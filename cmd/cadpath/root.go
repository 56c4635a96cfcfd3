package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/cadpath/pkg/config"
	"github.com/chazu/cadpath/pkg/geom"
	"github.com/chazu/cadpath/pkg/logger"
	"github.com/chazu/cadpath/pkg/observation"
)

// rootOptions are the persistent flags and the settings they resolve to.
type rootOptions struct {
	verbose    bool
	configPath string
	dbPath     string

	settings config.Settings
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{settings: config.Default()}

	cmd := &cobra.Command{
		Use:   "cadpath",
		Short: "Survey traverse and intersection calculator",
		Long: `cadpath adjusts connection paths between known points, intersects
directions and distances, and evaluates survey scripts into features.

Settings are read from the settings file (see "cadpath config") and the
CADPATH_* environment variables.`,
		SilenceUsage:      true,
		PersistentPreRunE: opts.load,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "settings file (default ~/.config/cadpath/settings.toml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db", "", "feature database to save to")

	cmd.AddCommand(
		newParseCmd(opts),
		newAdjustCmd(opts),
		newIntersectCmd(opts),
		newRunCmd(opts),
		newWatchCmd(opts),
		newShowCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

func (o *rootOptions) load(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(o.verbose)
	logger.SetOutput(cmd.ErrOrStderr())

	if o.configPath == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		o.configPath = p
	}
	s, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.dbPath != "" {
		s.Database = o.dbPath
	}
	o.settings = s
	logger.Debug("settings from %s: unit %s, offset %g", o.configPath, s.EntryUnit, s.DefaultOffset)
	return nil
}

// unit returns the named unit, or the settings' entry unit for "".
func (o *rootOptions) unit(name string) (observation.Unit, error) {
	if name == "" {
		return o.settings.EntryUnit, nil
	}
	return observation.ParseUnit(name)
}

// parseXY parses "easting,northing" in meters.
func parseXY(s string) (geom.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return geom.Position{}, fmt.Errorf("expected easting,northing, got %q", s)
	}
	e, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return geom.Position{}, fmt.Errorf("easting in %q: %w", s, err)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return geom.Position{}, fmt.Errorf("northing in %q: %w", s, err)
	}
	return geom.Pos(e, n), nil
}
