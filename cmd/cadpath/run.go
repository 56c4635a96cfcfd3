package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/cadpath/pkg/engine"
	"github.com/chazu/cadpath/pkg/feature"
	"github.com/chazu/cadpath/pkg/feature/sqlite"
	"github.com/chazu/cadpath/pkg/logger"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <script>",
		Short: "Evaluate a survey script",
		Long: `Evaluate a survey script and print the features it creates. With a
database configured (--db or the settings file) the features replace the
database contents.`,
		Example: `  cadpath run examples/lot.cadpath
  cadpath run --db lot.db examples/lot.cadpath`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.runScript(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), engine.NewEngineWithSettings(opts.settings), args[0])
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

// runScript evaluates the script at path and saves the result when a
// database is configured. Evaluation errors are printed to errOut.
func (o *rootOptions) runScript(ctx context.Context, out, errOut io.Writer, eng *engine.Engine, path string) (*feature.Store, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	logger.Section("evaluate " + path)
	s, evalErrs, err := eng.Evaluate(string(source))
	if err != nil {
		return nil, err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(errOut, "%s: %s\n", path, e)
		}
		return nil, fmt.Errorf("%s: %d errors", path, len(evalErrs))
	}
	for _, w := range engine.Warnings(s) {
		fmt.Fprintf(errOut, "%s: warning: feature %s: %s\n", path, w.FeatureID.Short(), w.Message)
	}

	if o.settings.Database != "" {
		if err := save(ctx, o.settings.Database, s); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "saved %d features to %s\n", s.Count(), o.settings.Database)
	}
	return s, nil
}

func save(ctx context.Context, path string, s *feature.Store) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, db.Close())
	}()
	return db.Save(ctx, s)
}

// printSummary prints feature counts and the named points.
func printSummary(out io.Writer, s *feature.Store) {
	fmt.Fprintf(out, "features: %d (%d points, %d lines, %d arcs, %d circles)\n",
		s.Count(),
		len(s.OfKind(feature.KindPoint)),
		len(s.OfKind(feature.KindLine)),
		len(s.OfKind(feature.KindArc)),
		len(s.OfKind(feature.KindCircle)))

	for _, f := range s.OfKind(feature.KindPoint) {
		if f.Name == "" {
			continue
		}
		p := f.Data.(feature.PointData).Position
		fmt.Fprintf(out, "%-10s %14.3f %14.3f\n", f.Name, p.X, p.Y)
	}
}
