package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/cadpath/pkg/feature/sqlite"
)

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the features saved in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			if opts.settings.Database == "" {
				return errors.New("no database configured; use --db or set database in the settings file")
			}
			db, err := sqlite.Open(opts.settings.Database)
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, db.Close())
			}()

			s, err := db.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading %s: %w", db.Path(), err)
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}
}
