package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/supportdesk/internal/config"
	"github.com/soyeahso/supportdesk/internal/store"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load sample customers, policies, claims, and FAQs into the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			db, err := store.Open(cfg.Database.Path, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			if err := db.Seed(context.Background()); err != nil {
				return fmt.Errorf("seeding database: %w", err)
			}
			fmt.Printf("database seeded: %s\n", cfg.Database.Path)
			return nil
		},
	}
}
