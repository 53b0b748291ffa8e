package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sketchduel/api/internal/server"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load deck definitions from a YAML file",
	Long: "Creates decks and prompts from a YAML seed file. Decks whose name\n" +
		"already exists are skipped, so reseeding is safe.",
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "decks.yaml", "path to the deck YAML file")
	seedCmd.MarkFlagRequired("file")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, db, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	defs, err := server.LoadDeckFile(seedFile)
	if err != nil {
		return err
	}

	store := server.NewSQLiteStore(db)

	if err := server.SeedAdmin(ctx, logger, store, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	if err := server.SeedDecks(ctx, logger, store, defs); err != nil {
		return err
	}

	fmt.Printf("Seeded %d deck definition(s) from %s\n", len(defs), seedFile)
	return nil
}
