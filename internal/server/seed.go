package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DeckDefinition is one deck in a seed file.
type DeckDefinition struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Difficulty  string   `yaml:"difficulty"`
	Prompts     []string `yaml:"prompts"`
}

type seedFile struct {
	Decks []DeckDefinition `yaml:"decks"`
}

// LoadDeckFile parses a YAML seed file of deck definitions.
func LoadDeckFile(path string) ([]DeckDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading deck file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing deck file: %w", err)
	}

	for i, d := range f.Decks {
		if d.Name == "" {
			return nil, fmt.Errorf("deck %d: name is required", i+1)
		}
		if len(d.Prompts) == 0 {
			return nil, fmt.Errorf("deck %q: at least one prompt is required", d.Name)
		}
	}
	return f.Decks, nil
}

// SeedDecks creates the given decks with their prompts. Decks whose name
// already exists are skipped, so reseeding is safe.
func SeedDecks(ctx context.Context, logger *slog.Logger, store *SQLiteStore, defs []DeckDefinition) error {
	existing, err := store.ListDecks(ctx)
	if err != nil {
		return fmt.Errorf("listing decks: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, d := range existing {
		names[d.Name] = true
	}

	for _, def := range defs {
		if names[def.Name] {
			logger.Info("deck already exists, skipping", "name", def.Name)
			continue
		}

		detail, err := store.CreateDeck(ctx, DeckRequest{
			Name:        def.Name,
			Description: def.Description,
			Category:    def.Category,
			Difficulty:  def.Difficulty,
		}, "seed")
		if err != nil {
			return fmt.Errorf("creating deck %q: %w", def.Name, err)
		}

		items := make([]DeckItemRequest, len(def.Prompts))
		for i, p := range def.Prompts {
			items[i] = DeckItemRequest{Prompt: p, Difficulty: def.Difficulty}
		}
		if _, err := store.AddDeckItems(ctx, detail.ID, items); err != nil {
			return fmt.Errorf("adding items to deck %q: %w", def.Name, err)
		}

		logger.Info("deck seeded", "name", def.Name, "prompts", len(def.Prompts))
	}
	return nil
}

// SeedAdmin ensures the configured admin account exists.
func SeedAdmin(ctx context.Context, logger *slog.Logger, store *SQLiteStore, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}
	if err := store.EnsureAdmin(ctx, email, string(hash)); err != nil {
		return fmt.Errorf("creating admin: %w", err)
	}
	logger.Info("admin account ready", "email", email)
	return nil
}
