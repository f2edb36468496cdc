package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"blogforge/internal/config"
	"blogforge/internal/core"
	"blogforge/internal/persistence"
)

// NewEnqueueCmd creates the enqueue command for seeding the keyword queue.
func NewEnqueueCmd() *cobra.Command {
	var (
		secondary []string
		audience  string
		category  string
		priority  int
	)

	cmd := &cobra.Command{
		Use:   "enqueue <keyword>",
		Short: "Add a keyword to the generation queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			db, err := persistence.NewPostgresDB(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			record := &core.KeywordRecord{
				Keyword:           args[0],
				SecondaryKeywords: secondary,
				TargetAudience:    audience,
				ServiceCategory:   core.ServiceCategory(category),
				Priority:          priority,
			}

			id, err := db.Keywords().Enqueue(cmd.Context(), record)
			if err != nil {
				return err
			}
			fmt.Printf("Enqueued keyword %q as %s\n", record.Keyword, id)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&secondary, "secondary", nil, "secondary keywords")
	cmd.Flags().StringVar(&audience, "audience", "사업주", "target audience")
	cmd.Flags().StringVar(&category, "category", string(core.ServiceHomepage), "service category (homepage|shopping-mall|landing|maintenance)")
	cmd.Flags().IntVar(&priority, "priority", 0, "queue priority, higher runs first")
	return cmd
}

// NewMigrateCmd creates the migrate command that prepares the schema.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create database tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()

			db, err := persistence.NewPostgresDB(cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Schema is up to date")
			return nil
		},
	}
}
