package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"blogforge/internal/config"
	"blogforge/internal/images"
	"blogforge/internal/logger"
	"blogforge/internal/persistence"
	"blogforge/internal/pipeline"
	"blogforge/internal/textgen"
)

// NewGenerateCmd creates the generate command: one pipeline pass per run.
func NewGenerateCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Consume pending keywords and generate blog posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), count)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many keywords to process")
	return cmd
}

func runGenerate(ctx context.Context, count int) error {
	cfg := config.Get()

	db, err := persistence.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	store, err := images.NewGCSStore(ctx, cfg.Storage.Bucket)
	if err != nil {
		return fmt.Errorf("failed to create object store: %w", err)
	}
	defer func() { _ = store.Close() }()

	textGen := textgen.NewClient(
		cfg.AI.TextGen.APIKey,
		cfg.AI.TextGen.BaseURL,
		config.Duration(cfg.AI.TextGen.Timeout, 120*time.Second),
	)
	imageGen := images.NewClient(
		cfg.AI.Images.APIKey,
		cfg.AI.Images.BaseURL,
		cfg.AI.Images.Model,
		cfg.AI.Images.Size,
		cfg.AI.Images.Quality,
		config.Duration(cfg.AI.Images.Timeout, 60*time.Second),
	)
	resolver := images.NewResolver(imageGen, store, cfg.Storage.Prefix,
		config.Duration(cfg.Generation.ImageStagger, 2*time.Second))

	runner := pipeline.NewRunner(textGen, resolver, db.Posts(), db.Keywords(), pipeline.Config{
		Model:            cfg.AI.TextGen.Model,
		MaxTokens:        cfg.AI.TextGen.MaxTokens,
		Temperature:      cfg.AI.TextGen.Temperature,
		MaxAttempts:      cfg.Generation.MaxAttempts,
		RetryBaseDelay:   config.Duration(cfg.Generation.RetryBaseDelay, time.Second),
		PublishThreshold: cfg.Generation.PublishThreshold,
		ImageSlots:       cfg.Generation.ImageSlots,
		ScheduleDelay:    config.Duration(cfg.Generation.ScheduleDelay, 24*time.Hour),
	})

	for i := 0; i < count; i++ {
		record, err := runner.Run(ctx)
		if errors.Is(err, pipeline.ErrQueueEmpty) {
			logger.Info("keyword queue is empty, stopping")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Generated %q (score %d, status %s)\n", record.Title, record.QualityScore, record.Status)
	}
	return nil
}
