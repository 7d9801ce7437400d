// Package main seeds the database with the default topic palette.
package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/hockey-club/backend/config"
	"github.com/hockey-club/backend/pkg/database"
)

type seedTopic struct {
	name        string
	color       string
	description string
}

var defaultTopics = []seedTopic{
	{"Training", "#007bff", "Regular training sessions"},
	{"Club Event", "#6f42c1", "Club-wide events"},
	{"Match", "#dc3545", "Competitive fixtures"},
	{"Social", "#fd7e14", "Social gatherings"},
	{"Meetings", "#28a745", "Committee and club meetings"},
	{"Fundraising", "#20c997", "Fundraising activities"},
	{"Junior Development", "#17a2b8", "Junior coaching and development"},
	{"Volunteer Duty", "#ffc107", "Volunteer rosters and duties"},
	{"Tournament", "#6610f2", "Tournaments and festivals"},
	{"Other", "#6c757d", "Everything else"},
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	const q = `INSERT INTO topics (id, name, color, description, active)
		VALUES (gen_random_uuid(), $1, $2, $3, TRUE)
		ON CONFLICT (name) DO NOTHING`
	var inserted int
	for _, t := range defaultTopics {
		tag, err := pool.Exec(ctx, q, t.name, t.color, t.description)
		if err != nil {
			logger.Fatal("seed topic", zap.String("name", t.name), zap.Error(err))
		}
		inserted += int(tag.RowsAffected())
	}
	logger.Info("topics seeded", zap.Int("inserted", inserted), zap.Int("total", len(defaultTopics)))
}
