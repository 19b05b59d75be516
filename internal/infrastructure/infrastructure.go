// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, database, storage, event
// publishing) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/casefile/internal/config"
	"github.com/JaimeStill/casefile/internal/events"
	"github.com/JaimeStill/casefile/internal/migrations"
	"github.com/JaimeStill/casefile/pkg/database"
	"github.com/JaimeStill/casefile/pkg/lifecycle"
	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Database is nil unless a component needs PostgreSQL, and Publisher is nil
// unless events.redis_url is set.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
	Publisher *events.Publisher

	cfg *config.Config
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := logging.New(&cfg.Logging)

	infra := &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		cfg:       cfg,
	}

	if cfg.UsesDatabase() {
		db, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		infra.Database = db
	}

	store, err := storage.New(ctx, &cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	infra.Storage = store

	if cfg.Events.Publish() {
		client, err := events.Connect(cfg.Events.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("events init failed: %w", err)
		}
		infra.Publisher = events.NewPublisher(client, cfg.Events.Channel, logger)
	}

	return infra, nil
}

// Start initializes all infrastructure systems and registers them with the
// lifecycle coordinator. Pending migrations run once the database answers.
func (i *Infrastructure) Start() error {
	if i.Database != nil {
		if err := i.Database.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("database start failed: %w", err)
		}
		if i.cfg.Database.Migrate {
			if err := migrations.Up(i.cfg.Database.MigrateURL(), i.Logger); err != nil {
				return fmt.Errorf("migrations failed: %w", err)
			}
		}
	}
	if err := i.Storage.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}
	if i.Publisher != nil {
		if err := i.Publisher.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("events start failed: %w", err)
		}
	}
	return nil
}
