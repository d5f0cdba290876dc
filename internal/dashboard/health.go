package dashboard

import (
	"log/slog"

	"github.com/tgienger/dash/internal/api"
	"github.com/tgienger/dash/internal/cache"
	"github.com/tgienger/dash/internal/models"
)

// NewHealth returns the system health cell. Failures clear the last status
// so an unreachable backend never shows as up.
func NewHealth(client *api.Client, logger *slog.Logger) *cache.Cell[models.Health] {
	return cache.New("system.health", client.Health,
		cache.WithClearOnError(),
		cache.WithLogger(logger.With("screen", "health")),
	)
}
