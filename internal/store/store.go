// Package store provides the record persistence backends: Firestore for
// deployed environments and a local JSON file for development.
package store

import (
	"context"
	"log/slog"

	"github.com/dograga/compliance-checks/internal/config"
	"github.com/dograga/compliance-checks/internal/domain"
)

// Open returns the record store selected by DATABASE_TYPE.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (domain.RecordStore, error) {
	if cfg.UseFirestore() {
		return NewFirestoreStore(ctx, cfg.FirestoreProject, cfg.FirestoreDatabase, cfg.Collection, logger)
	}
	return NewLocalStore(cfg.LocalDBPath, logger)
}
