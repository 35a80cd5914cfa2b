// Package store persists generation records so past submissions can
// be audited via the history command.
package store

import (
	"context"

	"github.com/me/ichorgen/pkg/model"
)

// Store defines the persistence layer for generation records.
type Store interface {
	CreateGeneration(ctx context.Context, gen *model.Generation) error
	GetGeneration(ctx context.Context, id string) (*model.Generation, error)
	ListGenerations(ctx context.Context, limit int) ([]*model.Generation, error)

	Close() error
	Migrate(ctx context.Context) error
}
