package db

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a gorm transaction in context for collaborators that read
// inside a workflow operation
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From returns the transaction stored in ctx, or fallback bound to ctx
func From(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
