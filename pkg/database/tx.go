package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrTxConflict is returned when a transaction loses a lock or serialization
// conflict and may be retried by the caller.
var ErrTxConflict = errors.New("transaction conflict")

type txKey struct{}

// TxManager runs a function inside a database transaction. Repositories
// participating in the transaction pick it up from the context.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// GormTxManager implements TxManager on top of gorm.DB.Transaction.
type GormTxManager struct {
	db *gorm.DB
}

// NewGormTxManager creates a new transaction manager
func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

// WithTx executes fn inside a single transaction. Everything fn does through
// repositories that honor FromContext commits or rolls back as one unit.
func (m *GormTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
	if isConflict(err) {
		return ErrTxConflict
	}
	return err
}

// FromContext returns the ambient transaction if one is open, otherwise the
// fallback connection scoped to ctx.
func FromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}

// Retryable SQLSTATE codes: serialization_failure and deadlock_detected
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// isConflict reports whether err is a PostgreSQL serialization failure or
// deadlock, both of which are safe to retry. The gorm connection speaks pgx,
// so errors surface as *pgconn.PgError; the raw lib/pq health connection can
// still yield *pq.Error.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == sqlstateSerializationFailure || pqErr.Code == sqlstateDeadlockDetected
	}
	return false
}
