package sql

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tigerroll/swell/pkg/orchestrator/core/tx"
	"github.com/tigerroll/swell/pkg/orchestrator/support/util/exception"
)

// GormTx adapts a gorm transaction to tx.Tx.
type GormTx struct {
	db *gorm.DB
}

// DB exposes the transactional gorm handle for repositories resolving their
// executor from the context.
func (t *GormTx) DB() *gorm.DB {
	return t.db
}

// Commit implements tx.Tx.
func (t *GormTx) Commit() error {
	return t.db.Commit().Error
}

// Rollback implements tx.Tx.
func (t *GormTx) Rollback() error {
	return t.db.Rollback().Error
}

// GormTransactionManager implements tx.TransactionManager over a shared gorm
// connection.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager.
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// Begin starts a gorm transaction.
func (m *GormTransactionManager) Begin(ctx context.Context) (tx.Tx, error) {
	gormTx := m.db.WithContext(ctx).Begin()
	if gormTx.Error != nil {
		return nil, exception.New(exception.KindTransient, moduleName,
			"failed to begin transaction", gormTx.Error)
	}
	return &GormTx{db: gormTx}, nil
}

var _ tx.TransactionManager = (*GormTransactionManager)(nil)

// isUniqueViolation reports whether err is a unique-constraint violation.
// The checks cover the duplicate key wording of PostgreSQL, MySQL, and SQLite.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") || // PostgreSQL
		strings.Contains(msg, "Error 1062") || // MySQL
		strings.Contains(msg, "UNIQUE constraint failed") // SQLite
}
