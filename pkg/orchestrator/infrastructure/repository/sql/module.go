package sql

import (
	"go.uber.org/fx"

	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
	"github.com/tigerroll/swell/pkg/orchestrator/core/tx"
)

// Module is an Fx module that opens the relational store and provides
// GormRepository as a repository.Repository interface, along with its
// transaction manager.
var Module = fx.Options(
	fx.Provide(
		OpenDB,
		fx.Annotate(
			NewGormRepository,
			fx.As(new(repository.Repository)),
		),
		fx.Annotate(
			NewGormTransactionManager,
			fx.As(new(tx.TransactionManager)),
		),
	),
)
