package inmemory

import (
	"go.uber.org/fx"

	repository "github.com/tigerroll/swell/pkg/orchestrator/core/domain/repository"
	"github.com/tigerroll/swell/pkg/orchestrator/core/tx"
)

// Module is an Fx module that provides InMemoryRepository as a
// repository.Repository interface, along with its serializing transaction
// manager.
var Module = fx.Options(
	fx.Provide(
		NewInMemoryRepository,
		fx.Annotate(
			func(r *InMemoryRepository) *InMemoryRepository { return r },
			fx.As(new(repository.Repository)),
		),
		fx.Annotate(
			NewInMemoryTransactionManager,
			fx.As(new(tx.TransactionManager)),
		),
	),
)
