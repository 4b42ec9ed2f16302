package repository

// Repository is the interface for persisting and managing orchestration
// metadata. It embeds the per-aggregate repository interfaces to separate
// concerns while staying a single injectable unit.
type Repository interface {
	BatchRepository
	JobRepository

	// Close releases resources (such as database connections) used by the repository.
	Close() error
}
