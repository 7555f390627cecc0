package repositories

// RepositoryProvider holds the storage dependencies needed by services.
type RepositoryProvider struct {
	RateRepo    RateRepositoryFacade
	ObjectStore ObjectStore
}
