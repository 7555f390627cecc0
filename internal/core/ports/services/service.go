package services

// ServiceContainer holds instances of all the application services.
// It is used by the HTTP handlers and the CLI commands.
type ServiceContainer struct {
	Fetcher     FetcherSvc
	Transformer TransformerSvc
	Loader      LoaderSvc
	Notifier    NotifierSvc
	Pipeline    PipelineSvcFacade
	Rates       RateQuerySvc
	Currency    CurrencySvc
	Auth        AuthSvc
}
