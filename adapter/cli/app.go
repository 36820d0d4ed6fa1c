package cli

import (
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/reflow/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/reflow/pkg/config"
)

// App holds the CLI application dependencies.
type App struct {
	Config *config.Config

	// Command Handlers
	ExecuteReflowHandler *commands.ExecuteReflowHandler

	// Query Handlers
	GetRunHandler               *queries.GetRunHandler
	ListRunsHandler             *queries.ListRunsHandler
	ValidateDependenciesHandler *queries.ValidateDependenciesHandler
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(
	cfg *config.Config,
	executeReflowHandler *commands.ExecuteReflowHandler,
	getRunHandler *queries.GetRunHandler,
	listRunsHandler *queries.ListRunsHandler,
	validateDependenciesHandler *queries.ValidateDependenciesHandler,
) *App {
	return &App{
		Config:                      cfg,
		ExecuteReflowHandler:        executeReflowHandler,
		GetRunHandler:               getRunHandler,
		ListRunsHandler:             listRunsHandler,
		ValidateDependenciesHandler: validateDependenciesHandler,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
