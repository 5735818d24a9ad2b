// Package cli is the command surface. Commands stay thin: parse arguments,
// call into the workflow/dashboard packages, print. No business rules live
// here.
package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"incidentflow/internal/backend"
	"incidentflow/internal/config"
	"incidentflow/internal/enrich"
	"incidentflow/internal/httpx"
	"incidentflow/internal/notify"
	"incidentflow/internal/storage/sqlite"
	syncer "incidentflow/internal/sync"
)

// App holds the wired dependencies, built lazily so help and completion
// never require a config file.
type App struct {
	cfg      config.Config
	db       *sql.DB
	backend  *backend.Client
	batcher  *syncer.Batcher
	runner   *enrich.Runner
	notifier *notify.Notifier
	ready    bool
}

func (a *App) init() error {
	if a.ready {
		return nil
	}
	a.cfg = config.LoadConfig()
	httpx.Configure(a.cfg.BackendTimeoutSeconds)

	db, err := sqlite.Open(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", a.cfg.DBPath, err)
	}
	a.db = db
	a.backend = backend.NewClient(a.cfg.BackendURL, httpx.Client())
	a.batcher = syncer.New(a.backend)
	a.runner = enrich.NewRunner(a.backend)
	a.notifier = notify.NewFromConfig(a.cfg)
	a.ready = true
	return nil
}

func (a *App) localEnricher() (*enrich.LocalEnricher, error) {
	if !a.cfg.AnthropicConfigured() {
		return nil, fmt.Errorf("local enrichment requires anthropic_api_key in config")
	}
	return enrich.NewLocalEnricher(a.cfg.AnthropicAPIKey, a.cfg.AnthropicModel), nil
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "incidentflow",
		Short:        "Incident ticket entry, review, and dashboard client",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		newEntryCmd(app),
		newReviewCmd(app),
		newExistingCmd(app),
		newDashboardCmd(app),
		newWatchCmd(app),
	)
	return cmd
}
