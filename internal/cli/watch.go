package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"incidentflow/internal/dashboard"
	"incidentflow/internal/scheduler"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the dashboard snapshot scheduler in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}
			fallback := dashboard.Filter{Year: strconv.Itoa(time.Now().Year())}
			started := scheduler.Start(
				app.cfg.DashboardRefreshSchedule,
				app.db,
				dashboard.New(app.backend),
				app.cfg.ExportDir,
				app.notifier,
				fallback,
			)
			if !started {
				return fmt.Errorf("dashboard_refresh_schedule is not configured")
			}
			<-cmd.Context().Done()
			return nil
		},
	}
}
