package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"incidentflow/internal/dashboard"
)

func newDashboardCmd(app *App) *cobra.Command {
	var year, month, owner string
	var export bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Fetch and print the metrics board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.init(); err != nil {
				return err
			}

			fallback := dashboard.Filter{Year: strconv.Itoa(time.Now().Year())}
			filter := dashboard.LoadFilter(app.db, fallback)
			if year != "" {
				filter = dashboard.Filter{Year: year, Month: month, ServiceOwner: owner}
			} else if month != "" || owner != "" {
				filter.Month = month
				filter.ServiceOwner = owner
			}
			dashboard.SaveFilter(app.db, filter)

			agg := dashboard.New(app.backend).Fetch(cmd.Context(), filter)
			fmt.Print(dashboard.Render(agg))

			if export {
				path, err := dashboard.WriteSnapshot(app.db, app.cfg.ExportDir, agg, time.Now())
				if err != nil {
					return err
				}
				fmt.Printf("\nsnapshot written to %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&year, "year", "", "year to aggregate (defaults to the saved selection)")
	cmd.Flags().StringVar(&month, "month", "", "month to aggregate (omit for yearly granularity)")
	cmd.Flags().StringVar(&owner, "owner", "", "filter by service owner")
	cmd.Flags().BoolVar(&export, "export", false, "also write a snapshot file to the export dir")
	return cmd
}
