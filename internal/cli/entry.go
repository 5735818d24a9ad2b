package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"incidentflow/internal/domain"
	"incidentflow/internal/workflow"
)

func newEntryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Edit and save the data-entry working set",
	}

	entry := func() (*workflow.Entry, error) {
		if err := app.init(); err != nil {
			return nil, err
		}
		return workflow.NewEntry(app.db, app.backend, app.batcher), nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Append a blank row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			pos := e.Add()
			if app.cfg.DefaultAssignedGroup != "" {
				if err := e.SetField(pos, "assignedGroup", app.cfg.DefaultAssignedGroup); err != nil {
					return err
				}
			}
			fmt.Printf("added row %d\n", pos)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <row> <field> <value>",
		Short: "Set one field of one row",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("row must be a number: %q", args[0])
			}
			value := strings.Join(args[2:], " ")
			if args[1] == "serviceOwner" && !ownerAllowed(app.cfg.ServiceOwners, value) {
				return fmt.Errorf("service owner %q is not configured (allowed: %s)",
					value, strings.Join(app.cfg.ServiceOwners, ", "))
			}
			return e.SetField(pos, args[1], value)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "del <row>",
		Short: "Delete a row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("row must be a number: %q", args[0])
			}
			return e.Delete(pos)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the working set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			printTickets(e.Records())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "load <incident-number>",
		Short: "Pull the stored rows for an incident into the working set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			n, err := e.LoadIncident(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("loaded %d rows for %s\n", n, args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop the working set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			e.Clear()
			fmt.Println("working set cleared")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Validate the working set and push it to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := entry()
			if err != nil {
				return err
			}
			outcomes, summary, err := e.Save(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				if o.Success {
					fmt.Printf("row %d %s %s -> id %s\n", o.Index+1, o.Method, o.IncidentNumber, o.ID)
				} else {
					fmt.Printf("row %d %s %s FAILED: %v\n", o.Index+1, o.Method, o.IncidentNumber, o.Err)
				}
			}
			fmt.Println(summary.Message())
			app.notifier.Post("Entry save: " + summary.Message())
			return nil
		},
	})

	return cmd
}

// ownerAllowed enforces the configured service-owner list. An empty list
// means the deployment accepts any owner.
func ownerAllowed(owners []string, value string) bool {
	if len(owners) == 0 {
		return true
	}
	for _, o := range owners {
		if o == value {
			return true
		}
	}
	return false
}

func printTickets(records []domain.TicketRecord) {
	if len(records) == 0 {
		fmt.Println("working set is empty")
		return
	}
	for i, rec := range records {
		fmt.Printf("%2d  %-12s %-10s %-12s %-4s %s\n",
			i+1, rec.IncidentNumber, rec.ServiceOwner, rec.AssignedGroup, rec.Priority, rec.OpenDate)
	}
}
