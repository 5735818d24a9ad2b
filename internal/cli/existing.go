package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"incidentflow/internal/domain"
	"incidentflow/internal/workflow"
)

func newExistingCmd(app *App) *cobra.Command {
	var year, month string

	cmd := &cobra.Command{
		Use:   "existing",
		Short: "Run the date-scoped review pipeline over stored activities",
	}
	cmd.PersistentFlags().StringVar(&year, "year", "", "year to scope to (required)")
	cmd.PersistentFlags().StringVar(&month, "month", "", "month to scope to (optional)")

	controller := func() (*workflow.Controller, error) {
		if err := app.init(); err != nil {
			return nil, err
		}
		return workflow.ExistingReview(app.db, app.backend, app.batcher, app.runner, year, month), nil
	}

	addPipelineCommands(cmd, app, controller)
	cmd.AddCommand(newDupesCmd(app, controller))
	return cmd
}

func newDupesCmd(app *App, controller func() (*workflow.Controller, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "Reconcile AI-flagged duplicate groups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Fetch and show the duplicate-flagged subset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			if c.Step() != workflow.DuplicateReview {
				if err := c.OpenDuplicateReview(cmd.Context()); err != nil {
					return err
				}
			}
			printDuplicates(c.Duplicates())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "copy-ai",
		Short: "Copy every AI duplicate group into the manual field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			if err := c.CopyAllAIDuplicates(); err != nil {
				return err
			}
			fmt.Printf("copied groups across %d records\n", len(c.Duplicates()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Edit one field of one duplicate record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			return c.UpdateDuplicateField(args[0], args[1], args[2])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Push the duplicate subset to the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			outcomes, summary, err := c.SaveDuplicates(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				if !o.Success {
					fmt.Printf("%s FAILED: %v\n", o.IncidentNumber, o.Err)
				}
			}
			fmt.Println(summary.Message())
			app.notifier.Post("Duplicate save: " + summary.Message())
			return nil
		},
	})

	return cmd
}

func printDuplicates(records []domain.ActivityRecord) {
	if len(records) == 0 {
		fmt.Println("no duplicate-flagged records")
		return
	}
	for _, group := range domain.DuplicateGroups(records) {
		fmt.Printf("group [%s]\n", group.Key)
		for _, rec := range group.Members {
			fmt.Printf("  %-8s %-12s manual=%s ai=%s\n",
				rec.ID, rec.IncidentNumber, domain.StrVal(rec.Duplicate), domain.StrVal(rec.DuplicateAI))
		}
	}
}
