package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"incidentflow/internal/domain"
	"incidentflow/internal/workflow"
)

func newReviewCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Run the new-data review pipeline",
	}

	controller := func() (*workflow.Controller, error) {
		if err := app.init(); err != nil {
			return nil, err
		}
		return workflow.NewReview(app.db, app.backend, app.batcher, app.runner), nil
	}

	addPipelineCommands(cmd, app, controller)
	return cmd
}

// addPipelineCommands attaches the step commands shared by both review
// variants.
func addPipelineCommands(cmd *cobra.Command, app *App, controller func() (*workflow.Controller, error)) {
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current step and working set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			printStatus(c)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "load",
		Short: "Fetch the working set from the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			if err := c.LoadData(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("loaded %d records\n", len(c.Records()))
			return nil
		},
	})

	var local bool
	process := &cobra.Command{
		Use:   "process",
		Short: "Run the AI enrichment pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			if local {
				return processLocal(cmd.Context(), app, c)
			}
			results, err := c.Enrich(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range results {
				if s.Err != nil {
					fmt.Printf("step %-12s FAILED: %v\n", s.Name, s.Err)
				} else {
					fmt.Printf("step %-12s ok\n", s.Name)
				}
			}
			fmt.Printf("enrichment done: %d/%d steps completed\n", results.Completed(), len(results))
			return nil
		},
	}
	process.Flags().BoolVar(&local, "local", false, "enrich locally via the Anthropic API instead of the server pipeline")
	cmd.AddCommand(process)

	cmd.AddCommand(&cobra.Command{
		Use:   "copy",
		Short: "Promote AI suggestions into the manual fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			if err := c.CopyAIFields(); err != nil {
				return err
			}
			fmt.Printf("copied suggestions across %d records\n", len(c.Records()))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <id> <field> <value>",
		Short: "Edit one field of one record",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			return c.UpdateField(args[0], args[1], args[2])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "complete",
		Short: "Save the working set and finish the pipeline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			outcomes, summary, err := c.Complete(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				if !o.Success {
					fmt.Printf("%s FAILED: %v\n", o.IncidentNumber, o.Err)
				}
			}
			fmt.Println(summary.Message())
			app.notifier.Post("Review save: " + summary.Message())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Abandon the pipeline and its checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := controller()
			if err != nil {
				return err
			}
			c.Clear()
			fmt.Println("pipeline reset")
			return nil
		},
	})
}

func processLocal(ctx context.Context, app *App, c *workflow.Controller) error {
	enricher, err := app.localEnricher()
	if err != nil {
		return err
	}
	if err := c.EnrichLocal(ctx, enricher); err != nil {
		return err
	}
	fmt.Printf("locally enriched %d records\n", len(c.Records()))
	return nil
}

func printStatus(c *workflow.Controller) {
	fmt.Printf("step: %s\nrecords: %d\n", c.Step(), len(c.Records()))
	for _, s := range c.AIResults() {
		if s.Error != "" {
			fmt.Printf("last enrichment %-12s FAILED: %s\n", s.Name, s.Error)
		} else {
			fmt.Printf("last enrichment %-12s ok\n", s.Name)
		}
	}
	for _, rec := range c.Records() {
		fmt.Printf("  %-8s %-12s %-4s ai=%s\n",
			rec.ID, rec.IncidentNumber, rec.Priority, domain.StrVal(rec.SummaryIssueAI))
	}
}
