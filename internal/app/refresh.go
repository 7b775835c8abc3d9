package app

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/operations"
	"github.com/blackwell-systems/stashctl/internal/tui"
)

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh stars, forks and other statistics of every repository",
		Long: `Re-read the GitHub statistics of every repository item and merge them
into its record. Repositories are queried one at a time with a short
pause in between. The run refuses to start when fewer than
refresh.min_remaining API requests are left; set GITHUB_TOKEN to raise
the limit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService()
			if tui.ShouldUseTUI(cmd) {
				return refreshWithProgress(cmd.Context(), svc)
			}

			sum, err := svc.BatchRefresh(cmd.Context(), printEvent)
			if err != nil {
				return err
			}
			return refreshResult(sum)
		},
	}
	return cmd
}

func printEvent(e operations.Event) {
	switch e.Type {
	case operations.EventStart:
		header("Refreshing %d repositories …", e.Total)
	case operations.EventProgress:
		prefix := fmt.Sprintf("[%d/%d]", e.Current, e.Total)
		if e.Success != nil && *e.Success {
			fmt.Printf("%s %s %s %s\n", color.GreenString("✓"), prefix, e.Name,
				color.YellowString("★%d", e.Stars))
		} else {
			failLine("%s %s: %s", prefix, e.Name, e.Message)
		}
	}
}

// refreshWithProgress runs the batch behind the progress bar. Closing the
// bar with ctrl+c cancels the batch.
func refreshWithProgress(ctx context.Context, svc *operations.Service) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	steps := make(chan tui.Step, 16)
	type result struct {
		sum operations.RefreshSummary
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer close(steps)
		sum, err := svc.BatchRefresh(ctx, func(e operations.Event) {
			if e.Type != operations.EventProgress {
				return
			}
			label := e.Name
			failed := e.Success == nil || !*e.Success
			if failed {
				label += ": " + e.Message
			}
			select {
			case steps <- tui.Step{Current: e.Current, Total: e.Total, Label: label, Failed: failed}:
			case <-ctx.Done():
			}
		})
		done <- result{sum, err}
	}()

	if err := tui.ShowProgress("Refreshing repository statistics", steps); err != nil {
		cancel()
		<-done
		return err
	}
	r := <-done
	if r.err != nil {
		return r.err
	}
	return refreshResult(r.sum)
}

func refreshResult(sum operations.RefreshSummary) error {
	fmt.Println()
	if sum.Failed == 0 {
		ok("Refreshed %d repositories", sum.Updated)
		return nil
	}
	warn("Refreshed %d of %d repositories, %d failed", sum.Updated, sum.Total, sum.Failed)
	return nil
}
