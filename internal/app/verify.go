package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/operations"
)

func newVerifyCmd() *cobra.Command {
	var fix bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the index against the item records and images",
		Long: `Check that collections.json and the record pairs in data/items agree:
ids indexed without a record, records missing from the index, duplicate
index entries, records missing their light or full variant, and
thumbnails or images whose files are gone.
Use --fix to repair what can be repaired.

Examples:
  stashctl verify
  stashctl verify --fix`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			header("Verifying %s", cfg.Site.Root)
			issues, err := newService().Verify(fix)
			for _, is := range issues {
				printIssue(is)
			}
			if err != nil {
				return err
			}

			fmt.Println()
			switch {
			case len(issues) == 0:
				ok("No issues found")
			case fix:
				ok("Repaired %d issues", len(issues))
			default:
				warn("%d issues found. Run with --fix to repair.", len(issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fix, "fix", false, "Automatically fix issues")
	return cmd
}

func printIssue(is operations.Issue) {
	mark := color.YellowString("!")
	if is.Fixed {
		mark = color.GreenString("fixed")
	}
	fmt.Printf("  %s %-20s %-32s %s\n", mark, is.Kind, is.ID, color.HiBlackString(is.Detail))
}
