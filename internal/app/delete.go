package app

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/tui"
)

func newDeleteCmd() *cobra.Command {
	var skipConfirm bool

	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Remove an item, its images and its index entry",
		Long: `Remove an item from the catalog by deleting both record files, its
image directory and every index entry for it.

This action is DESTRUCTIVE and cannot be easily undone.

Examples:
  # Interactive item picker
  stashctl delete

  # Delete a specific item
  stashctl delete octo-hello

  # Skip confirmation prompt
  stashctl delete octo-hello --yes`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService()
			id, err := itemArg(cmd, svc, args, "Select item to delete")
			if err != nil {
				return err
			}
			it, err := svc.Get(id, false)
			switch {
			case errs.IsNotFound(err) && skipConfirm:
				warn("%s has no record, removing any leftovers", id)
			case err != nil:
				return err
			case !skipConfirm:
				if !tui.ShouldUseTUI(cmd) {
					return fmt.Errorf("refusing to delete without confirmation, pass --yes")
				}
				fmt.Println()
				fmt.Println(color.YellowString("⚠ Warning: You are about to delete an item"))
				fmt.Println()
				fmt.Printf("Item ID:    %s\n", color.WhiteString(it.ID))
				fmt.Printf("Name:       %s\n", color.WhiteString(it.Name))
				fmt.Printf("URL:        %s\n", it.URL)
				fmt.Printf("Images:     %d\n", len(it.Images))
				fmt.Println()
				fmt.Print("Type the item ID to confirm deletion: ")
				var confirmation string
				_, _ = fmt.Scanln(&confirmation)
				if confirmation != id {
					return fmt.Errorf("confirmation did not match - aborted")
				}
			}

			if err := svc.Delete(id); err != nil {
				return err
			}
			ok("Deleted %s", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}
