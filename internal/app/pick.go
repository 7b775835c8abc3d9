package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/operations"
	"github.com/blackwell-systems/stashctl/internal/tui"
)

// itemArg returns args[0], or opens the item picker on a terminal.
func itemArg(cmd *cobra.Command, svc *operations.Service, args []string, title string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if !tui.ShouldUseTUI(cmd) {
		return "", fmt.Errorf("item id required in non-interactive mode")
	}
	items, err := svc.Items()
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no items in %s", cfg.Site.Root)
	}
	selected, err := tui.RunItemPicker(items, title)
	if err != nil {
		return "", err
	}
	return selected.ID, nil
}
