package app

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newTagsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List registered tags with usage counts",
		Long: `List the tags from categories.json and how many items carry each one.
Tags used by items but missing from the registry are listed too.

Examples:
  stashctl tags
  stashctl tags --json
  stashctl tags rename golang go`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := newService().Tags()
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tags)
			}
			for _, t := range tags {
				count := fmt.Sprintf("%4d", t.Count)
				if t.Count == 0 {
					count = color.HiBlackString(count)
				}
				name := ""
				if t.Name != t.ID {
					name = color.HiBlackString(t.Name)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %s\n", count, colorLabel(t.ID), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	cmd.AddCommand(newTagsRenameCmd())
	return cmd
}

func newTagsRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a tag on every item and in the registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := newService().RenameTag(args[0], args[1])
			if err != nil {
				return err
			}
			ok("Renamed %s to %s on %d items", args[0], args[1], n)
			return nil
		},
	}
}
