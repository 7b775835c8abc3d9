package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/catalog"
)

func newListCmd() *cobra.Command {
	var (
		f        catalog.Filter
		kind     string
		archived string
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items in index order",
		Long: `List catalog items, most recently added first.

Examples:
  stashctl list
  stashctl list --tag go --type repo
  stashctl list --search scraper --archived=false
  stashctl list --json | jq '.[].id'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.Kind = catalog.Kind(kind)
			switch archived {
			case "":
			case "true", "yes":
				v := true
				f.Archived = &v
			case "false", "no":
				v := false
				f.Archived = &v
			default:
				return fmt.Errorf("--archived must be true or false, got %q", archived)
			}

			items, err := newService().List(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				lights := make([]any, len(items))
				for i := range items {
					lights[i] = items[i].Light()
				}
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(lights)
			}

			if len(items) == 0 {
				fmt.Fprintln(out, "No items found.")
				return nil
			}
			for _, it := range items {
				name := it.Name
				if it.Archived {
					name = color.HiBlackString(name + " (archived)")
				}
				tagStr := ""
				if len(it.Tags) > 0 {
					tagStr = " " + color.CyanString("["+strings.Join(it.Tags, ",")+"]")
				}
				stars := ""
				if it.GitHub != nil {
					stars = color.YellowString(" ★%d", it.GitHub.Stars)
				}
				fmt.Fprintf(out, "  %-32s  %s%s%s\n", color.WhiteString(it.ID), name, stars, tagStr)
			}
			fmt.Fprintf(out, "\n%d item(s)\n", len(items))
			return nil
		},
	}

	cmd.Flags().StringVar(&f.Tag, "tag", "", "Only items with this tag")
	cmd.Flags().StringVar(&f.Category, "category", "", "Only items in this category")
	cmd.Flags().StringVar(&kind, "type", "", "Only repo or article items")
	cmd.Flags().StringVar(&f.Search, "search", "", "Match id, names, summary or tags")
	cmd.Flags().StringVar(&archived, "archived", "", "true or false to filter on the archived mark")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print light records as JSON")
	return cmd
}

func newShowCmd() *cobra.Command {
	var (
		full    bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show one item",
		Long: `Show an item's fields. --json prints the record as stored; with
--full the full variant including originalContent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService()
			id, err := itemArg(cmd, svc, args, "Select item")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				data, err := svc.Store().ReadRaw(id, full)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}

			it, err := svc.Get(id, full)
			if err != nil {
				return err
			}
			header("%s: %s", it.Type, it.ID)
			printField("name", it.Name)
			if it.NameEn != "" && it.NameEn != it.Name {
				printField("nameEn", it.NameEn)
			}
			printField("url", it.URL)
			if it.Homepage != nil {
				printField("homepage", *it.Homepage)
			}
			printField("summary", it.Summary)
			if it.Description != nil {
				printField("description", *it.Description)
			}
			if it.Notes != nil {
				printField("notes", *it.Notes)
			}
			printField("category", it.Category)
			if len(it.Tags) > 0 {
				printField("tags", strings.Join(it.Tags, ", "))
			}
			if gh := it.GitHub; gh != nil {
				printField("stars", fmt.Sprintf("%d (forks %d)", gh.Stars, gh.Forks))
				if gh.Language != nil {
					printField("language", *gh.Language)
				}
				if gh.License != nil {
					printField("license", *gh.License)
				}
				printField("lastUpdate", gh.LastUpdate)
			}
			for i, img := range it.Images {
				printField(fmt.Sprintf("image %d", i+1), img)
			}
			if it.Thumbnail != nil {
				printField("thumbnail", *it.Thumbnail)
			}
			if it.Archived {
				printField("archived", color.YellowString("yes"))
			}
			printField("created", it.CreatedAt)
			printField("updated", it.UpdatedAt)
			if full {
				size := "none"
				if it.OriginalContent != nil {
					size = humanBytes(int64(len(*it.OriginalContent)))
				}
				printField("content", size)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Read the full variant")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the stored JSON")
	return cmd
}
