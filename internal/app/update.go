package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/operations"
)

func newUpdateCmd() *cobra.Command {
	var (
		name, nameEn, url, summary   string
		description, notes, homepage string
		category, tags               string
		archived, unarchived         bool
		addImages                    []string
		refetch                      bool
	)

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Edit an item's fields, append images or refetch its content",
		Long: `Update an item in place. Only the flags given are changed; pass an
empty string to clear description, notes or homepage. New images are
appended after the existing ones and become the thumbnail if the item
has none.

Examples:
  stashctl update octo-hello --summary "Says hello" --tags go,cli
  stashctl update octo-hello --add-images ~/shots/2.png
  stashctl update octo-hello --refetch-content
  stashctl update                 # pick the item interactively`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if archived && unarchived {
				return fmt.Errorf("--archived and --unarchived are mutually exclusive")
			}
			svc := newService()
			id, err := itemArg(cmd, svc, args, "Select item to update")
			if err != nil {
				return err
			}

			req := operations.UpdateRequest{AddImages: addImages, RefetchContent: refetch}
			f := cmd.Flags()
			strFlag := func(flag string, v *string) *string {
				if f.Changed(flag) {
					return v
				}
				return nil
			}
			req.Name = strFlag("name", &name)
			req.NameEn = strFlag("name-en", &nameEn)
			req.URL = strFlag("url", &url)
			req.Summary = strFlag("summary", &summary)
			req.Description = strFlag("description", &description)
			req.Notes = strFlag("notes", &notes)
			req.Homepage = strFlag("homepage", &homepage)
			req.Category = strFlag("category", &category)
			if f.Changed("tags") {
				list := catalog.SplitList(tags)
				req.Tags = &list
			}
			if archived || unarchived {
				req.Archived = &archived
			}

			if refetch {
				header("Refetching content for %s …", id)
			}
			it, err := svc.Update(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			ok("Updated %s", it.ID)
			if len(addImages) > 0 {
				printField("images", fmt.Sprintf("%d", len(it.Images)))
			}
			if it.Archived {
				printField("archived", "yes")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Display name")
	f.StringVar(&nameEn, "name-en", "", "English name")
	f.StringVar(&url, "url", "", "Source URL")
	f.StringVar(&summary, "summary", "", "One-line summary")
	f.StringVar(&description, "description", "", "Longer description")
	f.StringVar(&notes, "notes", "", "Personal notes")
	f.StringVar(&homepage, "homepage", "", "Project homepage")
	f.StringVar(&category, "category", "", "Category id")
	f.StringVar(&tags, "tags", "", "Comma-separated tags, replacing the current ones")
	f.BoolVar(&archived, "archived", false, "Mark the item archived")
	f.BoolVar(&unarchived, "unarchived", false, "Clear the archived mark")
	f.StringSliceVar(&addImages, "add-images", nil, "Image sources to append")
	f.BoolVar(&refetch, "refetch-content", false, "Replace the stored README or article body")
	return cmd
}
