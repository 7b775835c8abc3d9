package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/operations"
)

func newAddCmd() *cobra.Command {
	var (
		req     operations.AddRequest
		kind    string
		tags    string
		images  []string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Add a GitHub repository or an article",
		Long: `Add an item to the catalog. GitHub repository URLs are looked up
through the API (falling back to the repository page when the quota is
exhausted); other URLs are read as articles.

Flags override the fetched metadata. Images may be local paths, http(s)
URLs or github:owner/repo@ref:path references. The first image also
becomes the thumbnail.

Examples:
  stashctl add https://github.com/charmbracelet/bubbletea --category tools
  stashctl add https://example.com/post --tags go,testing --images shot.png
  stashctl add https://github.com/o/r --offline --name "R"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.URL = strings.TrimSpace(args[0])
			req.Type = catalog.Kind(kind)
			if req.Type != "" && !req.Type.Valid() {
				return fmt.Errorf("--type must be repo or article, got %q", kind)
			}
			if cmd.Flags().Changed("tags") {
				req.Tags = catalog.SplitList(tags)
			}
			req.Images = images
			req.SkipMetadata = offline
			if offline && !cmd.Flags().Changed("fetch-content") {
				req.FetchContent = false
			}

			svc := newService()
			if !offline {
				header("Fetching metadata for %s …", req.URL)
			}
			it, err := svc.Add(cmd.Context(), req)
			if err != nil {
				return err
			}

			ok("Added %s", it.ID)
			printField("name", it.Name)
			printField("type", string(it.Type))
			if it.Category != "" {
				printField("category", it.Category)
			}
			if len(it.Tags) > 0 {
				printField("tags", strings.Join(it.Tags, ", "))
			}
			if it.GitHub != nil {
				printField("stars", fmt.Sprintf("%d", it.GitHub.Stars))
			}
			if len(it.Images) > 0 {
				printField("images", fmt.Sprintf("%d", len(it.Images)))
			}
			if it.OriginalContent != nil {
				printField("content", humanBytes(int64(len(*it.OriginalContent))))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.ID, "id", "", "Item id (default: derived from the URL or name)")
	f.StringVar(&kind, "type", "", "repo or article (default: detected from the URL)")
	f.StringVar(&req.Name, "name", "", "Display name")
	f.StringVar(&req.NameEn, "name-en", "", "English name (default: name)")
	f.StringVar(&req.Summary, "summary", "", "One-line summary")
	f.StringVar(&req.Description, "description", "", "Longer description")
	f.StringVar(&req.Notes, "notes", "", "Personal notes")
	f.StringVar(&req.Homepage, "homepage", "", "Project homepage")
	f.StringVar(&req.Category, "category", "", "Category id")
	f.StringVar(&tags, "tags", "", "Comma-separated tags (default: repository topics)")
	f.StringSliceVar(&images, "images", nil, "Image sources, repeatable or comma-separated")
	f.BoolVar(&req.FetchContent, "fetch-content", true, "Store the README or article body")
	f.BoolVar(&offline, "offline", false, "Use the flags only, no metadata or content lookup")
	return cmd
}

func printField(label, value string) {
	fmt.Printf("  %-12s %s\n", colorLabel(label+":"), value)
}

// humanBytes formats n bytes.
func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
