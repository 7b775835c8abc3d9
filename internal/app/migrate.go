package app

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/migrate"
)

func newMigrateCmd() *cobra.Command {
	var ledgerPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade a site written by an older version",
		Long: `Bring an older site up to the current layout:

  flatten-index   collections.json holding {items:[...]} or {itemIds:[...]}
                  becomes a plain id array; the original is kept as
                  collections.json.backup
  split-records   every item without a .full.json variant gets one, and
                  the light file loses originalContent

Both steps are safe to run again. Migrated ids are appended to a JSONL
ledger (default ~/.local/share/stashctl/migrated.jsonl).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ledgerPath == "" {
				ledgerPath = migrate.DefaultLedgerPath()
			}
			ledger, err := migrate.OpenLedger(ledgerPath)
			if err != nil {
				return fmt.Errorf("opening ledger: %w", err)
			}

			m := migrate.New(layout.OS(cfg.Site.Root), ledger, logger)
			reports, err := m.Run()
			for _, r := range reports {
				printReport(r)
			}
			if err != nil {
				return err
			}
			for _, r := range reports {
				if len(r.Failed) > 0 {
					return fmt.Errorf("%s: %d items failed", r.Step, len(r.Failed))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "Ledger file path")
	return cmd
}

func printReport(r *migrate.Report) {
	header("%s", r.Step)
	if !r.Changed() && len(r.Failed) == 0 {
		ok("Nothing to do")
		return
	}
	if r.Backup != "" {
		printField("backup", r.Backup)
	}
	ok("%d migrated, %d already current", len(r.Migrated), len(r.Skipped))
	for _, id := range r.Missing {
		warn("%s is indexed but has no record (run 'stashctl verify --fix')", id)
	}
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		failLine("%s: %v", id, r.Failed[id])
	}
}
