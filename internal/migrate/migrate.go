// Package migrate upgrades sites written by older versions of the catalog
// to the current layout: a flat id index and a light/full record pair per
// item.
package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/util"
	"github.com/sirupsen/logrus"

	"github.com/blackwell-systems/stashctl/internal/catalog"
	"github.com/blackwell-systems/stashctl/internal/errs"
	"github.com/blackwell-systems/stashctl/internal/layout"
	"github.com/blackwell-systems/stashctl/internal/logging"
	stashutil "github.com/blackwell-systems/stashctl/internal/util"
)

// Migration steps, in the order Run applies them.
const (
	StepFlattenIndex = "flatten-index"
	StepSplitRecords = "split-records"
)

// BackupSuffix is appended to the index file name before it is rewritten.
const BackupSuffix = ".backup"

// Report describes what one step did.
type Report struct {
	Step     string
	Migrated []string
	Skipped  []string
	Failed   map[string]error
	Missing  []string // indexed ids without a record
	Backup   string   // path of the saved original, if any
}

// Changed reports whether the step rewrote anything.
func (r *Report) Changed() bool { return len(r.Migrated) > 0 }

// Migrator applies migrations to one site.
type Migrator struct {
	layout *layout.Layout
	store  *catalog.Store
	index  *catalog.Index
	ledger *Ledger
	log    logrus.FieldLogger
}

// New creates a Migrator. ledger and log may be nil.
func New(l *layout.Layout, ledger *Ledger, log logrus.FieldLogger) *Migrator {
	if log == nil {
		log = logging.Discard()
	}
	return &Migrator{
		layout: l,
		store:  catalog.NewStore(l),
		index:  catalog.NewIndex(l),
		ledger: ledger,
		log:    log,
	}
}

// Run applies every step. It stops at the first step that fails outright;
// per-item failures are reported, not returned.
func (m *Migrator) Run() ([]*Report, error) {
	var reports []*Report
	for _, step := range []func() (*Report, error){m.FlattenIndex, m.SplitRecords} {
		r, err := step()
		if err != nil {
			return reports, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

// legacyIndex covers both older index shapes: the full item list and the
// id list wrapped in an object.
type legacyIndex struct {
	Items []struct {
		ID string `json:"id"`
	} `json:"items"`
	ItemIDs []string `json:"itemIds"`
}

// FlattenIndex rewrites an object-shaped collections.json as a plain id
// array, keeping the original next to it with BackupSuffix.
func (m *Migrator) FlattenIndex() (*Report, error) {
	r := &Report{Step: StepFlattenIndex, Failed: map[string]error{}}
	fs := m.layout.FS()
	name := m.layout.IndexFile()

	raw, err := util.ReadFile(fs, name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return r, nil
		}
		return nil, errs.IO("read index", name, err)
	}

	var flat []string
	if json.Unmarshal(raw, &flat) == nil {
		return r, nil
	}

	var legacy legacyIndex
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, errs.Invalid("parse index", fmt.Sprintf("%s: %v", name, err))
	}
	ids := legacy.ItemIDs
	if ids == nil {
		if legacy.Items == nil {
			return nil, errs.Invalid("parse index", name+": neither an id array nor an object with items or itemIds")
		}
		for _, it := range legacy.Items {
			if it.ID != "" {
				ids = append(ids, it.ID)
			}
		}
	}

	done := m.recorded(StepFlattenIndex)
	r.Backup = name + BackupSuffix
	if err := stashutil.WriteFileAtomic(fs, r.Backup, raw); err != nil {
		return nil, errs.IO("back up index", r.Backup, err)
	}
	if err := m.index.Replace(ids); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if !m.store.Exists(id) {
			r.Missing = append(r.Missing, id)
		}
		r.Migrated = append(r.Migrated, id)
		m.record(StepFlattenIndex, id, done)
	}
	m.log.WithFields(logrus.Fields{"ids": len(ids), "backup": r.Backup}).Info("flattened index")
	return r, nil
}

// SplitRecords gives every single-file record its full variant. Records
// that already have one are skipped. A record without originalContent gets
// an explicit null.
func (m *Migrator) SplitRecords() (*Report, error) {
	r := &Report{Step: StepSplitRecords, Failed: map[string]error{}}
	ids, err := m.store.IDs()
	if err != nil {
		return nil, err
	}
	done := m.recorded(StepSplitRecords)
	for _, id := range ids {
		if m.store.HasFull(id) {
			r.Skipped = append(r.Skipped, id)
			continue
		}
		if done[id] {
			m.log.WithField("item", id).Warn("full variant lost since it was split, rebuilding it from the light record")
		}
		// The old single file may still carry originalContent.
		it, err := m.store.Read(id, false)
		if err != nil {
			r.Failed[id] = err
			m.log.WithField("item", id).WithError(err).Warn("could not read record")
			continue
		}
		if err := m.store.Save(id, it); err != nil {
			r.Failed[id] = err
			m.log.WithField("item", id).WithError(err).Warn("could not write record pair")
			continue
		}
		r.Migrated = append(r.Migrated, id)
		m.record(StepSplitRecords, id, done)
	}
	m.log.WithFields(logrus.Fields{
		"migrated": len(r.Migrated),
		"skipped":  len(r.Skipped),
		"failed":   len(r.Failed),
	}).Info("split records")
	return r, nil
}

// recorded returns the ids the ledger already lists for step on this site.
// A nil map (no ledger, or an unreadable one) reads as empty.
func (m *Migrator) recorded(step string) map[string]bool {
	if m.ledger == nil {
		return nil
	}
	done, err := m.ledger.Recorded(step, m.layout.Root())
	if err != nil {
		m.log.WithError(err).Warn("could not read migration ledger")
		return nil
	}
	return done
}

// record appends id to the ledger unless it is already listed for step.
func (m *Migrator) record(step, id string, done map[string]bool) {
	if m.ledger == nil || done[id] {
		return
	}
	if err := m.ledger.Append(LedgerEntry{Step: step, Site: m.layout.Root(), ItemID: id}); err != nil {
		m.log.WithError(err).Warn("could not append to migration ledger")
	}
}
