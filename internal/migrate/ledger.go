package migrate

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LedgerEntry records one migrated item.
type LedgerEntry struct {
	Step      string    `json:"step"`   // migration that touched the item
	Site      string    `json:"site"`   // site root
	ItemID    string    `json:"itemId"` // catalog id
	Timestamp time.Time `json:"timestamp"`
}

// Ledger is a JSONL append-only migration log.
type Ledger struct {
	path string
}

// DefaultLedgerPath returns the default path for the migration ledger.
func DefaultLedgerPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "stashctl", "migrated.jsonl")
}

// OpenLedger opens (or creates) the ledger at path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}
	return &Ledger{path: path}, nil
}

// Append adds an entry to the ledger.
func (l *Ledger) Append(e LedgerEntry) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	e.Timestamp = time.Now().UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(data))
	return err
}

// Recorded returns the ids step has already been recorded for on site.
func (l *Ledger) Recorded(step, site string) (map[string]bool, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	done := map[string]bool{}
	for _, e := range entries {
		if e.Step == step && e.Site == site {
			done[e.ItemID] = true
		}
	}
	return done, nil
}

// Entries returns all ledger entries. Malformed lines are skipped.
func (l *Ledger) Entries() ([]LedgerEntry, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []LedgerEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e LedgerEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, sc.Err()
}
