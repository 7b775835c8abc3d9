package migrate

import (
	"strings"
	"testing"
)

func TestDefaultLedgerPath(t *testing.T) {
	p := DefaultLedgerPath()
	if p == "" {
		t.Fatal("DefaultLedgerPath returned empty string")
	}
	if !strings.HasSuffix(p, "stashctl/migrated.jsonl") {
		t.Errorf("DefaultLedgerPath = %q, should end with stashctl/migrated.jsonl", p)
	}
}
