package testsupport

import (
	"context"
	"testing"

	"realigner/internal/config"
	"realigner/internal/ledger"
)

// MustOpenLedger opens a ledger.Store for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Store {
	t.Helper()

	store, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// StartRun inserts a running ledger row for tests.
func StartRun(t testing.TB, store *ledger.Store, id string) {
	t.Helper()

	if err := store.StartRun(context.Background(), ledger.Run{ID: id, CSVPath: "realign.csv"}); err != nil {
		t.Fatalf("store.StartRun: %v", err)
	}
}
