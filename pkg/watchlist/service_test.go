package watchlist_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"stockwatch/models"
	"stockwatch/pkg/apperr"
	"stockwatch/pkg/store/memory"
	"stockwatch/pkg/watchlist"
)

func newService(t *testing.T) (*watchlist.Service, *memory.DB, uint, uint) {
	t.Helper()
	db := memory.New()
	ctx := context.Background()
	alice := &models.User{Username: "alice", HashedPassword: []byte("x")}
	bob := &models.User{Username: "bob", HashedPassword: []byte("x")}
	if err := db.CreateUser(ctx, alice); err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if err := db.CreateUser(ctx, bob); err != nil {
		t.Fatalf("create bob: %v", err)
	}
	return watchlist.NewService(db), db, alice.ID, bob.ID
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.Is(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}

func TestCreateUniquePerUser(t *testing.T) {
	svc, _, alice, bob := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, alice, "Tech"); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, alice, "  Tech ")
	wantKind(t, err, apperr.KindConflict)

	if _, err := svc.Create(ctx, bob, "Tech"); err != nil {
		t.Fatalf("same name for another user should succeed: %v", err)
	}
}

func TestCreateValidatesName(t *testing.T) {
	svc, _, alice, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, alice, "   ")
	wantKind(t, err, apperr.KindInvalidArgument)
	_, err = svc.Create(ctx, alice, strings.Repeat("a", models.MaxWatchlistNameLen+1))
	wantKind(t, err, apperr.KindInvalidArgument)
}

func TestRename(t *testing.T) {
	svc, _, alice, bob := newService(t)
	ctx := context.Background()

	tech, _ := svc.Create(ctx, alice, "Tech")
	if _, err := svc.Create(ctx, alice, "Energy"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Rename(ctx, alice, tech.ID, "Tech"); err != nil {
		t.Fatalf("rename to own name should succeed: %v", err)
	}
	_, err := svc.Rename(ctx, alice, tech.ID, "Energy")
	wantKind(t, err, apperr.KindConflict)

	_, err = svc.Rename(ctx, bob, tech.ID, "Mine")
	wantKind(t, err, apperr.KindNotFound)

	got, err := svc.Rename(ctx, alice, tech.ID, "Semis")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if got.Name != "Semis" {
		t.Fatalf("name = %q", got.Name)
	}
}

func TestItems(t *testing.T) {
	svc, _, alice, _ := newService(t)
	ctx := context.Background()
	w, _ := svc.Create(ctx, alice, "Tech")

	item, err := svc.AddItem(ctx, alice, w.ID, " aapl ", "Apple")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Ticker != "AAPL" {
		t.Fatalf("ticker not normalized: %q", item.Ticker)
	}
	_, err = svc.AddItem(ctx, alice, w.ID, "AAPL", "")
	wantKind(t, err, apperr.KindConflict)

	_, err = svc.AddItem(ctx, alice, w.ID, "", "")
	wantKind(t, err, apperr.KindInvalidArgument)
	_, err = svc.AddItem(ctx, alice, w.ID, "ABCDEFGHIJK", "")
	wantKind(t, err, apperr.KindInvalidArgument)

	if _, err := svc.AddItem(ctx, alice, w.ID, "msft", ""); err != nil {
		t.Fatalf("add msft: %v", err)
	}
	got, err := svc.Get(ctx, alice, w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].Ticker != "AAPL" || got.Items[1].Ticker != "MSFT" {
		t.Fatalf("unexpected items: %+v", got.Items)
	}

	if err := svc.RemoveItem(ctx, alice, w.ID, "aapl"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	wantKind(t, svc.RemoveItem(ctx, alice, w.ID, "AAPL"), apperr.KindNotFound)
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	svc, _, alice, bob := newService(t)
	ctx := context.Background()
	w, _ := svc.Create(ctx, alice, "Tech")

	_, err := svc.Get(ctx, bob, w.ID)
	wantKind(t, err, apperr.KindNotFound)
	_, err = svc.AddItem(ctx, bob, w.ID, "AAPL", "")
	wantKind(t, err, apperr.KindNotFound)
	wantKind(t, svc.RemoveItem(ctx, bob, w.ID, "AAPL"), apperr.KindNotFound)
	wantKind(t, svc.Delete(ctx, bob, w.ID), apperr.KindNotFound)

	lists, err := svc.List(ctx, bob)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 0 {
		t.Fatalf("bob should see no watchlists, got %d", len(lists))
	}
}

func TestDeleteCascadesItems(t *testing.T) {
	svc, db, alice, _ := newService(t)
	ctx := context.Background()
	w, _ := svc.Create(ctx, alice, "Tech")
	for _, tk := range []string{"AAPL", "MSFT", "NVDA"} {
		if _, err := svc.AddItem(ctx, alice, w.ID, tk, ""); err != nil {
			t.Fatalf("add %s: %v", tk, err)
		}
	}
	if err := svc.Delete(ctx, alice, w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := db.CountItems(w.ID); n != 0 {
		t.Fatalf("expected no orphan items, found %d", n)
	}
	_, err := svc.Get(ctx, alice, w.ID)
	wantKind(t, err, apperr.KindNotFound)
}

func TestListOrderedByID(t *testing.T) {
	svc, _, alice, _ := newService(t)
	ctx := context.Background()
	for _, n := range []string{"b", "a", "c"} {
		if _, err := svc.Create(ctx, alice, n); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}
	lists, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 3 || lists[0].Name != "b" || lists[2].Name != "c" {
		t.Fatalf("unexpected order: %+v", lists)
	}
	for _, l := range lists {
		if l.Items == nil {
			t.Fatalf("items should be an empty slice, not nil")
		}
	}
}

func TestConcurrentCreateSameName(t *testing.T) {
	svc, db, alice, _ := newService(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Create(ctx, alice, "Tech")
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Fatalf("successes=%d conflicts=%d", ok, conflicts)
	}
	lists, err := db.Watchlists(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("stored %d watchlists, want 1", len(lists))
	}
}

// staleNameCheck answers every name lookup with "free", as a check that lost a race would.
type staleNameCheck struct {
	*memory.DB
}

func (staleNameCheck) WatchlistNameTaken(context.Context, uint, string, uint) (bool, error) {
	return false, nil
}

func TestWriteConflictAfterStaleCheck(t *testing.T) {
	_, db, alice, _ := newService(t)
	ctx := context.Background()
	svc := watchlist.NewService(staleNameCheck{db})

	tech, err := svc.Create(ctx, alice, "Tech")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Create(ctx, alice, "Tech")
	wantKind(t, err, apperr.KindConflict)

	other, err := svc.Create(ctx, alice, "Energy")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Rename(ctx, alice, other.ID, "Tech")
	wantKind(t, err, apperr.KindConflict)

	lists, err := db.Watchlists(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("stored %d watchlists, want 2", len(lists))
	}
	for _, w := range lists {
		if w.ID != tech.ID && w.Name != "Energy" {
			t.Fatalf("rename was applied: %+v", w)
		}
	}
}
