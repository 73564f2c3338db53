package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hitoshi/layershowcase/internal/config"
	"github.com/hitoshi/layershowcase/internal/gateway"
	"github.com/hitoshi/layershowcase/internal/model"
)

func newTestRegistry(t *testing.T) (*Registry, *gateway.MemoryGateway) {
	t.Helper()
	gw := gateway.NewMemoryGateway()
	return New(gw), gw
}

// --- 依存グラフ ---

func TestNew_SharesInjectedGateway(t *testing.T) {
	r, gw := newTestRegistry(t)

	if r.Gateway() != gw {
		t.Error("Gateway() must return the injected gateway")
	}
	if r.Repository() == nil || r.Service() == nil || r.Facade() == nil {
		t.Fatal("all layers must be constructed")
	}

	// Facade経由の書き込みが、同じハンドルのRepositoryとGatewayから見えること
	ctx := context.Background()
	out, err := r.Facade().CreateUser(ctx, map[string]any{"name": "Shared"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	u, err := r.Repository().FindByID(ctx, out.ID)
	if err != nil || u == nil {
		t.Fatalf("Repository().FindByID = %v, %v", u, err)
	}
	if gw.Len() != 1 {
		t.Errorf("gateway Len = %d, want 1", gw.Len())
	}
}

func TestNew_HandlesAreIsolated(t *testing.T) {
	a, _ := newTestRegistry(t)
	b, gwB := newTestRegistry(t)

	if _, err := a.Facade().CreateUser(context.Background(), map[string]any{"name": "OnlyInA"}); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if gwB.Len() != 0 {
		t.Errorf("second handle sees %d records, want 0", gwB.Len())
	}
	users, err := b.Facade().GetAllUsers(context.Background())
	if err != nil {
		t.Fatalf("GetAllUsers returned error: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("second handle lists %d users, want 0", len(users))
	}
}

func TestOpen_Memory(t *testing.T) {
	r, err := Open(context.Background(), &config.Config{StorageDriver: config.DriverMemory})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer r.Close()

	if _, ok := r.Gateway().(*gateway.MemoryGateway); !ok {
		t.Errorf("gateway type = %T, want *gateway.MemoryGateway", r.Gateway())
	}
}

func TestOpen_SQLiteInMemory(t *testing.T) {
	r, err := Open(context.Background(), &config.Config{StorageDriver: config.DriverSQLite, SQLitePath: ":memory:"})
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer r.Close()

	ctx := context.Background()
	out, err := r.Facade().CreateUser(ctx, map[string]any{"name": "Persisted"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	got, err := r.Facade().GetUserByID(ctx, out.ID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if got != out {
		t.Errorf("round trip = %+v, want %+v", got, out)
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StorageDriver: "mongodb"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "mongodb") {
		t.Errorf("error should mention the driver, got: %v", err)
	}
}

func TestClose_MemoryIsNoop(t *testing.T) {
	r, _ := newTestRegistry(t)
	if err := r.Close(); err != nil {
		t.Errorf("Close returned error: %v", err)
	}
}

// --- Holder ---

func TestHolder_GetReturnsSameInstance(t *testing.T) {
	h := NewHolder(memoryFactory)

	a, err := h.Get()
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	b, err := h.Get()
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if a != b {
		t.Error("Get must return the same instance until Reset")
	}
}

func TestHolder_ResetRecreates(t *testing.T) {
	h := NewHolder(memoryFactory)

	a, _ := h.Get()
	if _, err := a.Facade().CreateUser(context.Background(), map[string]any{"name": "Old"}); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if err := h.Reset(); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	b, _ := h.Get()
	if a == b {
		t.Fatal("Get after Reset must return a new instance")
	}

	users, err := b.Facade().GetAllUsers(context.Background())
	if err != nil {
		t.Fatalf("GetAllUsers returned error: %v", err)
	}
	if len(users) != 0 {
		t.Errorf("new instance has %d users, want 0", len(users))
	}
}

func TestHolder_ResetWithoutInstance(t *testing.T) {
	h := NewHolder(memoryFactory)
	if err := h.Reset(); err != nil {
		t.Errorf("Reset returned error: %v", err)
	}
}

func TestHolder_ConcurrentGetConstructsOnce(t *testing.T) {
	var built int32
	h := NewHolder(func() (*Registry, error) {
		atomic.AddInt32(&built, 1)
		return New(gateway.NewMemoryGateway()), nil
	})

	const n = 32
	results := make([]*Registry, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := h.Get()
			if err != nil {
				t.Errorf("Get returned error: %v", err)
				return
			}
			results[i] = r
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&built); got != 1 {
		t.Errorf("factory called %d times, want 1", got)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different instance", i)
		}
	}
}

func TestHolder_FailedConstructionNotCached(t *testing.T) {
	calls := 0
	h := NewHolder(func() (*Registry, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("boom")
		}
		return New(gateway.NewMemoryGateway()), nil
	})

	if _, err := h.Get(); err == nil {
		t.Fatal("expected first Get to fail")
	}
	r, err := h.Get()
	if err != nil {
		t.Fatalf("second Get returned error: %v", err)
	}
	if r == nil {
		t.Fatal("expected registry on second Get")
	}
	if calls != 2 {
		t.Errorf("factory called %d times, want 2", calls)
	}
}

func TestDefault_ResetAndFactory(t *testing.T) {
	t.Cleanup(func() { _ = SetDefaultFactory(nil) })

	gw := gateway.NewMemoryGateway()
	if err := SetDefaultFactory(func() (*Registry, error) { return New(gw), nil }); err != nil {
		t.Fatalf("SetDefaultFactory returned error: %v", err)
	}

	a, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if a.Gateway() != gw {
		t.Error("Default must use the configured factory")
	}

	if err := ResetDefault(); err != nil {
		t.Fatalf("ResetDefault returned error: %v", err)
	}
	b, err := Default()
	if err != nil {
		t.Fatalf("Default returned error: %v", err)
	}
	if a == b {
		t.Error("Default after ResetDefault must be a new instance")
	}
}

// --- エンドツーエンドの性質（インメモリGateway） ---

func TestFacade_CreationOrderPreserved(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	names := []string{"User One", "User Two", "User Three"}
	for _, n := range names {
		if _, err := r.Facade().CreateUser(ctx, map[string]any{"name": n}); err != nil {
			t.Fatalf("CreateUser(%q) returned error: %v", n, err)
		}
	}

	users, err := r.Facade().GetAllUsers(ctx)
	if err != nil {
		t.Fatalf("GetAllUsers returned error: %v", err)
	}
	if len(users) != len(names) {
		t.Fatalf("len = %d, want %d", len(users), len(names))
	}
	for i, n := range names {
		if users[i].Name != n {
			t.Errorf("users[%d].Name = %q, want %q", i, users[i].Name, n)
		}
	}
}

func TestFacade_RoundTrip(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	u1, err := r.Facade().CreateUser(ctx, map[string]any{"name": "First"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	u2, err := r.Facade().CreateUser(ctx, map[string]any{"name": "Second"})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	for _, want := range []struct{ id, name string }{{u1.ID, "First"}, {u2.ID, "Second"}} {
		got, err := r.Facade().GetUserByID(ctx, want.id)
		if err != nil {
			t.Fatalf("GetUserByID(%q) returned error: %v", want.id, err)
		}
		if got.ID != want.id || got.Name != want.name {
			t.Errorf("GetUserByID(%q) = %+v", want.id, got)
		}
	}
}

func TestFacade_UpdateReflected(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	created, _ := r.Facade().CreateUser(ctx, map[string]any{"name": "Before"})

	updated, err := r.Facade().UpdateUser(ctx, created.ID, map[string]any{"name": "X"})
	if err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	if updated.ID != created.ID || updated.Name != "X" {
		t.Errorf("UpdateUser = %+v", updated)
	}

	got, _ := r.Facade().GetUserByID(ctx, created.ID)
	if got.Name != "X" {
		t.Errorf("GetUserByID after update Name = %q, want %q", got.Name, "X")
	}
}

func TestFacade_MissingIDIsNotFound(t *testing.T) {
	r, gw := newTestRegistry(t)
	ctx := context.Background()
	const missing = "0b4a3c31-6a0b-4b6c-9b7e-2f1d3a9c8e10"

	_, err := r.Facade().GetUserByID(ctx, missing)
	assertNotFound(t, err, missing, model.OpFetch)

	_, err = r.Facade().UpdateUser(ctx, missing, map[string]any{"name": "X"})
	assertNotFound(t, err, missing, model.OpUpdate)

	err = r.Facade().DeleteUser(ctx, missing)
	assertNotFound(t, err, missing, model.OpDelete)

	if gw.Len() != 0 {
		t.Errorf("update on missing id created a record (Len = %d)", gw.Len())
	}
}

func TestFacade_DeleteThenExists(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	created, _ := r.Facade().CreateUser(ctx, map[string]any{"name": "Doomed"})

	if err := r.Facade().DeleteUser(ctx, created.ID); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	exists, err := r.Facade().UserExists(ctx, created.ID)
	if err != nil {
		t.Fatalf("UserExists returned error: %v", err)
	}
	if exists {
		t.Error("UserExists after delete = true, want false")
	}

	err = r.Facade().DeleteUser(ctx, created.ID)
	assertNotFound(t, err, created.ID, model.OpDelete)
}

func TestFacade_InvalidCreatesLeaveNoTrace(t *testing.T) {
	r, gw := newTestRegistry(t)
	ctx := context.Background()

	inputs := []map[string]any{
		{"name": ""},
		{},
		{"name": strings.Repeat("a", 101)},
		{"name": "\xff\xfe"},
	}
	for _, in := range inputs {
		_, err := r.Facade().CreateUser(ctx, in)
		if model.KindOf(err) != model.KindValidation {
			t.Errorf("CreateUser(%v) kind = %v, want validation", in, model.KindOf(err))
		}
	}
	if gw.Len() != 0 {
		t.Errorf("gateway Len = %d, want 0", gw.Len())
	}
}

func assertNotFound(t *testing.T, err error, id string, op model.Operation) {
	t.Helper()
	var nferr *model.NotFoundError
	if !errors.As(err, &nferr) {
		t.Fatalf("expected *model.NotFoundError, got %v", err)
	}
	if nferr.ID != id || nferr.Op != op {
		t.Errorf("NotFoundError = {ID:%q Op:%q}, want {ID:%q Op:%q}", nferr.ID, nferr.Op, id, op)
	}
}
