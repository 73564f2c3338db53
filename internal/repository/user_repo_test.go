package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/layershowcase/internal/gateway"
	"github.com/hitoshi/layershowcase/internal/model"
)

// --- モック ---

type mockGateway struct {
	findAllFn   func(ctx context.Context) ([]gateway.Record, error)
	findByKeyFn func(ctx context.Context, id string) (*gateway.Record, error)
	insertFn    func(ctx context.Context, rec gateway.Record) (gateway.Record, error)
	updateFn    func(ctx context.Context, id string, patch gateway.RecordPatch) (*gateway.Record, error)
	deleteFn    func(ctx context.Context, id string) (bool, error)
}

func (m *mockGateway) FindAll(ctx context.Context) ([]gateway.Record, error) {
	return m.findAllFn(ctx)
}
func (m *mockGateway) FindByKey(ctx context.Context, id string) (*gateway.Record, error) {
	return m.findByKeyFn(ctx, id)
}
func (m *mockGateway) Insert(ctx context.Context, rec gateway.Record) (gateway.Record, error) {
	return m.insertFn(ctx, rec)
}
func (m *mockGateway) Update(ctx context.Context, id string, patch gateway.RecordPatch) (*gateway.Record, error) {
	return m.updateFn(ctx, id, patch)
}
func (m *mockGateway) Delete(ctx context.Context, id string) (bool, error) {
	return m.deleteFn(ctx, id)
}

// --- テスト ---

func TestUserRepo_FindAll_Empty_ReturnsEmptySlice(t *testing.T) {
	repo := NewUserRepo(gateway.NewMemoryGateway())

	users, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if users == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(users) != 0 {
		t.Errorf("len(users) = %d, want 0", len(users))
	}
}

func TestUserRepo_Create_PreservesCallerID(t *testing.T) {
	repo := NewUserRepo(gateway.NewMemoryGateway())
	in := model.User{ID: "3f1c2d7e-8a90-4b1c-9d2e-0f1a2b3c4d5e", Name: "Alice"}

	saved, err := repo.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if saved != in {
		t.Errorf("saved = %+v, want %+v", saved, in)
	}

	found, err := repo.FindByID(context.Background(), in.ID)
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found == nil || *found != in {
		t.Errorf("FindByID = %+v, want %+v", found, in)
	}
}

func TestUserRepo_FindByID_Missing_ReturnsNil(t *testing.T) {
	repo := NewUserRepo(gateway.NewMemoryGateway())

	found, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID returned error: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil, got %+v", found)
	}
}

func TestUserRepo_Update_PassesNameAsPatch(t *testing.T) {
	var gotPatch gateway.RecordPatch
	gw := &mockGateway{
		updateFn: func(ctx context.Context, id string, patch gateway.RecordPatch) (*gateway.Record, error) {
			gotPatch = patch
			return &gateway.Record{ID: id, Name: *patch.Name}, nil
		},
	}
	repo := NewUserRepo(gw)

	updated, err := repo.Update(context.Background(), "u-1", model.UpdateCommand{Name: "X"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if gotPatch.Name == nil || *gotPatch.Name != "X" {
		t.Errorf("patch.Name = %v, want X", gotPatch.Name)
	}
	if updated == nil || updated.ID != "u-1" || updated.Name != "X" {
		t.Errorf("updated = %+v, want {u-1 X}", updated)
	}
}

func TestUserRepo_Update_Missing_ReturnsNil(t *testing.T) {
	repo := NewUserRepo(gateway.NewMemoryGateway())

	updated, err := repo.Update(context.Background(), "missing", model.UpdateCommand{Name: "X"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil, got %+v", updated)
	}
}

func TestUserRepo_Delete_ReportsRemoval(t *testing.T) {
	gw := gateway.NewMemoryGateway()
	repo := NewUserRepo(gw)
	ctx := context.Background()
	repo.Create(ctx, model.User{ID: "u-1", Name: "Gone"})

	deleted, err := repo.Delete(ctx, "u-1")
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v; want true, nil", deleted, err)
	}
	deleted, err = repo.Delete(ctx, "u-1")
	if err != nil || deleted {
		t.Errorf("second Delete = %v, %v; want false, nil", deleted, err)
	}
}

// TestUserRepo_PropagatesStorageError はゲートウェイのStorageErrorが型を保ったまま返ることを検証する。
func TestUserRepo_PropagatesStorageError(t *testing.T) {
	storageErr := model.NewStorageError("find_all", errors.New("connection reset"))
	gw := &mockGateway{
		findAllFn: func(ctx context.Context) ([]gateway.Record, error) {
			return nil, storageErr
		},
		findByKeyFn: func(ctx context.Context, id string) (*gateway.Record, error) {
			return nil, storageErr
		},
		insertFn: func(ctx context.Context, rec gateway.Record) (gateway.Record, error) {
			return gateway.Record{}, storageErr
		},
		updateFn: func(ctx context.Context, id string, patch gateway.RecordPatch) (*gateway.Record, error) {
			return nil, storageErr
		},
		deleteFn: func(ctx context.Context, id string) (bool, error) {
			return false, storageErr
		},
	}
	repo := NewUserRepo(gw)
	ctx := context.Background()

	_, err1 := repo.FindAll(ctx)
	_, err2 := repo.FindByID(ctx, "u")
	_, err3 := repo.Create(ctx, model.User{ID: "u", Name: "n"})
	_, err4 := repo.Update(ctx, "u", model.UpdateCommand{Name: "n"})
	_, err5 := repo.Delete(ctx, "u")

	for i, err := range []error{err1, err2, err3, err4, err5} {
		if !errors.Is(err, storageErr) {
			t.Errorf("call %d: expected wrapped storage error, got %v", i, err)
		}
		if model.KindOf(err) != model.KindStorage {
			t.Errorf("call %d: KindOf = %v, want storage", i, model.KindOf(err))
		}
	}
}

// TestRecordToDomain_MissingID_Panics は主キーのないレコードが不変条件違反として扱われることを検証する。
func TestRecordToDomain_MissingID_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for record without ID")
		}
	}()
	recordToDomain(gateway.Record{Name: "orphan"})
}
