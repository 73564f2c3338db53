package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/layershowcase/internal/model"
)

// runGatewayContract は全エンジン共通のゲートウェイ契約を検証する。
// newGateway は空のゲートウェイを返すこと。
func runGatewayContract(t *testing.T, newGateway func(t *testing.T) Gateway) {
	t.Helper()
	ctx := context.Background()

	t.Run("FindAll_Empty", func(t *testing.T) {
		g := newGateway(t)
		records, err := g.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll returned error: %v", err)
		}
		if records == nil {
			t.Error("FindAll should return an empty slice, not nil")
		}
		if len(records) != 0 {
			t.Errorf("len(records) = %d, want 0", len(records))
		}
	})

	t.Run("Insert_ThenFindByKey", func(t *testing.T) {
		g := newGateway(t)
		saved, err := g.Insert(ctx, Record{ID: "id-1", Name: "User One"})
		if err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
		if saved.ID != "id-1" || saved.Name != "User One" {
			t.Errorf("saved = %+v, want {id-1 User One}", saved)
		}

		got, err := g.FindByKey(ctx, "id-1")
		if err != nil {
			t.Fatalf("FindByKey returned error: %v", err)
		}
		if got == nil {
			t.Fatal("expected record, got nil")
		}
		if *got != saved {
			t.Errorf("FindByKey = %+v, want %+v", *got, saved)
		}
	})

	t.Run("FindByKey_Missing_ReturnsNil", func(t *testing.T) {
		g := newGateway(t)
		got, err := g.FindByKey(ctx, "missing")
		if err != nil {
			t.Fatalf("FindByKey returned error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("FindAll_PreservesInsertionOrder", func(t *testing.T) {
		g := newGateway(t)
		// 辞書順と異なる順で挿入する
		ids := []string{"c", "a", "b"}
		for _, id := range ids {
			if _, err := g.Insert(ctx, Record{ID: id, Name: "name-" + id}); err != nil {
				t.Fatalf("Insert(%s) returned error: %v", id, err)
			}
		}

		records, err := g.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll returned error: %v", err)
		}
		if len(records) != len(ids) {
			t.Fatalf("len(records) = %d, want %d", len(records), len(ids))
		}
		for i, id := range ids {
			if records[i].ID != id {
				t.Errorf("records[%d].ID = %q, want %q", i, records[i].ID, id)
			}
		}
	})

	t.Run("Insert_DuplicateKey_ReturnsStorageError", func(t *testing.T) {
		g := newGateway(t)
		if _, err := g.Insert(ctx, Record{ID: "dup", Name: "first"}); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
		_, err := g.Insert(ctx, Record{ID: "dup", Name: "second"})
		var serr *model.StorageError
		if !errors.As(err, &serr) {
			t.Fatalf("expected *model.StorageError, got %v", err)
		}

		got, _ := g.FindByKey(ctx, "dup")
		if got == nil || got.Name != "first" {
			t.Errorf("original record should be intact, got %+v", got)
		}
	})

	t.Run("Update_ReplacesName", func(t *testing.T) {
		g := newGateway(t)
		if _, err := g.Insert(ctx, Record{ID: "id-1", Name: "Before"}); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}

		name := "After"
		updated, err := g.Update(ctx, "id-1", RecordPatch{Name: &name})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated == nil {
			t.Fatal("expected updated record, got nil")
		}
		if updated.ID != "id-1" || updated.Name != "After" {
			t.Errorf("updated = %+v, want {id-1 After}", *updated)
		}

		got, _ := g.FindByKey(ctx, "id-1")
		if got == nil || got.Name != "After" {
			t.Errorf("FindByKey after update = %+v, want name After", got)
		}
	})

	t.Run("Update_EmptyPatch_KeepsName", func(t *testing.T) {
		g := newGateway(t)
		if _, err := g.Insert(ctx, Record{ID: "id-1", Name: "Keep"}); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
		updated, err := g.Update(ctx, "id-1", RecordPatch{})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated == nil || updated.Name != "Keep" {
			t.Errorf("updated = %+v, want name Keep", updated)
		}
	})

	t.Run("Update_Missing_ReturnsNil", func(t *testing.T) {
		g := newGateway(t)
		name := "X"
		updated, err := g.Update(ctx, "missing", RecordPatch{Name: &name})
		if err != nil {
			t.Fatalf("Update returned error: %v", err)
		}
		if updated != nil {
			t.Errorf("expected nil, got %+v", updated)
		}
		records, _ := g.FindAll(ctx)
		if len(records) != 0 {
			t.Error("Update on a missing id must not create a record")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		g := newGateway(t)
		if _, err := g.Insert(ctx, Record{ID: "id-1", Name: "Gone"}); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}

		deleted, err := g.Delete(ctx, "id-1")
		if err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}
		if !deleted {
			t.Error("expected Delete to return true")
		}

		again, err := g.Delete(ctx, "id-1")
		if err != nil {
			t.Fatalf("second Delete returned error: %v", err)
		}
		if again {
			t.Error("expected second Delete to return false")
		}

		got, _ := g.FindByKey(ctx, "id-1")
		if got != nil {
			t.Errorf("expected nil after delete, got %+v", got)
		}
	})
}
