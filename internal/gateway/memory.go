package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/hitoshi/layershowcase/internal/model"
)

// MemoryGateway はプロセス内メモリを使用したゲートウェイ。
// テストで隔離されたストアとしてComposition Rootに注入する。
type MemoryGateway struct {
	mu      sync.RWMutex
	order   []string
	records map[string]Record
}

// NewMemoryGateway は空のMemoryGatewayを生成する。
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{records: make(map[string]Record)}
}

// FindAll は全レコードを挿入順に返す。
func (g *MemoryGateway) FindAll(ctx context.Context) ([]Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Record, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.records[id])
	}
	return out, nil
}

// FindByKey は指定IDのレコードを返す。見つからない場合はnilを返す。
func (g *MemoryGateway) FindByKey(ctx context.Context, id string) (*Record, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Insert はレコードを挿入する。
func (g *MemoryGateway) Insert(ctx context.Context, rec Record) (Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.records[rec.ID]; exists {
		return Record{}, model.NewStorageError("insert", fmt.Errorf("duplicate primary key: %s", rec.ID))
	}
	g.records[rec.ID] = rec
	g.order = append(g.order, rec.ID)
	return rec, nil
}

// Update は指定IDのレコードを上書きする。該当行がない場合はnilを返す。
func (g *MemoryGateway) Update(ctx context.Context, id string, patch RecordPatch) (*Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[id]
	if !ok {
		return nil, nil
	}
	if patch.Name != nil {
		rec.Name = *patch.Name
	}
	g.records[id] = rec
	return &rec, nil
}

// Delete は指定IDのレコードを削除する。
func (g *MemoryGateway) Delete(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.records[id]; !ok {
		return false, nil
	}
	delete(g.records, id)
	for i, key := range g.order {
		if key == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Len は保持しているレコード数を返す。テスト用。
func (g *MemoryGateway) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

// compile-time interface check
var _ Gateway = (*MemoryGateway)(nil)
