package registry

import (
	"sync"

	"github.com/hitoshi/layershowcase/internal/gateway"
)

// Factory はRegistryを生成する関数。
type Factory func() (*Registry, error)

// Holder は遅延生成され、明示的にリセットできるRegistryの保持器。
// リセットの間でFactoryが成功するのは高々1回。失敗した生成結果はキャッシュしない。
type Holder struct {
	mu      sync.Mutex
	factory Factory
	current *Registry
}

// NewHolder はHolderを生成する。
func NewHolder(factory Factory) *Holder {
	return &Holder{factory: factory}
}

// Get は保持しているRegistryを返す。未生成ならFactoryで生成する。
func (h *Holder) Get() (*Registry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current != nil {
		return h.current, nil
	}

	r, err := h.factory()
	if err != nil {
		return nil, err
	}
	h.current = r
	return r, nil
}

// Reset は保持しているRegistryを閉じて破棄する。次のGetで再生成される。
func (h *Holder) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil {
		return nil
	}
	r := h.current
	h.current = nil
	return r.Close()
}

// setFactory はFactoryを差し替え、保持中のRegistryを破棄する。
func (h *Holder) setFactory(factory Factory) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.factory = factory
	if h.current == nil {
		return nil
	}
	r := h.current
	h.current = nil
	return r.Close()
}

func memoryFactory() (*Registry, error) {
	return New(gateway.NewMemoryGateway()), nil
}

// テスト用のプロセス全体のHolder。本番のエントリーポイントは明示的なRegistryを渡す。
var defaultHolder = NewHolder(memoryFactory)

// Default はプロセス全体のRegistryを返す。
// 既定ではインメモリGatewayで生成される。
func Default() (*Registry, error) {
	return defaultHolder.Get()
}

// ResetDefault はプロセス全体のRegistryを破棄する。
func ResetDefault() error {
	return defaultHolder.Reset()
}

// SetDefaultFactory はプロセス全体のRegistryの生成方法を差し替える。
// nilを渡すとインメモリGatewayに戻す。
func SetDefaultFactory(factory Factory) error {
	if factory == nil {
		factory = memoryFactory
	}
	return defaultHolder.setFactory(factory)
}
