package memory

import (
	"context"
	"sync"

	"github.com/rodrigues-edu/poc-paginacao-multibanco/internal/indexplan"
)

// Indexes records provisioned index definitions. The memory store sorts on
// every read, so the definitions only serve plan checks and tests.
type Indexes struct {
	mu      sync.Mutex
	defined map[string]indexplan.Index
}

func NewIndexes() *Indexes {
	return &Indexes{defined: make(map[string]indexplan.Index)}
}

func (i *Indexes) IndexExists(ctx context.Context, name string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.defined[name]
	return ok, nil
}

func (i *Indexes) CreateIndex(ctx context.Context, idx indexplan.Index) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.defined[idx.Name]; !ok {
		i.defined[idx.Name] = idx
	}
	return nil
}

// Names returns the provisioned index names.
func (i *Indexes) Names() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, 0, len(i.defined))
	for name := range i.defined {
		out = append(out, name)
	}
	return out
}

var _ indexplan.Provisioner = (*Indexes)(nil)
