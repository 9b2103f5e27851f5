package steps

import (
	"context"
	"sync"

	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

// MemoryFactory memoizes step results in process memory. Replay safety only
// holds within one process lifetime, which is enough for tests and for
// embedded single-process deployments.
type MemoryFactory struct {
	mu      sync.Mutex
	results map[string]map[string]any
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{
		results: make(map[string]map[string]any),
	}
}

func (f *MemoryFactory) ForExecution(executionID string) protocol.StepRunner {
	return &memoryRunner{factory: f, executionID: executionID}
}

type memoryRunner struct {
	factory     *MemoryFactory
	executionID string
}

func (r *memoryRunner) Run(ctx context.Context, name string, fn func(ctx context.Context) (any, error)) (any, error) {
	r.factory.mu.Lock()
	execution, ok := r.factory.results[r.executionID]

	if ok {
		if result, done := execution[name]; done {
			r.factory.mu.Unlock()

			return result, nil
		}
	}

	r.factory.mu.Unlock()

	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	r.factory.mu.Lock()
	defer r.factory.mu.Unlock()

	if r.factory.results[r.executionID] == nil {
		r.factory.results[r.executionID] = make(map[string]any)
	}

	r.factory.results[r.executionID][name] = result

	return result, nil
}
