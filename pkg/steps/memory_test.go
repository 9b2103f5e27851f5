package steps_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RachidJedata/GraphOps/pkg/steps"
)

func TestMemoryRunnerMemoizesResults(t *testing.T) {
	factory := steps.NewMemoryFactory()
	runner := factory.ForExecution("exec-1")

	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++

		return "result", nil
	}

	first, err := runner.Run(context.Background(), "http-request", fn)
	require.NoError(t, err)
	assert.Equal(t, "result", first)

	second, err := runner.Run(context.Background(), "http-request", fn)
	require.NoError(t, err)
	assert.Equal(t, "result", second)

	assert.Equal(t, 1, calls, "memoized step must not re-execute")
}

func TestMemoryRunnerScopesByExecution(t *testing.T) {
	factory := steps.NewMemoryFactory()

	calls := 0
	fn := func(ctx context.Context) (any, error) {
		calls++

		return calls, nil
	}

	_, err := factory.ForExecution("exec-1").Run(context.Background(), "step", fn)
	require.NoError(t, err)

	_, err = factory.ForExecution("exec-2").Run(context.Background(), "step", fn)
	require.NoError(t, err)

	assert.Equal(t, 2, calls, "different executions must not share results")
}

func TestMemoryRunnerDoesNotMemoizeFailures(t *testing.T) {
	factory := steps.NewMemoryFactory()
	runner := factory.ForExecution("exec-1")

	calls := 0
	failing := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}

		return "ok", nil
	}

	_, err := runner.Run(context.Background(), "step", failing)
	require.Error(t, err)

	result, err := runner.Run(context.Background(), "step", failing)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 2, calls)
}
