package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RachidJedata/GraphOps/pkg/protocol"
)

// stepResultTTL bounds how long a memoized result survives. It must outlive
// the host substrate's retry window for the run.
const stepResultTTL = 7 * 24 * time.Hour

// RedisFactory memoizes step results in Redis so a resumed run skips
// completed side effects even across process restarts.
type RedisFactory struct {
	client redis.UniversalClient
}

func NewRedisFactory(client redis.UniversalClient) *RedisFactory {
	return &RedisFactory{client: client}
}

func (f *RedisFactory) ForExecution(executionID string) protocol.StepRunner {
	return &redisRunner{client: f.client, executionID: executionID}
}

type redisRunner struct {
	client      redis.UniversalClient
	executionID string
}

func (r *redisRunner) key(name string) string {
	return fmt.Sprintf("graphops:steps:%s:%s", r.executionID, name)
}

func (r *redisRunner) Run(ctx context.Context, name string, fn func(ctx context.Context) (any, error)) (any, error) {
	key := r.key(name)

	stored, err := r.client.Get(ctx, key).Result()

	switch {
	case err == nil:
		var result any

		err = json.Unmarshal([]byte(stored), &result)
		if err != nil {
			return nil, fmt.Errorf("failed to decode memoized result for step %q: %w", name, err)
		}

		return result, nil
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("failed to read memoized result for step %q: %w", name, err)
	}

	result, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result for step %q: %w", name, err)
	}

	err = r.client.Set(ctx, key, payload, stepResultTTL).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to memoize result for step %q: %w", name, err)
	}

	return result, nil
}
