package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/1cedrus/squid-chat/internal/store"
)

func getJSON[T any](ctx context.Context, kv store.KV, key string, out *T) (bool, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func putJSON(ctx context.Context, kv store.KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func getUint32(ctx context.Context, kv store.KV, key string) (uint32, error) {
	var n uint32
	if _, err := getJSON(ctx, kv, key, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// allocate returns the counter's current value and persists the increment.
// The id space must never wrap: exhaustion is an unrecoverable defect, so
// the call is halted instead of handing out a reused identifier.
func allocate(ctx context.Context, kv store.KV, key string) (uint32, error) {
	n, err := getUint32(ctx, kv, key)
	if err != nil {
		return 0, err
	}
	if n == math.MaxUint32 {
		panic(fmt.Sprintf("directory: counter %s exhausted", key))
	}
	if err := putJSON(ctx, kv, key, n+1); err != nil {
		return 0, err
	}
	return n, nil
}
