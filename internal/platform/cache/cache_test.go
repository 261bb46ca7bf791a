package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/techlearn-backend/internal/platform/logger"
)

type memCache struct {
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	m.data[key] = raw
	return err
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type board struct {
	Names []string `json:"names"`
}

func TestGetOrLoadCachesResult(t *testing.T) {
	ctx := context.Background()
	c := &memCache{data: map[string][]byte{}}
	loads := 0
	load := func(context.Context) (board, error) {
		loads++
		return board{Names: []string{"ada"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrLoad(ctx, logger.Nop(), c, "leaderboard", "org:all", time.Minute, load)
		if err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
		if len(got.Names) != 1 || got.Names[0] != "ada" {
			t.Fatalf("unexpected value %+v", got)
		}
	}
	if loads != 1 {
		t.Fatalf("expected a single load, got %d", loads)
	}
	if _, ok := c.data["leaderboard:org:all"]; !ok {
		t.Fatalf("expected namespaced key to be stored")
	}
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	c := &memCache{data: map[string][]byte{}}
	_, err := GetOrLoad(ctx, logger.Nop(), c, "ns", "k", time.Minute, func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	if err == nil {
		t.Fatalf("expected load error")
	}
	if len(c.data) != 0 {
		t.Fatalf("error result should not be cached")
	}
}

func TestNopAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	n := Nop()
	if err := n.Set(ctx, "k", 1, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var v int
	if hit, err := n.Get(ctx, "k", &v); hit || err != nil {
		t.Fatalf("expected miss, got hit=%v err=%v", hit, err)
	}
}
