package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mbolis/survey-kiosk/model"
)

func TestCatalogRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	rdb, err := Connect(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	c := NewCatalog(rdb, "survey-kiosk-test:"+uuid.NewString(), time.Minute)
	defer c.Invalidate(ctx)

	if _, ok, err := c.Get(ctx); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	want := []model.Question{
		{ID: "a", Text: "A?", Type: model.Rating5, Required: true, Order: 1},
		{ID: "b", Text: "B?", Type: model.Text, Order: 2},
	}
	if err := c.Set(ctx, want); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %+v, want %+v", got, want)
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := c.Get(ctx); ok {
		t.Error("expected miss after invalidate")
	}
}

func TestNewCatalogDefaultKey(t *testing.T) {
	c := NewCatalog(nil, "", time.Minute)
	if c.key != DefaultKey {
		t.Errorf("key = %q, want %q", c.key, DefaultKey)
	}
}
