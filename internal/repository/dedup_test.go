package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisDeduper_FirstSeenOnce(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	d := NewRedisDeduper(client, time.Hour)
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, 100)
	if err != nil {
		t.Fatalf("FirstSeen error: %v", err)
	}
	if !first {
		t.Error("first delivery should be new")
	}

	again, err := d.FirstSeen(ctx, 100)
	if err != nil {
		t.Fatalf("FirstSeen error: %v", err)
	}
	if again {
		t.Error("redelivery should not be new")
	}

	other, _ := d.FirstSeen(ctx, 101)
	if !other {
		t.Error("different update should be new")
	}
}

func TestRedisDeduper_Expires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	d := NewRedisDeduper(client, time.Minute)
	ctx := context.Background()

	d.FirstSeen(ctx, 7)
	mr.FastForward(2 * time.Minute)

	if ok, _ := d.FirstSeen(ctx, 7); !ok {
		t.Error("update should be new again after the TTL")
	}
}

func TestRedisDeduper_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	if _, err := NewRedisDeduper(client, time.Minute).FirstSeen(context.Background(), 1); err == nil {
		t.Error("expected error when redis is down")
	}
}

func TestMemoryDeduper(t *testing.T) {
	now := time.Unix(1000, 0)
	d := NewMemoryDeduper(time.Minute)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := d.FirstSeen(ctx, 1); !ok {
		t.Error("first delivery should be new")
	}
	if ok, _ := d.FirstSeen(ctx, 1); ok {
		t.Error("redelivery should not be new")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := d.FirstSeen(ctx, 1); !ok {
		t.Error("update should be new again after the TTL")
	}
}
