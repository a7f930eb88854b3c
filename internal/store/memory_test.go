package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Update(ctx, func(kv KV) error {
		return kv.Put(ctx, "a", []byte("1"))
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(ctx, func(kv KV) error {
		value, found, err := kv.Get(ctx, "a")
		if err != nil {
			return err
		}
		if !found || string(value) != "1" {
			t.Fatalf("Get(a) = (%q, %v)", value, found)
		}
		_, found, err = kv.Get(ctx, "missing")
		if err != nil {
			return err
		}
		if found {
			t.Fatal("Get(missing) reported found")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Update(ctx, func(kv KV) error {
		if err := kv.Put(ctx, "a", []byte("1")); err != nil {
			return err
		}
		return kv.Delete(ctx, "a")
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = s.View(ctx, func(kv KV) error {
		_, found, err := kv.Get(ctx, "a")
		if err != nil {
			return err
		}
		if found {
			t.Fatal("deleted key still present")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

// A failed Update must leave the store exactly as it was.
func TestMemoryStoreUpdateRollsBack(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Update(ctx, func(kv KV) error { return kv.Put(ctx, "kept", []byte("old")) }); err != nil {
		t.Fatalf("Update: %v", err)
	}

	boom := errors.New("boom")
	err := s.Update(ctx, func(kv KV) error {
		if err := kv.Put(ctx, "kept", []byte("new")); err != nil {
			return err
		}
		if err := kv.Put(ctx, "extra", []byte("x")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	err = s.View(ctx, func(kv KV) error {
		value, found, err := kv.Get(ctx, "kept")
		if err != nil {
			return err
		}
		if !found || string(value) != "old" {
			t.Fatalf("kept = (%q, %v), want old value back", value, found)
		}
		_, found, err = kv.Get(ctx, "extra")
		if err != nil {
			return err
		}
		if found {
			t.Fatal("write from failed update leaked")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}
