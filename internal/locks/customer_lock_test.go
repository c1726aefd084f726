package locks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeStore) LockKey(scope, id string) string {
	return "lock:" + scope + ":" + id
}

func TestCustomerLocker_ExclusivePerCustomer(t *testing.T) {
	store := newFakeStore()
	locker, err := NewCustomerLocker(store, time.Minute)
	if err != nil {
		t.Fatalf("unexpected locker error: %v", err)
	}

	customerID := uuid.New()
	ctx := context.Background()

	ok, release, err := locker.Acquire(ctx, customerID)
	if err != nil || !ok {
		t.Fatalf("first acquire failed: ok=%v err=%v", ok, err)
	}

	ok, _, err = locker.Acquire(ctx, customerID)
	if err != nil {
		t.Fatalf("second acquire error: %v", err)
	}
	if ok {
		t.Fatal("second acquire must fail while lock is held")
	}

	// a different customer is unaffected
	ok, otherRelease, err := locker.Acquire(ctx, uuid.New())
	if err != nil || !ok {
		t.Fatalf("acquire for other customer failed: ok=%v err=%v", ok, err)
	}
	if err := otherRelease(ctx); err != nil {
		t.Fatalf("release error: %v", err)
	}

	if err := release(ctx); err != nil {
		t.Fatalf("release error: %v", err)
	}

	ok, release, err = locker.Acquire(ctx, customerID)
	if err != nil || !ok {
		t.Fatalf("reacquire after release failed: ok=%v err=%v", ok, err)
	}
	_ = release(ctx)
}

func TestCustomerLocker_ReleaseSkipsForeignOwner(t *testing.T) {
	store := newFakeStore()
	locker, err := NewCustomerLocker(store, time.Minute)
	if err != nil {
		t.Fatalf("unexpected locker error: %v", err)
	}

	customerID := uuid.New()
	ctx := context.Background()

	ok, release, err := locker.Acquire(ctx, customerID)
	if err != nil || !ok {
		t.Fatalf("acquire failed: ok=%v err=%v", ok, err)
	}

	// simulate TTL expiry followed by another holder
	key := store.LockKey("customer_cascade", customerID.String())
	store.values[key] = "someone-else"

	if err := release(ctx); err != nil {
		t.Fatalf("release error: %v", err)
	}
	if store.values[key] != "someone-else" {
		t.Fatal("release must not delete a lock it no longer owns")
	}
}

func TestCustomerLocker_RequiresCustomerID(t *testing.T) {
	locker, err := NewCustomerLocker(newFakeStore(), time.Minute)
	if err != nil {
		t.Fatalf("unexpected locker error: %v", err)
	}
	if _, _, err := locker.Acquire(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected error for nil customer id")
	}
}
