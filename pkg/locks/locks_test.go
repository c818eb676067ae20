// SPDX-FileCopyrightText: © 2025 Nfrastack <code@nfrastack.com>
//
// SPDX-License-Identifier: BSD-3-Clause

package locks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemoryAcquireRelease(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	release, err := m.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Same zone is busy, other zones are not.
	if _, err := m.Acquire(ctx, "example.com"); !errors.Is(err, ErrZoneBusy) {
		t.Errorf("second Acquire() error = %v, want ErrZoneBusy", err)
	}
	otherRelease, err := m.Acquire(ctx, "example.org")
	if err != nil {
		t.Errorf("Acquire() for other zone error = %v", err)
	} else {
		otherRelease()
	}

	release()
	release2, err := m.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	release2()
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestRedisLeaseAcquireRelease(t *testing.T) {
	_, rdb := newTestRedis(t)
	lease := NewRedisLease(rdb, time.Minute)
	ctx := context.Background()

	release, err := lease.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := lease.Acquire(ctx, "example.com"); !errors.Is(err, ErrZoneBusy) {
		t.Errorf("second Acquire() error = %v, want ErrZoneBusy", err)
	}

	release()
	release2, err := lease.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	release2()
}

func TestRedisLeaseExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	lease := NewRedisLease(rdb, time.Second)
	ctx := context.Background()

	if _, err := lease.Acquire(ctx, "example.com"); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// A dead holder's lease expires instead of wedging the zone.
	mr.FastForward(2 * time.Second)

	release, err := lease.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire() after expiry error = %v", err)
	}
	release()
}

func TestChainReleasesOnFailure(t *testing.T) {
	m := NewMemory()
	_, rdb := newTestRedis(t)
	lease := NewRedisLease(rdb, time.Minute)
	ctx := context.Background()

	// Hold the lease externally so the chain fails on its second stage.
	heldRelease, err := lease.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	chain := NewChain(m, lease)
	if _, err := chain.Acquire(ctx, "example.com"); !errors.Is(err, ErrZoneBusy) {
		t.Fatalf("chain Acquire() error = %v, want ErrZoneBusy", err)
	}

	// The memory lock taken by the chain must have been rolled back.
	release, err := m.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("memory lock not released after chain failure: %v", err)
	}
	release()
	heldRelease()
}

func TestChainAcquireAll(t *testing.T) {
	m := NewMemory()
	_, rdb := newTestRedis(t)
	lease := NewRedisLease(rdb, time.Minute)
	chain := NewChain(m, lease)
	ctx := context.Background()

	release, err := chain.Acquire(ctx, "example.com")
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := m.Acquire(ctx, "example.com"); !errors.Is(err, ErrZoneBusy) {
		t.Error("memory lock should be held by chain")
	}
	if _, err := lease.Acquire(ctx, "example.com"); !errors.Is(err, ErrZoneBusy) {
		t.Error("lease should be held by chain")
	}

	release()
	if _, err := m.Acquire(ctx, "example.com"); err != nil {
		t.Errorf("memory lock not released: %v", err)
	}
}
