package ratelimit

import (
	"testing"
	"time"
)

func TestAcquire_ConcurrencyCap(t *testing.T) {
	l := New(Config{MaxConcurrent: 1})
	now := time.Now()

	first := l.Acquire("c1", now)
	if !first.Allowed || first.Permit == nil {
		t.Fatalf("first allowed=%v permit=%v", first.Allowed, first.Permit)
	}
	if second := l.Acquire("c1", now); second.Allowed || second.RetryAfter != 1 {
		t.Fatalf("second = %+v, want denied with retry 1", second)
	}
	if other := l.Acquire("c2", now); !other.Allowed {
		t.Fatalf("other client denied")
	}

	first.Permit.Release()
	first.Permit.Release()
	if third := l.Acquire("c1", now); !third.Allowed {
		t.Fatalf("third should be allowed after release")
	}
}

func TestAcquire_TokenBucket(t *testing.T) {
	l := New(Config{RPS: 0.5, Burst: 2})
	now := time.Now()

	for i := 0; i < 2; i++ {
		if d := l.Acquire("c", now); !d.Allowed {
			t.Fatalf("burst request %d denied", i)
		}
	}
	d := l.Acquire("c", now)
	if d.Allowed || d.RetryAfter != 2 {
		t.Fatalf("over burst = %+v, want denied with retry 2", d)
	}
	if d := l.Acquire("c", now.Add(2*time.Second)); !d.Allowed {
		t.Fatalf("refilled token denied")
	}
}

func TestAcquire_DisabledAllowsAll(t *testing.T) {
	l := New(Config{})
	for i := 0; i < 100; i++ {
		d := l.Acquire("", time.Now())
		if !d.Allowed {
			t.Fatalf("request %d denied", i)
		}
		d.Permit.Release()
	}
	if (Config{}).Enabled() {
		t.Fatalf("zero config reports enabled")
	}
}

func TestAcquire_BoundsClientMap(t *testing.T) {
	l := New(Config{MaxConcurrent: 1, MaxEntries: 2, EntryTTL: time.Minute})
	start := time.Now()
	l.Acquire("a", start)
	l.Acquire("b", start)
	l.Acquire("c", start.Add(2*time.Minute))
	if got := l.Len(); got != 1 {
		t.Fatalf("Len = %d, want 1 after evicting idle clients", got)
	}
}
