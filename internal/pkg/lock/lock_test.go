// Package lock provides per-user locking for balance and entitlement mutations.
// Property-based tests for concurrent mutation safety.
package lock

import (
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestConcurrentMutationSafetyProperty checks that operations serialized
// through the same user's lock behave as if executed sequentially: a
// read-modify-write counter never loses an update.
func TestConcurrentMutationSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(0, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		amounts := make([]int64, numOps)
		expected := initial
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expected += amounts[i]
		}

		ul := NewUserLock()
		balance := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				ul.Lock(userID)
				defer ul.Unlock(userID)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expected {
			t.Fatalf("lost update: expected %d, got %d (initial=%d, numOps=%d)",
				expected, balance, initial, numOps)
		}
	})
}

// TestDifferentUsersDoNotBlock checks that locks for distinct users are
// independent.
func TestDifferentUsersDoNotBlock(t *testing.T) {
	ul := NewUserLock()

	ul.Lock(1)
	defer ul.Unlock(1)

	if !ul.TryLock(2) {
		t.Fatal("lock for a different user should be free")
	}
	ul.Unlock(2)
}

func TestTryLock(t *testing.T) {
	ul := NewUserLock()

	if !ul.TryLock(1) {
		t.Fatal("TryLock on a free lock should succeed")
	}
	if ul.TryLock(1) {
		t.Fatal("TryLock on a held lock should fail")
	}
	ul.Unlock(1)

	if !ul.TryLock(1) {
		t.Fatal("TryLock after unlock should succeed")
	}
	ul.Unlock(1)
}

func TestWithLock(t *testing.T) {
	ul := NewUserLock()

	err := ul.WithLock(1, func() error {
		if ul.TryLock(1) {
			t.Fatal("lock should be held inside WithLock")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock returned error: %v", err)
	}

	if !ul.TryLock(1) {
		t.Fatal("lock should be released after WithLock")
	}
	ul.Unlock(1)
}

// TestLockPairNoDeadlockProperty checks that pair locks taken for the same two
// users in opposite argument orders cannot deadlock: both goroutines always
// finish.
func TestLockPairNoDeadlockProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Int64Range(1, 1000).Draw(t, "a")
		b := rapid.Int64Range(1, 1000).Draw(t, "b")
		rounds := rapid.IntRange(1, 50).Draw(t, "rounds")

		ul := NewUserLock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					ul.LockPair(a, b)
					ul.UnlockPair(a, b)
				}
			}()
			go func() {
				defer wg.Done()
				for i := 0; i < rounds; i++ {
					ul.LockPair(b, a)
					ul.UnlockPair(b, a)
				}
			}()
			wg.Wait()
		}()

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Fatalf("pair locking deadlocked for users %d and %d", a, b)
		}
	})
}

func TestLockPairSameUser(t *testing.T) {
	ul := NewUserLock()

	// A pair with twice the same id takes the lock exactly once
	ul.LockPair(7, 7)
	if ul.TryLock(7) {
		t.Fatal("lock should be held after LockPair(7, 7)")
	}
	ul.UnlockPair(7, 7)

	if !ul.TryLock(7) {
		t.Fatal("lock should be free after UnlockPair(7, 7)")
	}
	ul.Unlock(7)
}

func TestWithPair(t *testing.T) {
	ul := NewUserLock()

	err := ul.WithPair(1, 2, func() error {
		if ul.TryLock(1) || ul.TryLock(2) {
			t.Fatal("both locks should be held inside WithPair")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithPair returned error: %v", err)
	}

	if !ul.TryLock(1) || !ul.TryLock(2) {
		t.Fatal("both locks should be released after WithPair")
	}
	ul.Unlock(1)
	ul.Unlock(2)
}
