package lock

import (
	"sync"
	"sync/atomic"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentCommandsSerializedProperty checks that concurrent commands
// from one player, each doing a read-modify-write on the player's board,
// leave the same board length as running them one after another.
func TestConcurrentCommandsSerializedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numCmds := rapid.IntRange(2, 20).Draw(t, "numCmds")
		player := rapid.Int64Range(1, 1000000).Draw(t, "player")

		pl := NewPlayerLock()
		var board []int

		var wg sync.WaitGroup
		wg.Add(numCmds)
		for i := 0; i < numCmds; i++ {
			go func(guess int) {
				defer wg.Done()
				_ = pl.WithLock(player, func() error {
					next := append([]int(nil), board...)
					board = append(next, guess)
					return nil
				})
			}(i)
		}
		wg.Wait()

		if len(board) != numCmds {
			t.Fatalf("board has %d guesses after %d serialized commands", len(board), numCmds)
		}
	})
}

// TestPlayersIndependentProperty checks that each player's lock only
// guards that player's state.
func TestPlayersIndependentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numPlayers := rapid.IntRange(2, 10).Draw(t, "numPlayers")
		cmdsPerPlayer := rapid.IntRange(5, 20).Draw(t, "cmdsPerPlayer")

		pl := NewPlayerLock()
		counts := make(map[int64]*int, numPlayers)
		for p := int64(1); p <= int64(numPlayers); p++ {
			counts[p] = new(int)
		}

		var wg sync.WaitGroup
		wg.Add(numPlayers * cmdsPerPlayer)
		for p := int64(1); p <= int64(numPlayers); p++ {
			for j := 0; j < cmdsPerPlayer; j++ {
				go func(player int64) {
					defer wg.Done()
					pl.Lock(player)
					defer pl.Unlock(player)
					*counts[player]++
				}(p)
			}
		}
		wg.Wait()

		for p, n := range counts {
			if *n != cmdsPerPlayer {
				t.Fatalf("player %d ran %d commands, want %d", p, *n, cmdsPerPlayer)
			}
		}
	})
}

// TestTryLockSingleHolderProperty checks that simultaneous TryLock calls
// never hand the lock to two goroutines at once and release it afterwards.
func TestTryLockSingleHolderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		player := rapid.Int64Range(1, 1000000).Draw(t, "player")
		attempts := rapid.IntRange(5, 20).Draw(t, "attempts")

		pl := NewPlayerLock()
		var holders, maxHolders, successes atomic.Int32

		var wg sync.WaitGroup
		wg.Add(attempts)
		start := make(chan struct{})
		for i := 0; i < attempts; i++ {
			go func() {
				defer wg.Done()
				<-start
				if pl.TryLock(player) {
					successes.Add(1)
					n := holders.Add(1)
					for {
						m := maxHolders.Load()
						if n <= m || maxHolders.CompareAndSwap(m, n) {
							break
						}
					}
					holders.Add(-1)
					pl.Unlock(player)
				}
			}()
		}
		close(start)
		wg.Wait()

		if successes.Load() < 1 {
			t.Fatal("at least one TryLock should succeed")
		}
		if maxHolders.Load() > 1 {
			t.Fatalf("%d goroutines held the lock at once", maxHolders.Load())
		}
		if pl.IsLocked(player) {
			t.Fatal("lock should be free after every holder released it")
		}
	})
}

// TestLockUnlockSymmetryProperty checks that balanced Lock/Unlock cycles
// leave the lock available.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		player := rapid.Int64Range(1, 1000000).Draw(t, "player")
		cycles := rapid.IntRange(1, 50).Draw(t, "cycles")

		pl := NewPlayerLock()
		for i := 0; i < cycles; i++ {
			pl.Lock(player)
			pl.Unlock(player)
		}

		if !pl.TryLock(player) {
			t.Fatal("lock should be available after symmetric lock/unlock cycles")
		}
		pl.Unlock(player)
	})
}
