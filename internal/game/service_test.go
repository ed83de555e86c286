package game

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"liar-game/internal/kv"
	"liar-game/internal/lock"
)

func newTestService() (*Service, kv.Store, lock.Locker) {
	store := kv.NewMemoryStore()
	locker := lock.NewMemoryLocker()
	return NewService(store, locker, time.Second, time.Second), store, locker
}

func newTestGame(t *testing.T, svc *Service) *Game {
	t.Helper()
	game, err := svc.SetUpGame(context.Background(), SetUpRequest{
		RoomID:   "room-1",
		HostID:   "1",
		RoomName: "liars den",
		UserIDs:  []string{"1", "2", "3", "4", "5"},
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	return game
}

func TestSetUpGame(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)

	if game.ID == "" {
		t.Fatal("expected a generated game id")
	}
	if game.TopicID == "" {
		t.Fatal("expected an assigned topic")
	}
	found := false
	for _, id := range game.UserIDs {
		if id == game.LiarID {
			found = true
		}
	}
	if !found {
		t.Fatalf("liar %q is not a participant", game.LiarID)
	}
	if game.CurrentTurnUser() != "1" {
		t.Fatalf("expected turn to start at the first participant, got %q", game.CurrentTurnUser())
	}

	loaded, err := svc.FindGame(context.Background(), game.ID)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if loaded.LiarID != game.LiarID {
		t.Fatalf("loaded game differs: %q vs %q", loaded.LiarID, game.LiarID)
	}
}

func TestSetUpGameNoParticipants(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.SetUpGame(context.Background(), SetUpRequest{RoomID: "room-1", HostID: "1"})
	if !errors.Is(err, ErrInvalidGameState) {
		t.Fatalf("expected ErrInvalidGameState, got %v", err)
	}
}

func TestFindGameMissing(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.FindGame(context.Background(), "nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestSaveVoteIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)

	first, err := svc.SaveVote(context.Background(), game)
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	second, err := svc.SaveVote(context.Background(), game)
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical session ids, got %q and %q", first, second)
	}
}

func TestSaveVoteConcurrent(t *testing.T) {
	svc, store, _ := newTestService()
	game := newTestGame(t, svc)

	const num = 100
	results := make([]string, num)
	var wg sync.WaitGroup
	for i := 0; i < num; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id, err := svc.SaveVote(context.Background(), game)
			if err != nil {
				t.Errorf("save failed: %v", err)
				return
			}
			results[n] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < num; i++ {
		if results[i] != results[0] {
			t.Fatalf("caller %d observed %q, caller 0 observed %q", i, results[i], results[0])
		}
	}
	keys, err := store.Keys(context.Background(), "vote:")
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected exactly one vote session record, got %d", len(keys))
	}
}

func TestSaveVoteInvalidGame(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.SaveVote(context.Background(), &Game{ID: "g"}); !errors.Is(err, ErrInvalidGameState) {
		t.Fatalf("expected ErrInvalidGameState, got %v", err)
	}
}

func TestSaveVoteReleasesLock(t *testing.T) {
	svc, _, locker := newTestService()
	game := newTestGame(t, svc)

	if _, err := svc.SaveVote(context.Background(), game); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	handle, err := locker.Acquire(context.Background(), gameLockName(game.ID), 20*time.Millisecond, time.Second)
	if err != nil {
		t.Fatalf("lock should be free after SaveVote, got %v", err)
	}
	_ = handle.Release(context.Background())
}

func TestVoteLiarUserRequiresSession(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)

	err := svc.VoteLiarUser(context.Background(), game.ID, "1", "2")
	if !errors.Is(err, ErrVoteSessionNotFound) {
		t.Fatalf("expected ErrVoteSessionNotFound, got %v", err)
	}
}

func TestVoteLiarUserTally(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)
	ctx := context.Background()

	if _, err := svc.SaveVote(ctx, game); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := svc.VoteLiarUser(ctx, game.ID, strconv.Itoa(i+1), "2"); err != nil {
			t.Fatalf("vote failed: %v", err)
		}
	}

	results, err := svc.MaxVotedLiarUser(ctx, game.ID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected a single result, got %v", results)
	}
	if results[0].LiarID != "2" || results[0].Cnt != 5 {
		t.Fatalf("expected {2 5}, got %v", results[0])
	}
}

func TestVoteLiarUserTallyConcurrent(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)
	ctx := context.Background()

	if _, err := svc.SaveVote(ctx, game); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := svc.VoteLiarUser(ctx, game.ID, strconv.Itoa(n+1), "2"); err != nil {
				t.Errorf("vote failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	results, err := svc.MaxVotedLiarUser(ctx, game.ID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(results) != 1 || results[0].LiarID != "2" || results[0].Cnt != 5 {
		t.Fatalf("expected {2 5}, got %v", results)
	}
}

func TestVoteLiarUserRevoteOverwrites(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)
	ctx := context.Background()

	if _, err := svc.SaveVote(ctx, game); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := svc.VoteLiarUser(ctx, game.ID, "1", "2"); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if err := svc.VoteLiarUser(ctx, game.ID, "1", "3"); err != nil {
		t.Fatalf("re-vote failed: %v", err)
	}

	results, err := svc.MaxVotedLiarUser(ctx, game.ID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(results) != 1 || results[0].LiarID != "3" || results[0].Cnt != 1 {
		t.Fatalf("expected only the second vote to count, got %v", results)
	}
}

func TestMaxVotedLiarUserTie(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)
	ctx := context.Background()

	if _, err := svc.SaveVote(ctx, game); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	_ = svc.VoteLiarUser(ctx, game.ID, "1", "2")
	_ = svc.VoteLiarUser(ctx, game.ID, "3", "2")
	_ = svc.VoteLiarUser(ctx, game.ID, "4", "5")
	_ = svc.VoteLiarUser(ctx, game.ID, "2", "5")
	_ = svc.VoteLiarUser(ctx, game.ID, "5", "1")

	results, err := svc.MaxVotedLiarUser(ctx, game.ID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both tied ids, got %v", results)
	}
	if results[0].LiarID != "2" || results[1].LiarID != "5" {
		t.Fatalf("expected ids 2 and 5, got %v", results)
	}
	if results[0].Cnt != 2 || results[1].Cnt != 2 {
		t.Fatalf("expected counts of 2, got %v", results)
	}
}

func TestMaxVotedLiarUserEmpty(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)
	ctx := context.Background()

	if _, err := svc.SaveVote(ctx, game); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	results, err := svc.MaxVotedLiarUser(ctx, game.ID)
	if err != nil {
		t.Fatalf("tally failed: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results without ballots, got %v", results)
	}
}

func TestNextTurnWraps(t *testing.T) {
	svc, _, _ := newTestService()
	game := newTestGame(t, svc)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := svc.NextTurn(ctx, game.ID); err != nil {
			t.Fatalf("next turn failed: %v", err)
		}
	}
	index, err := svc.NextTurn(ctx, game.ID)
	if err != nil {
		t.Fatalf("next turn failed: %v", err)
	}
	if index != 0 {
		t.Fatalf("expected wrap to 0 after a full cycle, got %d", index)
	}
}

func TestEndGameRemovesEverything(t *testing.T) {
	svc, store, _ := newTestService()
	game := newTestGame(t, svc)
	ctx := context.Background()

	if _, err := svc.SaveVote(ctx, game); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	_ = svc.VoteLiarUser(ctx, game.ID, "1", "2")

	if err := svc.EndGame(ctx, game.ID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	for _, key := range []string{gameKey(game.ID), voteSessionKey(game.ID), ballotKey(game.ID, "1")} {
		if ok, _ := store.Exists(ctx, key); ok {
			t.Fatalf("expected %s to be deleted", key)
		}
	}

	// Repeating the teardown is a no-op.
	if err := svc.EndGame(ctx, game.ID); err != nil {
		t.Fatalf("second end failed: %v", err)
	}
}
