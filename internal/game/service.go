package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sort"
	"time"

	"liar-game/internal/kv"
	"liar-game/internal/lock"

	"github.com/google/uuid"
)

var (
	// ErrGameNotFound is returned when no game exists for the given id.
	ErrGameNotFound = errors.New("game not found")
	// ErrVoteSessionNotFound is returned when a ballot arrives before the
	// vote session was created.
	ErrVoteSessionNotFound = errors.New("vote session not found")
	// ErrInvalidGameState is returned for games that can't be acted on, such
	// as a setup request with no participants.
	ErrInvalidGameState = errors.New("invalid game state")
)

// topicPool is the fixed set of topics a game can be dealt.
var topicPool = []string{
	"topic-food",
	"topic-sports",
	"topic-movies",
	"topic-animals",
	"topic-places",
	"topic-jobs",
}

// Service owns game, vote-session and ballot records in the shared store.
// Vote-session creation and turn advancement go through the per-game
// distributed lock; ballot writes are independent keys and don't.
type Service struct {
	store    kv.Store
	locker   lock.Locker
	lockWait time.Duration
	lease    time.Duration
}

// NewService wires a game service to its store and locker. lockWait bounds
// how long a caller blocks for the per-game lock; lease bounds how long a
// crashed holder can keep it.
func NewService(store kv.Store, locker lock.Locker, lockWait, lease time.Duration) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		lockWait: lockWait,
		lease:    lease,
	}
}

// SetUpRequest carries the finalized wait-room data a game is built from.
type SetUpRequest struct {
	RoomID   string   `json:"room_id"`
	HostID   string   `json:"host_id"`
	RoomName string   `json:"room_name"`
	UserIDs  []string `json:"user_ids"`
}

// SetUpGame creates a game from a finalized wait room: fresh id, a random
// topic from the pool, one participant dealt the liar role, turn pointer at
// the first participant.
func (s *Service) SetUpGame(ctx context.Context, req SetUpRequest) (*Game, error) {
	if len(req.UserIDs) == 0 {
		return nil, fmt.Errorf("%w: no participants", ErrInvalidGameState)
	}
	game := &Game{
		ID:       uuid.NewString(),
		RoomID:   req.RoomID,
		HostID:   req.HostID,
		RoomName: req.RoomName,
		UserIDs:  append([]string(nil), req.UserIDs...),
		TopicID:  topicPool[rand.IntN(len(topicPool))],
		LiarID:   req.UserIDs[rand.IntN(len(req.UserIDs))],
	}
	if err := s.putGame(ctx, game); err != nil {
		return nil, err
	}
	log.Printf("game created game_id=%s room_id=%s players=%d", game.ID, game.RoomID, len(game.UserIDs))
	return game, nil
}

// FindGame loads a game by id.
func (s *Service) FindGame(ctx context.Context, gameID string) (*Game, error) {
	raw, err := s.store.Get(ctx, gameKey(gameID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	if err != nil {
		return nil, err
	}
	var game Game
	if err := json.Unmarshal(raw, &game); err != nil {
		return nil, fmt.Errorf("decode game %s: %w", gameID, err)
	}
	return &game, nil
}

// SaveVote creates the vote session for the game if one doesn't exist yet
// and returns its id. The per-game lock makes creation happen at most once:
// every concurrent caller for the same game observes the same session id.
// The store read/write pair is not atomic on its own, so the check must stay
// under the lock.
func (s *Service) SaveVote(ctx context.Context, game *Game) (string, error) {
	if game == nil || len(game.UserIDs) == 0 {
		return "", fmt.Errorf("%w: game has no participants", ErrInvalidGameState)
	}

	handle, err := s.locker.Acquire(ctx, gameLockName(game.ID), s.lockWait, s.lease)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = handle.Release(ctx)
	}()

	key := voteSessionKey(game.ID)
	raw, err := s.store.Get(ctx, key)
	if err == nil {
		var existing VoteSession
		if err := json.Unmarshal(raw, &existing); err != nil {
			return "", fmt.Errorf("decode vote session %s: %w", game.ID, err)
		}
		return existing.ID, nil
	}
	if !errors.Is(err, kv.ErrKeyNotFound) {
		return "", err
	}

	session := VoteSession{
		ID:        uuid.NewString(),
		GameID:    game.ID,
		CreatedAt: time.Now().UTC(),
	}
	encoded, err := json.Marshal(session)
	if err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, key, encoded); err != nil {
		return "", err
	}
	log.Printf("vote session created game_id=%s session_id=%s", game.ID, session.ID)
	return session.ID, nil
}

// VoteLiarUser records voterID's accusation of accusedID. A second call by
// the same voter replaces the first ballot rather than adding one.
func (s *Service) VoteLiarUser(ctx context.Context, gameID, voterID, accusedID string) error {
	exists, err := s.store.Exists(ctx, voteSessionKey(gameID))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: game %s", ErrVoteSessionNotFound, gameID)
	}

	ballot := Ballot{GameID: gameID, VoterID: voterID, AccusedID: accusedID}
	encoded, err := json.Marshal(ballot)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, ballotKey(gameID, voterID), encoded)
}

// Ballots returns every live ballot for the game. Reads without the lock:
// each ballot is an independent key and a concurrent re-vote just means the
// voter's latest choice wins.
func (s *Service) Ballots(ctx context.Context, gameID string) ([]Ballot, error) {
	keys, err := s.store.Keys(ctx, ballotPrefix(gameID))
	if err != nil {
		return nil, err
	}
	ballots := make([]Ballot, 0, len(keys))
	for _, key := range keys {
		raw, err := s.store.Get(ctx, key)
		if errors.Is(err, kv.ErrKeyNotFound) {
			// Deleted between the scan and the read; skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		var ballot Ballot
		if err := json.Unmarshal(raw, &ballot); err != nil {
			return nil, fmt.Errorf("decode ballot %s: %w", key, err)
		}
		ballots = append(ballots, ballot)
	}
	return ballots, nil
}

// MaxVotedLiarUser tallies the live ballots and returns every accused id
// whose count equals the maximum. Ties come back together; no ballots means
// an empty list.
func (s *Service) MaxVotedLiarUser(ctx context.Context, gameID string) ([]VotedResult, error) {
	ballots, err := s.Ballots(ctx, gameID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, ballot := range ballots {
		counts[ballot.AccusedID]++
	}

	max := 0
	for _, count := range counts {
		if count > max {
			max = count
		}
	}

	results := make([]VotedResult, 0, len(counts))
	for accused, count := range counts {
		if count == max {
			results = append(results, VotedResult{LiarID: accused, Cnt: count})
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].LiarID < results[j].LiarID
	})
	return results, nil
}

// NextTurn advances the turn pointer under the game lock, wrapping at the
// participant count, and returns the new index.
func (s *Service) NextTurn(ctx context.Context, gameID string) (int, error) {
	handle, err := s.locker.Acquire(ctx, gameLockName(gameID), s.lockWait, s.lease)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = handle.Release(ctx)
	}()

	game, err := s.FindGame(ctx, gameID)
	if err != nil {
		return 0, err
	}
	game.TurnIndex = (game.TurnIndex + 1) % len(game.UserIDs)
	if err := s.putGame(ctx, game); err != nil {
		return 0, err
	}
	return game.TurnIndex, nil
}

// EndGame tears down the game, its vote session and all of its ballots.
// Idempotent: repeating the call after the keys are gone is a no-op.
func (s *Service) EndGame(ctx context.Context, gameID string) error {
	handle, err := s.locker.Acquire(ctx, gameLockName(gameID), s.lockWait, s.lease)
	if err != nil {
		return err
	}
	defer func() {
		_ = handle.Release(ctx)
	}()

	keys, err := s.store.Keys(ctx, ballotPrefix(gameID))
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	if err := s.store.Delete(ctx, voteSessionKey(gameID)); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, gameKey(gameID)); err != nil {
		return err
	}
	log.Printf("game ended game_id=%s", gameID)
	return nil
}

func (s *Service) putGame(ctx context.Context, game *Game) error {
	encoded, err := json.Marshal(game)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, gameKey(game.ID), encoded)
}
