package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"liar-game/internal/config"
	"liar-game/internal/game"
	"liar-game/internal/kv"
	"liar-game/internal/lock"
	"liar-game/internal/member"
	"liar-game/internal/wait"

	"gorm.io/gorm"
)

type Server struct {
	cfg   config.Config
	db    *gorm.DB
	games *game.Service
	rooms *wait.Service
	dir   *wait.Directory
	hub   *roomHub
}

// New wires the coordinators to their store, locker and collaborators. conn
// may be nil, in which case finished games aren't archived.
func New(store kv.Store, locker lock.Locker, members member.Service, conn *gorm.DB, cfg config.Config) *Server {
	return &Server{
		cfg:   cfg,
		db:    conn,
		games: game.NewService(store, locker, cfg.LockWait(), cfg.LockLease()),
		rooms: wait.NewService(store, locker, members, wait.NewHostOncePolicy(store), cfg.RoomMemberLimit, cfg.LockWait(), cfg.LockLease()),
		dir:   wait.NewDirectory(store),
		hub:   newRoomHub(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/search", s.handleRoomSearch)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("DELETE /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/games", s.handleSetUpGame)
	mux.HandleFunc("GET /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("POST /api/games/", s.handleGameSubroutes)
	mux.HandleFunc("GET /ws/rooms/", s.handleRoomWebsocket)
	return mux
}

// withLockRetry re-runs fn on lock timeouts with a doubling backoff. Any
// other error, and the result of the final attempt, pass through unchanged.
func (s *Server) withLockRetry(ctx context.Context, fn func() error) error {
	backoff := 50 * time.Millisecond
	var err error
	for attempt := 0; attempt < s.cfg.LockRetries; attempt++ {
		if err = fn(); !errors.Is(err, lock.ErrLockTimeout) {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}
