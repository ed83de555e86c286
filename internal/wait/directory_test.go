package wait

import (
	"context"
	"errors"
	"testing"
	"time"

	"liar-game/internal/kv"
	"liar-game/internal/lock"
	"liar-game/internal/member"
)

func newTestDirectory(t *testing.T) (*Directory, *Service) {
	t.Helper()
	store := kv.NewMemoryStore()
	locker := lock.NewMemoryLocker()
	members := member.Func(func(_ context.Context, userID string) (string, error) {
		return "name-" + userID, nil
	})
	svc := NewService(store, locker, members, NewHostOncePolicy(store), 5, time.Second, time.Second)
	return NewDirectory(store), svc
}

func TestDirectoryFindByHostID(t *testing.T) {
	dir, svc := newTestDirectory(t)
	ctx := context.Background()

	roomID, err := svc.CreateWaitRoom(ctx, "h1", "alpha den")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	room, err := dir.FindByHostID(ctx, "h1")
	if err != nil {
		t.Fatalf("find by host failed: %v", err)
	}
	if room.ID != roomID {
		t.Fatalf("expected room %s, got %s", roomID, room.ID)
	}

	if _, err := dir.FindByHostID(ctx, "h2"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestDirectoryNameSearches(t *testing.T) {
	dir, svc := newTestDirectory(t)
	ctx := context.Background()

	if _, err := svc.CreateWaitRoom(ctx, "h1", "alpha den"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.CreateWaitRoom(ctx, "h2", "alpha lounge"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := svc.CreateWaitRoom(ctx, "h3", "beta den"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	rooms, err := dir.FindAllByRoomName(ctx, "alpha")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 alpha rooms, got %d", len(rooms))
	}
	if rooms[0].RoomName != "alpha den" || rooms[1].RoomName != "alpha lounge" {
		t.Fatalf("unexpected order: %v, %v", rooms[0].RoomName, rooms[1].RoomName)
	}

	rooms, err = dir.FindAllByHostName(ctx, "name-h3")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(rooms) != 1 || rooms[0].RoomName != "beta den" {
		t.Fatalf("expected only beta den, got %v", rooms)
	}
}

func TestDirectorySearchDispatch(t *testing.T) {
	dir, svc := newTestDirectory(t)
	ctx := context.Background()

	roomID, err := svc.CreateWaitRoom(ctx, "h1", "alpha den")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for kind, term := range map[SearchKind]string{
		SearchByRoomID:   roomID,
		SearchByHostID:   "h1",
		SearchByHostName: "name-h1",
		SearchByRoomName: "alpha",
	} {
		rooms, err := dir.Search(ctx, kind, term)
		if err != nil {
			t.Fatalf("search %s failed: %v", kind, err)
		}
		if len(rooms) != 1 || rooms[0].ID != roomID {
			t.Fatalf("search %s returned %v", kind, rooms)
		}
	}

	if _, err := dir.Search(ctx, SearchKind("by_vibes"), "x"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound for unknown kind, got %v", err)
	}
}
