package wait

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"liar-game/internal/kv"
)

// SearchKind selects which field a directory search matches on.
type SearchKind string

const (
	SearchByRoomID   SearchKind = "room_id"
	SearchByHostID   SearchKind = "host_id"
	SearchByHostName SearchKind = "host_name"
	SearchByRoomName SearchKind = "room_name"
)

// Directory answers read-only room lookups. It never takes the room lock;
// results are a best-effort view of concurrently changing rooms.
type Directory struct {
	store    kv.Store
	handlers map[SearchKind]func(ctx context.Context, term string) ([]*WaitRoom, error)
}

// NewDirectory builds a directory with its search handlers registered.
func NewDirectory(store kv.Store) *Directory {
	d := &Directory{store: store}
	d.handlers = map[SearchKind]func(ctx context.Context, term string) ([]*WaitRoom, error){
		SearchByRoomID:   d.searchByRoomID,
		SearchByHostID:   d.searchByHostID,
		SearchByHostName: d.searchByHostName,
		SearchByRoomName: d.searchByRoomName,
	}
	return d
}

// Search dispatches to the handler registered for kind. An unknown kind is a
// not-found, not a crash.
func (d *Directory) Search(ctx context.Context, kind SearchKind, term string) ([]*WaitRoom, error) {
	handler, ok := d.handlers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown search kind %q", ErrRoomNotFound, kind)
	}
	return handler(ctx, term)
}

// FindByID returns the room with the exact id.
func (d *Directory) FindByID(ctx context.Context, roomID string) (*WaitRoom, error) {
	raw, err := d.store.Get(ctx, waitRoomKey(roomID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	if err != nil {
		return nil, err
	}
	var room WaitRoom
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("decode wait room %s: %w", roomID, err)
	}
	return &room, nil
}

// FindByHostID returns the host's open room, of which there is at most one.
func (d *Directory) FindByHostID(ctx context.Context, hostID string) (*WaitRoom, error) {
	roomID, err := d.store.Get(ctx, hostIndexKey(hostID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: no open room for host %s", ErrRoomNotFound, hostID)
	}
	if err != nil {
		return nil, err
	}
	return d.FindByID(ctx, string(roomID))
}

// FindAllByHostName returns every room whose host name starts with term.
func (d *Directory) FindAllByHostName(ctx context.Context, hostName string) ([]*WaitRoom, error) {
	return d.scanRooms(ctx, func(room *WaitRoom) bool {
		return strings.HasPrefix(room.HostName, hostName)
	})
}

// FindAllByRoomName returns every room whose name starts with term.
func (d *Directory) FindAllByRoomName(ctx context.Context, roomName string) ([]*WaitRoom, error) {
	return d.scanRooms(ctx, func(room *WaitRoom) bool {
		return strings.HasPrefix(room.RoomName, roomName)
	})
}

func (d *Directory) searchByRoomID(ctx context.Context, term string) ([]*WaitRoom, error) {
	room, err := d.FindByID(ctx, term)
	if err != nil {
		return nil, err
	}
	return []*WaitRoom{room}, nil
}

func (d *Directory) searchByHostID(ctx context.Context, term string) ([]*WaitRoom, error) {
	room, err := d.FindByHostID(ctx, term)
	if err != nil {
		return nil, err
	}
	return []*WaitRoom{room}, nil
}

func (d *Directory) searchByHostName(ctx context.Context, term string) ([]*WaitRoom, error) {
	return d.FindAllByHostName(ctx, term)
}

func (d *Directory) searchByRoomName(ctx context.Context, term string) ([]*WaitRoom, error) {
	return d.FindAllByRoomName(ctx, term)
}

func (d *Directory) scanRooms(ctx context.Context, match func(*WaitRoom) bool) ([]*WaitRoom, error) {
	keys, err := d.store.Keys(ctx, "waitroom:")
	if err != nil {
		return nil, err
	}
	rooms := make([]*WaitRoom, 0, len(keys))
	for _, key := range keys {
		raw, err := d.store.Get(ctx, key)
		if errors.Is(err, kv.ErrKeyNotFound) {
			// Room deleted mid-scan.
			continue
		}
		if err != nil {
			return nil, err
		}
		var room WaitRoom
		if err := json.Unmarshal(raw, &room); err != nil {
			return nil, fmt.Errorf("decode wait room %s: %w", key, err)
		}
		if match(&room) {
			rooms = append(rooms, &room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].RoomName < rooms[j].RoomName
	})
	return rooms, nil
}
