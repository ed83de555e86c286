package wait

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"liar-game/internal/kv"
	"liar-game/internal/lock"
	"liar-game/internal/member"
)

// ErrRoomNotFound is returned when no wait room exists for the given id.
var ErrRoomNotFound = errors.New("wait room not found")

// Service applies join/leave/teardown transitions to wait rooms. Every
// mutation of a room runs under that room's distributed lock: the member set
// is a read-modify-write and two unguarded joins would lose one of them.
type Service struct {
	store    kv.Store
	locker   lock.Locker
	members  member.Service
	policy   JoinPolicy
	limit    int
	lockWait time.Duration
	lease    time.Duration
}

// NewService wires a wait-room service. limit caps members per room,
// host included.
func NewService(store kv.Store, locker lock.Locker, members member.Service, policy JoinPolicy, limit int, lockWait, lease time.Duration) *Service {
	return &Service{
		store:    store,
		locker:   locker,
		members:  members,
		policy:   policy,
		limit:    limit,
		lockWait: lockWait,
		lease:    lease,
	}
}

// CreateWaitRoom allocates a room for the host after the creation policy and
// the username lookup pass. Returns the new room id.
func (s *Service) CreateWaitRoom(ctx context.Context, hostID, roomName string) (string, error) {
	if err := s.policy.CreateWaitRoomPolicy(ctx, hostID); err != nil {
		return "", err
	}
	hostName, err := s.members.FindUsernameByID(ctx, hostID)
	if err != nil {
		return "", err
	}

	room := NewWaitRoom(hostID, hostName, roomName, s.limit)
	handle, err := s.locker.Acquire(ctx, roomLockName(room.ID), s.lockWait, s.lease)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = handle.Release(ctx)
	}()

	if err := s.saveRoomAndJoin(ctx, room, hostID); err != nil {
		return "", err
	}
	if err := s.store.Put(ctx, hostIndexKey(hostID), []byte(room.ID)); err != nil {
		return "", err
	}
	log.Printf("wait room created room_id=%s host_id=%s name=%q", room.ID, hostID, roomName)
	return room.ID, nil
}

// AddMember admits the user to the room. Returns false without error when
// the room is full or the user is already in; RoomNotFound when the room is
// gone.
func (s *Service) AddMember(ctx context.Context, roomID, userID string) (bool, error) {
	if err := s.policy.JoinWaitRoomPolicy(ctx, userID); err != nil {
		return false, err
	}

	handle, err := s.locker.Acquire(ctx, roomLockName(roomID), s.lockWait, s.lease)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = handle.Release(ctx)
	}()

	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if joined, err := s.currentRoomOf(ctx, userID); err != nil {
		return false, err
	} else if joined != "" && joined != roomID {
		return false, fmt.Errorf("%w: user %s is already in room %s", ErrPolicyViolation, userID, joined)
	}
	if !room.Join(userID) {
		return false, nil
	}
	if err := s.saveRoomAndJoin(ctx, room, userID); err != nil {
		return false, err
	}
	log.Printf("wait room joined room_id=%s user_id=%s members=%d", roomID, userID, len(room.Members))
	return true, nil
}

// LeaveMember removes the user from the room. Returns false for a non-member
// or for the host, who has to use DeleteRoomByHost instead.
func (s *Service) LeaveMember(ctx context.Context, roomID, userID string) (bool, error) {
	handle, err := s.locker.Acquire(ctx, roomLockName(roomID), s.lockWait, s.lease)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = handle.Release(ctx)
	}()

	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if !room.Leave(userID) {
		return false, nil
	}
	if err := s.store.Delete(ctx, joinMemberKey(userID)); err != nil {
		return false, err
	}
	if err := s.putRoom(ctx, room); err != nil {
		return false, err
	}
	log.Printf("wait room left room_id=%s user_id=%s members=%d", roomID, userID, len(room.Members))
	return true, nil
}

// DeleteRoomByHost tears the room down: every member's join marker, the host
// index and the room record itself. Returns false when userID isn't the
// host; nothing is touched in that case.
func (s *Service) DeleteRoomByHost(ctx context.Context, roomID, userID string) (bool, error) {
	handle, err := s.locker.Acquire(ctx, roomLockName(roomID), s.lockWait, s.lease)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = handle.Release(ctx)
	}()

	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	if !room.IsHost(userID) {
		return false, nil
	}
	for _, memberID := range room.Members {
		if err := s.store.Delete(ctx, joinMemberKey(memberID)); err != nil {
			return false, err
		}
	}
	if err := s.store.Delete(ctx, hostIndexKey(room.HostID)); err != nil {
		return false, err
	}
	if err := s.store.Delete(ctx, waitRoomKey(roomID)); err != nil {
		return false, err
	}
	log.Printf("wait room deleted room_id=%s host_id=%s", roomID, userID)
	return true, nil
}

// currentRoomOf returns the room the user's join marker points at, or ""
// when they aren't in any room.
func (s *Service) currentRoomOf(ctx context.Context, userID string) (string, error) {
	raw, err := s.store.Get(ctx, joinMemberKey(userID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var join JoinMember
	if err := json.Unmarshal(raw, &join); err != nil {
		return "", fmt.Errorf("decode join marker %s: %w", userID, err)
	}
	return join.RoomID, nil
}

func (s *Service) findRoom(ctx context.Context, roomID string) (*WaitRoom, error) {
	raw, err := s.store.Get(ctx, waitRoomKey(roomID))
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

func (s *Service) putRoom(ctx context.Context, room *WaitRoom) error {
	encoded, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, waitRoomKey(room.ID), encoded)
}

func (s *Service) saveRoomAndJoin(ctx context.Context, room *WaitRoom, userID string) error {
	if err := s.putRoom(ctx, room); err != nil {
		return err
	}
	join := JoinMember{UserID: userID, RoomID: room.ID}
	encoded, err := json.Marshal(join)
	if err != nil {
		return err
	}
	return s.store.Put(ctx, joinMemberKey(userID), encoded)
}
