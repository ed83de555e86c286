package wait

import "github.com/google/uuid"

// WaitRoom is the pre-game lobby record. The host is always a member; the
// room is deleted outright when the host tears it down, never left empty.
type WaitRoom struct {
	ID       string   `json:"id"`
	HostID   string   `json:"host_id"`
	HostName string   `json:"host_name"`
	RoomName string   `json:"room_name"`
	Members  []string `json:"members"`
	Limit    int      `json:"limit"`
}

// NewWaitRoom allocates a room with the host as its first member.
func NewWaitRoom(hostID, hostName, roomName string, limit int) *WaitRoom {
	return &WaitRoom{
		ID:       uuid.NewString(),
		HostID:   hostID,
		HostName: hostName,
		RoomName: roomName,
		Members:  []string{hostID},
		Limit:    limit,
	}
}

func (r *WaitRoom) IsHost(userID string) bool {
	return r.HostID == userID
}

func (r *WaitRoom) HasMember(userID string) bool {
	for _, member := range r.Members {
		if member == userID {
			return true
		}
	}
	return false
}

// Join adds the user when the room has space and they aren't already in.
func (r *WaitRoom) Join(userID string) bool {
	if len(r.Members) >= r.Limit || r.HasMember(userID) {
		return false
	}
	r.Members = append(r.Members, userID)
	return true
}

// Leave removes the user from the member list. The host can't leave, only
// delete the room.
func (r *WaitRoom) Leave(userID string) bool {
	if r.IsHost(userID) {
		return false
	}
	for i, member := range r.Members {
		if member == userID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}

// JoinMember mirrors a room membership under its own key so "is this user in
// a room" is a single existence check.
type JoinMember struct {
	UserID string `json:"user_id"`
	RoomID string `json:"room_id"`
}

func waitRoomKey(roomID string) string {
	return "waitroom:" + roomID
}

func joinMemberKey(userID string) string {
	return "join:" + userID
}

func hostIndexKey(hostID string) string {
	return "host:" + hostID
}

func roomLockName(roomID string) string {
	return "lock:waitroom:" + roomID
}
