package server

import "liar-game/internal/wait"

func roomSnapshot(room *wait.WaitRoom) map[string]any {
	return map[string]any{
		"type":      "room_update",
		"room_id":   room.ID,
		"room_name": room.RoomName,
		"host_id":   room.HostID,
		"host_name": room.HostName,
		"members":   room.Members,
		"limit":     room.Limit,
	}
}
