package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// roomHub fans wait-room updates out to lobby clients so they see joins and
// leaves without polling.
type roomHub struct {
	mu     sync.Mutex
	groups map[string]map[*websocket.Conn]struct{}
}

func newRoomHub() *roomHub {
	return &roomHub{
		groups: make(map[string]map[*websocket.Conn]struct{}),
	}
}

func (h *roomHub) Add(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	if group == nil {
		group = make(map[*websocket.Conn]struct{})
		h.groups[roomID] = group
	}
	group[conn] = struct{}{}
}

func (h *roomHub) Remove(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	if group == nil {
		return
	}
	delete(group, conn)
	_ = conn.Close()
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

func (h *roomHub) Send(conn *websocket.Conn, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

func (h *roomHub) Broadcast(roomID string, payload any) {
	h.mu.Lock()
	group := h.groups[roomID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.Remove(roomID, conn)
		}
	}
}

// BroadcastClosed tells every lobby client the room is gone and drops them.
func (h *roomHub) BroadcastClosed(roomID string) {
	h.Broadcast(roomID, map[string]string{"type": "room_closed", "room_id": roomID})

	h.mu.Lock()
	group := h.groups[roomID]
	conns := make([]*websocket.Conn, 0, len(group))
	for conn := range group {
		conns = append(conns, conn)
	}
	delete(h.groups, roomID)
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

func (s *Server) handleRoomWebsocket(w http.ResponseWriter, r *http.Request) {
	roomID, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	room, err := s.dir.FindByID(r.Context(), roomID)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_id=%s remote=%s", roomID, r.RemoteAddr)
	s.hub.Add(roomID, conn)
	s.hub.Send(conn, roomSnapshot(room))
	go s.readRoomWS(roomID, conn)
}

func (s *Server) readRoomWS(roomID string, conn *websocket.Conn) {
	defer s.hub.Remove(roomID, conn)
	for {
		// Clients don't send anything meaningful; reads only detect closure.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// broadcastRoom pushes the room's current membership to its lobby clients.
func (s *Server) broadcastRoom(ctx context.Context, roomID string) {
	room, err := s.dir.FindByID(ctx, roomID)
	if err != nil {
		return
	}
	s.hub.Broadcast(roomID, roomSnapshot(room))
}
