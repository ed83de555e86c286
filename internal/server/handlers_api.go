package server

import (
	"fmt"
	"net/http"

	"liar-game/internal/game"
	"liar-game/internal/wait"
)

type createRoomRequest struct {
	UserID   string `json:"user_id"`
	RoomName string `json:"room_name"`
}

type roomMemberRequest struct {
	UserID string `json:"user_id"`
}

type setUpGameRequest struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type ballotRequest struct {
	VoterID   string `json:"voter_id"`
	AccusedID string `json:"accused_id"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.RoomName == "" {
		writeError(w, http.StatusBadRequest, "user_id and room_name are required")
		return
	}

	var roomID string
	err := s.withLockRetry(r.Context(), func() error {
		var err error
		roomID, err = s.rooms.CreateWaitRoom(r.Context(), req.UserID, req.RoomName)
		return err
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"room_id": roomID})
}

func (s *Server) handleRoomSearch(w http.ResponseWriter, r *http.Request) {
	kind := wait.SearchKind(r.URL.Query().Get("kind"))
	term := r.URL.Query().Get("term")
	if term == "" {
		writeError(w, http.StatusBadRequest, "term is required")
		return
	}
	rooms, err := s.dir.Search(r.Context(), kind, term)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *Server) handleRoomSubroutes(w http.ResponseWriter, r *http.Request) {
	roomID, action, ok := parseRoomPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		s.handleGetRoom(w, r, roomID)
	case r.Method == http.MethodPost && action == "join":
		s.handleJoinRoom(w, r, roomID)
	case r.Method == http.MethodPost && action == "leave":
		s.handleLeaveRoom(w, r, roomID)
	case r.Method == http.MethodDelete && action == "":
		s.handleDeleteRoom(w, r, roomID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	room, err := s.dir.FindByID(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	var req roomMemberRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var joined bool
	err := s.withLockRetry(r.Context(), func() error {
		var err error
		joined, err = s.rooms.AddMember(r.Context(), roomID, req.UserID)
		return err
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if joined {
		s.broadcastRoom(r.Context(), roomID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"joined": joined})
}

func (s *Server) handleLeaveRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	var req roomMemberRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var left bool
	err := s.withLockRetry(r.Context(), func() error {
		var err error
		left, err = s.rooms.LeaveMember(r.Context(), roomID, req.UserID)
		return err
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if left {
		s.broadcastRoom(r.Context(), roomID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"left": left})
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	var req roomMemberRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	var deleted bool
	err := s.withLockRetry(r.Context(), func() error {
		var err error
		deleted, err = s.rooms.DeleteRoomByHost(r.Context(), roomID, req.UserID)
		return err
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if deleted {
		s.hub.BroadcastClosed(roomID)
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) handleSetUpGame(w http.ResponseWriter, r *http.Request) {
	var req setUpGameRequest
	if err := readJSON(r.Body, &req); err != nil || req.RoomID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "room_id and user_id are required")
		return
	}

	room, err := s.dir.FindByID(r.Context(), req.RoomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !room.IsHost(req.UserID) {
		writeError(w, http.StatusForbidden, "only the host can start the game")
		return
	}

	created, err := s.games.SetUpGame(r.Context(), game.SetUpRequest{
		RoomID:   room.ID,
		HostID:   room.HostID,
		RoomName: room.RoomName,
		UserIDs:  room.Members,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"game_id": created.ID})
}

func (s *Server) handleGameSubroutes(w http.ResponseWriter, r *http.Request) {
	gameID, action, ok := parseGamePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		s.handleGetGame(w, r, gameID)
	case r.Method == http.MethodGet && action == "role":
		s.handlePlayerRole(w, r, gameID)
	case r.Method == http.MethodGet && action == "result":
		s.handleVoteResult(w, r, gameID)
	case r.Method == http.MethodPost && action == "vote-session":
		s.handleSaveVote(w, r, gameID)
	case r.Method == http.MethodPost && action == "ballots":
		s.handleBallot(w, r, gameID)
	case r.Method == http.MethodPost && action == "turn":
		s.handleNextTurn(w, r, gameID)
	case r.Method == http.MethodPost && action == "finish":
		s.handleFinishGame(w, r, gameID)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request, gameID string) {
	loaded, err := s.games.FindGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	// The liar's identity stays server-side until the game is finished.
	writeJSON(w, http.StatusOK, map[string]any{
		"id":         loaded.ID,
		"room_id":    loaded.RoomID,
		"host_id":    loaded.HostID,
		"room_name":  loaded.RoomName,
		"user_ids":   loaded.UserIDs,
		"turn_index": loaded.TurnIndex,
		"turn_user":  loaded.CurrentTurnUser(),
	})
}

// handlePlayerRole tells one participant what they need to know and nothing
// more: citizens get the topic, the liar gets told they're the liar.
func (s *Server) handlePlayerRole(w http.ResponseWriter, r *http.Request, gameID string) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	loaded, err := s.games.FindGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var participant bool
	for _, id := range loaded.UserIDs {
		if id == userID {
			participant = true
		}
	}
	if !participant {
		writeError(w, http.StatusForbidden, "not a participant of this game")
		return
	}
	if userID == loaded.LiarID {
		writeJSON(w, http.StatusOK, map[string]string{"role": "liar", "topic_id": ""})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"role": "citizen", "topic_id": loaded.TopicID})
}

func (s *Server) handleSaveVote(w http.ResponseWriter, r *http.Request, gameID string) {
	loaded, err := s.games.FindGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var sessionID string
	err = s.withLockRetry(r.Context(), func() error {
		var err error
		sessionID, err = s.games.SaveVote(r.Context(), loaded)
		return err
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"vote_session_id": sessionID})
}

func (s *Server) handleBallot(w http.ResponseWriter, r *http.Request, gameID string) {
	var req ballotRequest
	if err := readJSON(r.Body, &req); err != nil || req.VoterID == "" || req.AccusedID == "" {
		writeError(w, http.StatusBadRequest, "voter_id and accused_id are required")
		return
	}
	if err := s.games.VoteLiarUser(r.Context(), gameID, req.VoterID, req.AccusedID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleVoteResult(w http.ResponseWriter, r *http.Request, gameID string) {
	results, err := s.games.MaxVotedLiarUser(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleNextTurn(w http.ResponseWriter, r *http.Request, gameID string) {
	var index int
	err := s.withLockRetry(r.Context(), func() error {
		var err error
		index, err = s.games.NextTurn(r.Context(), gameID)
		return err
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	loaded, err := s.games.FindGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"turn_index": index,
		"turn_user":  loaded.CurrentTurnUser(),
	})
}

// handleFinishGame closes out a game: tally, archive, teardown. Host only.
func (s *Server) handleFinishGame(w http.ResponseWriter, r *http.Request, gameID string) {
	var req roomMemberRequest
	if err := readJSON(r.Body, &req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	loaded, err := s.games.FindGame(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if loaded.HostID != req.UserID {
		writeError(w, http.StatusForbidden, "only the host can finish the game")
		return
	}

	results, err := s.games.MaxVotedLiarUser(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	ballots, err := s.games.Ballots(r.Context(), gameID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.persistGameResult(loaded, results, ballots); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to archive result: %v", err))
		return
	}
	err = s.withLockRetry(r.Context(), func() error {
		return s.games.EndGame(r.Context(), gameID)
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"liar_id":     loaded.LiarID,
		"results":     results,
		"liar_caught": liarCaught(loaded.LiarID, results),
	})
}

// liarCaught reports whether the liar got the most votes outright.
func liarCaught(liarID string, results []game.VotedResult) bool {
	return len(results) == 1 && results[0].LiarID == liarID
}
