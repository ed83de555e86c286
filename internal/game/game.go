package game

import "time"

// Game is the store-backed record for one running round. The participant
// list is fixed at setup; only the turn pointer changes afterwards.
type Game struct {
	ID        string   `json:"id"`
	RoomID    string   `json:"room_id"`
	HostID    string   `json:"host_id"`
	RoomName  string   `json:"room_name"`
	UserIDs   []string `json:"user_ids"`
	TopicID   string   `json:"topic_id"`
	LiarID    string   `json:"liar_id"`
	TurnIndex int      `json:"turn_index"`
}

// CurrentTurnUser returns the participant whose turn it is.
func (g *Game) CurrentTurnUser() string {
	if len(g.UserIDs) == 0 {
		return ""
	}
	return g.UserIDs[g.TurnIndex%len(g.UserIDs)]
}

// VoteSession is the one-time-created record permitting ballots for a game.
// There is at most one per game, ever.
type VoteSession struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Ballot is one voter's current accusation. Re-voting overwrites it.
type Ballot struct {
	GameID    string `json:"game_id"`
	VoterID   string `json:"voter_id"`
	AccusedID string `json:"accused_id"`
}

// VotedResult is a tally row: how many ballots name LiarID.
type VotedResult struct {
	LiarID string `json:"liar_id"`
	Cnt    int    `json:"cnt"`
}

func gameKey(id string) string {
	return "game:" + id
}

func voteSessionKey(gameID string) string {
	return "vote:" + gameID
}

func ballotKey(gameID, voterID string) string {
	return "ballot:" + gameID + ":" + voterID
}

func ballotPrefix(gameID string) string {
	return "ballot:" + gameID + ":"
}

func gameLockName(gameID string) string {
	return "lock:game:" + gameID
}
