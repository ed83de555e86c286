package server

import (
	"encoding/json"
	"log"

	"liar-game/internal/db"
	"liar-game/internal/game"

	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// persistGameResult archives a finished game relationally. With no database
// configured it's a no-op: the game still tears down, it just isn't kept.
func (s *Server) persistGameResult(g *game.Game, results []game.VotedResult, ballots []game.Ballot) error {
	if s.db == nil {
		return nil
	}

	participants, err := json.Marshal(g.UserIDs)
	if err != nil {
		return err
	}
	votedLiarID := ""
	if len(results) == 1 {
		votedLiarID = results[0].LiarID
	}

	players := make([]db.PlayerResult, 0, len(ballots))
	for _, ballot := range ballots {
		players = append(players, db.PlayerResult{
			UserID:   ballot.VoterID,
			VotedFor: ballot.AccusedID,
			Correct:  ballot.AccusedID == g.LiarID,
		})
	}

	record := db.GameResult{
		GameID:       g.ID,
		RoomID:       g.RoomID,
		HostID:       g.HostID,
		RoomName:     g.RoomName,
		TopicID:      g.TopicID,
		LiarID:       g.LiarID,
		VotedLiarID:  votedLiarID,
		LiarCaught:   liarCaught(g.LiarID, results),
		BallotCount:  len(ballots),
		Participants: datatypes.JSON(participants),
		Players:      players,
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&record).Error; err != nil {
		return err
	}
	log.Printf("game result archived game_id=%s ballots=%d", g.ID, len(ballots))
	return nil
}
