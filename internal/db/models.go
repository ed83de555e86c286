package db

import (
	"time"

	"gorm.io/datatypes"
)

// GameResult is the archived outcome of one finished game.
type GameResult struct {
	ID           uint           `gorm:"primaryKey"`
	GameID       string         `gorm:"size:64;uniqueIndex;not null"`
	RoomID       string         `gorm:"size:64;index;not null"`
	HostID       string         `gorm:"size:64;index;not null"`
	RoomName     string         `gorm:"size:120;not null"`
	TopicID      string         `gorm:"size:64;not null"`
	LiarID       string         `gorm:"size:64;not null"`
	VotedLiarID  string         `gorm:"size:64;not null;default:''"`
	LiarCaught   bool           `gorm:"not null;default:false"`
	BallotCount  int            `gorm:"not null;default:0"`
	Participants datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt    time.Time      `gorm:"not null"`
	Players      []PlayerResult
}

// PlayerResult is one participant's line in an archived game: who they
// accused and whether they caught the liar.
type PlayerResult struct {
	ID           uint      `gorm:"primaryKey"`
	GameResultID uint      `gorm:"index;not null;uniqueIndex:idx_player_results_game_user"`
	UserID       string    `gorm:"size:64;not null;uniqueIndex:idx_player_results_game_user"`
	VotedFor     string    `gorm:"size:64;not null;default:''"`
	Correct      bool      `gorm:"not null;default:false"`
	CreatedAt    time.Time `gorm:"not null"`
}
