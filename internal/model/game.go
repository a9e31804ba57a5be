package model

import "time"

// Game is a score/level record owned by exactly one Account.
//
// Every account gets one at registration; more are added through
// POST /auth/game. Listings are ordered newest first by CreatedAt.
type Game struct {
	ID        int64     `json:"id"        db:"id"`
	OwnerID   int64     `json:"-"         db:"owner_id"`
	Score     int       `json:"score"     db:"score"`
	Level     int       `json:"level"     db:"level"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// GameUpdate carries the optional fields of a game edit.
type GameUpdate struct {
	Score *int
	Level *int
}

// Apply copies the provided fields onto g.
func (u GameUpdate) Apply(g *Game) {
	if u.Score != nil {
		g.Score = *u.Score
	}
	if u.Level != nil {
		g.Level = *u.Level
	}
}
