package model

import "time"

// TournamentStatus reported by the `check` event.
type TournamentStatus string

const (
	StatusUpcoming TournamentStatus = "upcoming"
	StatusStarted  TournamentStatus = "started"
	StatusEnded    TournamentStatus = "ended"
)

// TextOptions controls challenge text generation.
type TextOptions struct {
	MinWords int `json:"minWords"`
	MaxWords int `json:"maxWords"`
}

// DefaultTextOptions matches the 54..64 word window the generator historically used.
func DefaultTextOptions() TextOptions {
	return TextOptions{MinWords: 54, MaxWords: 64}
}

// TournamentMeta is the persisted description of a tournament. It is immutable
// while a Runtime lives; only EndedAt is written back at shutdown.
type TournamentMeta struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	CreatedBy    string      `json:"createdBy"`
	CreatedAt    time.Time   `json:"createdAt"`
	ScheduledFor time.Time   `json:"scheduledFor"`
	TextOptions  TextOptions `json:"textOptions"`
	EndedAt      *time.Time  `json:"endedAt,omitempty"`
}
