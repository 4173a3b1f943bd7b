package model

import "time"

// Session is a participant's in-room typing state. One exists per participant
// member of a room; it is mutated exclusively by the typing algorithm under
// the room's per-entry lock.
//
// Invariant: 0 <= CorrectPosition <= CurrentPosition <= len(text).
type Session struct {
	Member          Member     `json:"member"`
	TournamentID    string     `json:"tournamentId"`
	CurrentPosition int        `json:"currentPosition"`
	CorrectPosition int        `json:"correctPosition"`
	TotalKeystrokes int        `json:"totalKeystrokes"`
	CurrentSpeed    float64    `json:"currentSpeed"`
	CurrentAccuracy float64    `json:"currentAccuracy"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// NewSession returns a clean session for a member. Accuracy starts at 100:
// no keystrokes means no mistakes.
func NewSession(member Member, tournamentID string) Session {
	return Session{
		Member:          member,
		TournamentID:    tournamentID,
		CurrentAccuracy: 100,
	}
}

// Finished reports whether the session has a final timestamp.
func (s Session) Finished() bool {
	return s.EndedAt != nil
}
