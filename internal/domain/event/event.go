// Package event holds the outbound lifecycle events the runtime publishes to
// the message bus. These are best-effort notifications for external consumers
// (leaderboards, history writers); room delivery does not depend on them.
package event

import "time"

const (
	RoutingKeyTournamentStarted = "tournament.started.v1"
	RoutingKeyTournamentEnded   = "tournament.ended.v1"
)

// Eventer defines the contract for everything the bus publisher accepts.
type Eventer interface {
	GetID() string
	GetRoutingKey() string
}

var _ Eventer = (*TournamentEvent)(nil)

// TournamentEvent marks a room lifecycle transition.
type TournamentEvent struct {
	ID           string    `json:"id"`
	TournamentID string    `json:"tournamentId"`
	RoutingKey   string    `json:"-"`
	Participants int       `json:"participants"`
	OccurredAt   time.Time `json:"occurredAt"`
}

func (e *TournamentEvent) GetID() string         { return e.ID }
func (e *TournamentEvent) GetRoutingKey() string { return e.RoutingKey }
