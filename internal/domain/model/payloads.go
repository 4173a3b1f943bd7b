package model

import "time"

// Wire payloads for the tournament room protocol. Field names are camelCase on
// the wire; partial payloads use pointer fields with omitempty so only the
// populated subset is serialized.

// ParticipantData is the full public view of a participant session.
type ParticipantData struct {
	Member          Member     `json:"member"`
	CurrentPosition int        `json:"currentPosition"`
	CorrectPosition int        `json:"correctPosition"`
	TotalKeystrokes int        `json:"totalKeystrokes"`
	CurrentSpeed    float64    `json:"currentSpeed"`
	CurrentAccuracy float64    `json:"currentAccuracy"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// PartialParticipantData is the delta view emitted by `update:me` and `update:all`.
type PartialParticipantData struct {
	CurrentPosition *int       `json:"currentPosition,omitempty"`
	CorrectPosition *int       `json:"correctPosition,omitempty"`
	TotalKeystrokes *int       `json:"totalKeystrokes,omitempty"`
	CurrentSpeed    *float64   `json:"currentSpeed,omitempty"`
	CurrentAccuracy *float64   `json:"currentAccuracy,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	EndedAt         *time.Time `json:"endedAt,omitempty"`
}

// MemberUpdate pairs a member id with that member's delta inside `update:all`.
type MemberUpdate struct {
	MemberID string                 `json:"memberId"`
	Updates  PartialParticipantData `json:"updates"`
}

type UpdateMePayload struct {
	Updates PartialParticipantData `json:"updates"`
	RID     int                    `json:"rid"`
}

type UpdateAllPayload struct {
	Updates []MemberUpdate `json:"updates"`
}

// TournamentData is the full public view of a room. Text is omitted until the
// match starts.
type TournamentData struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"createdAt"`
	CreatedBy    string     `json:"createdBy"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	ScheduledEnd *time.Time `json:"scheduledEnd,omitempty"`
	Text         *string    `json:"text,omitempty"`
}

type PartialTournamentData struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
	Text         *string    `json:"text,omitempty"`
}

type UpdateDataPayload struct {
	Updates PartialTournamentData `json:"updates"`
}

type JoinSuccessPayload struct {
	Data         TournamentData    `json:"data"`
	Member       Member            `json:"member"`
	Participants []ParticipantData `json:"participants"`
	Noauth       string            `json:"noauth"`
}

type ParticipantJoinedPayload struct {
	Participant ParticipantData `json:"participant"`
}

type ParticipantLeftPayload struct {
	MemberID string `json:"memberId"`
}

type LeaveSuccessPayload struct {
	Message string `json:"message"`
}

type CheckSuccessPayload struct {
	Status TournamentStatus `json:"status"`
}

// TypePayload is the inbound `type` event: one typed character plus the
// client's request id, echoed back on `update:me`.
type TypePayload struct {
	Character string `json:"character"`
	RID       int    `json:"rid"`
}

// ProgressPayload is the inbound `progress` event: client-computed positions.
type ProgressPayload struct {
	CorrectPosition int `json:"correctPosition"`
	CurrentPosition int `json:"currentPosition"`
	TotalKeystrokes int `json:"totalKeystrokes"`
	RID             int `json:"rid"`
}

// ParticipantDataOf maps a session to its full wire view.
func ParticipantDataOf(s Session) ParticipantData {
	return ParticipantData{
		Member:          s.Member,
		CurrentPosition: s.CurrentPosition,
		CorrectPosition: s.CorrectPosition,
		TotalKeystrokes: s.TotalKeystrokes,
		CurrentSpeed:    s.CurrentSpeed,
		CurrentAccuracy: s.CurrentAccuracy,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}

// PartialOf maps a session to a delta carrying all five mutable fields plus
// the two timestamps.
func PartialOf(s Session) PartialParticipantData {
	cur, cor, tot := s.CurrentPosition, s.CorrectPosition, s.TotalKeystrokes
	spd, acc := s.CurrentSpeed, s.CurrentAccuracy
	return PartialParticipantData{
		CurrentPosition: &cur,
		CorrectPosition: &cor,
		TotalKeystrokes: &tot,
		CurrentSpeed:    &spd,
		CurrentAccuracy: &acc,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
	}
}
