package model

import "fmt"

// Failure codes surfaced on `*:failure` events.
const (
	CodeNotAccepting    = 1004 // join rejected: room no longer accepts participants
	CodeAlreadyEnded    = 1005 // join rejected: persisted tournament already ended
	CodeMemberNotFound  = 2210 // typing input for a member with no session
	CodeSessionEnded    = 2211 // progress report after the session finished
	CodeInvalidProgress = 2212 // progress report with inconsistent positions
	CodeSessionMissing  = 3101 // `me` query with no session
)

// Failure is the wire payload for every `*:failure` event. It also implements
// error so the core can thread rejections back through ordinary returns.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewFailure(code int, message string) Failure {
	return Failure{Code: code, Message: message}
}

func (f Failure) Error() string {
	return fmt.Sprintf("failure %d: %s", f.Code, f.Message)
}
