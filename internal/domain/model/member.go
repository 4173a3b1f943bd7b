package model

// User carries the public profile of an authenticated account.
type User struct {
	Username string `json:"username"`
}

// Member is the stable identity of a connection within a tournament room.
// For authenticated clients the id derives from the account; for anonymous
// clients it is minted on first connect and echoed back as an opaque noauth
// token so the client can resume the same identity on reconnect.
type Member struct {
	ID          string `json:"id"`
	User        *User  `json:"user,omitempty"`
	Participant bool   `json:"participant"`
}
