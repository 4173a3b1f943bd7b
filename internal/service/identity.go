// Package service hosts the connection-level logic between the websocket
// layer and the tournament runtimes: member identity resolution and the
// dispatcher that pins each tournament id to one runtime.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/typeclash/tournament-service/internal/domain/model"
)

// Handshake is everything the websocket layer extracts from the upgrade
// request before the core gets involved.
type Handshake struct {
	TournamentID string
	Spectator    bool
	Anonymous    bool

	// AuthID and AuthUser come from the transport's auth layer; empty when
	// the client is unauthenticated.
	AuthID   string
	AuthUser *model.User

	// NoauthToken is the x-noauth-unique header, if the client presents one.
	NoauthToken string
}

// Identity is a resolved member plus the token echoed back so an anonymous
// client can resume the same identity on reconnect.
type Identity struct {
	Member     model.Member
	NoauthEcho string
}

// IdentityResolver maps a handshake to a stable Member. Anonymous identities
// are carried in an HMAC-signed opaque token so clients cannot mint arbitrary
// member ids.
type IdentityResolver struct {
	secret []byte
	logger *slog.Logger
}

func NewIdentityResolver(secret string, logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{secret: []byte(secret), logger: logger}
}

func (r *IdentityResolver) Resolve(h Handshake) Identity {
	if h.AuthID != "" && !h.Anonymous {
		return Identity{Member: model.Member{
			ID:          h.AuthID,
			User:        h.AuthUser,
			Participant: !h.Spectator,
		}}
	}

	if id, ok := r.decode(h.NoauthToken); ok {
		return Identity{
			Member:     model.Member{ID: id, Participant: !h.Spectator},
			NoauthEcho: h.NoauthToken,
		}
	}

	id := uuid.NewString()
	r.logger.Debug("minted anonymous member", "member_id", id)
	return Identity{
		Member:     model.Member{ID: id, Participant: !h.Spectator},
		NoauthEcho: r.encode(id),
	}
}

func (r *IdentityResolver) encode(id string) string {
	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString([]byte(id)) +
		"." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (r *IdentityResolver) decode(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	idPart, sigPart, found := strings.Cut(token, ".")
	if !found {
		return "", false
	}
	id, err := base64.RawURLEncoding.DecodeString(idPart)
	if err != nil {
		return "", false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return "", false
	}

	mac := hmac.New(sha256.New, r.secret)
	mac.Write(id)
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return "", false
	}
	return string(id), true
}
