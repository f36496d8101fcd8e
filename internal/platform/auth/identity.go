package auth

import (
	"context"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/domain"
)

// Role constants checked on admin routes.
const (
	RoleUser  = "user"
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// Identity is the caller resolved for a request. UID is set for signed-in accounts; SessionKey
// carries the anonymous session header whenever one was sent, including alongside a bearer token.
type Identity struct {
	UID        string
	Email      string
	Roles      []string
	SessionKey string

	token *firebaseauth.Token
}

// Token exposes the decoded Firebase ID token, nil for anonymous sessions.
func (i *Identity) Token() *firebaseauth.Token {
	if i == nil {
		return nil
	}
	return i.token
}

// IsAccount reports whether the caller presented a verified account token.
func (i *Identity) IsAccount() bool {
	return i != nil && i.UID != ""
}

// Owner returns the cart owner for this caller, preferring the account over the session.
func (i *Identity) Owner() domain.Owner {
	if i == nil {
		return domain.Owner{}
	}
	if i.UID != "" {
		return domain.AccountOwner(i.UID)
	}
	return domain.SessionOwner(i.SessionKey)
}

// HasRole reports whether the identity includes the requested role (case-insensitive).
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = normaliseRole(role)
	if role == "" {
		return false
	}
	for _, r := range i.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the identity includes any of the provided roles.
func (i *Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

type contextKey struct{}

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(contextKey{}).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// OwnerFromContext returns the caller's owner, or the zero owner when no identity was resolved.
func OwnerFromContext(ctx context.Context) domain.Owner {
	identity, ok := IdentityFromContext(ctx)
	if !ok {
		return domain.Owner{}
	}
	return identity.Owner()
}
