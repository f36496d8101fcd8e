package auth

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/Emirlan007/Cassini-shop-sub001/internal/platform/httpx"
)

const (
	defaultRoleClaim     = "role"
	defaultEmailClaim    = "email"
	defaultSessionHeader = "X-Session-Key"
	defaultVerifyTimeout = 5 * time.Second
)

var (
	// ErrTokenExpired signals that the provided Firebase ID token has expired.
	ErrTokenExpired = errors.New("auth: firebase id token expired")
	// ErrTokenInvalid signals that the provided Firebase ID token is invalid for other reasons.
	ErrTokenInvalid = errors.New("auth: firebase id token invalid")

	sessionKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)
)

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// Authenticator resolves request identities from bearer tokens and session headers.
type Authenticator struct {
	verifier      TokenVerifier
	roleClaim     string
	sessionHeader string
	adminRoles    []string
	timeout       time.Duration
}

// Option customises Authenticator behaviour.
type Option func(*Authenticator)

// WithRoleClaim overrides the custom claim used for role extraction.
func WithRoleClaim(claim string) Option {
	return func(a *Authenticator) {
		if claim = strings.TrimSpace(claim); claim != "" {
			a.roleClaim = claim
		}
	}
}

// WithSessionHeader overrides the header carrying the anonymous session key.
func WithSessionHeader(header string) Option {
	return func(a *Authenticator) {
		if header = strings.TrimSpace(header); header != "" {
			a.sessionHeader = header
		}
	}
}

// WithAdminRoles sets the roles accepted by RequireAdmin.
func WithAdminRoles(roles ...string) Option {
	return func(a *Authenticator) {
		normalised := make([]string, 0, len(roles))
		for _, role := range roles {
			if role = normaliseRole(role); role != "" {
				normalised = append(normalised, role)
			}
		}
		if len(normalised) > 0 {
			a.adminRoles = normalised
		}
	}
}

// WithVerificationTimeout sets the timeout used when verifying tokens.
func WithVerificationTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAuthenticator constructs an Authenticator. A nil verifier rejects every bearer token.
func NewAuthenticator(verifier TokenVerifier, opts ...Option) *Authenticator {
	a := &Authenticator{
		verifier:      verifier,
		roleClaim:     defaultRoleClaim,
		sessionHeader: defaultSessionHeader,
		adminRoles:    []string{RoleAdmin, RoleStaff},
		timeout:       defaultVerifyTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// Resolve attaches the caller identity to the request context. A bearer token that fails
// verification is rejected; requests without any credentials pass through anonymously.
func (a *Authenticator) Resolve() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			identity := &Identity{}

			if raw := strings.TrimSpace(r.Header.Get(a.sessionHeader)); raw != "" {
				if !sessionKeyPattern.MatchString(raw) {
					httpx.WriteError(ctx, w, httpx.NewError("invalid_session_key", "session key is malformed", http.StatusBadRequest))
					return
				}
				identity.SessionKey = raw
			}

			if header := r.Header.Get("Authorization"); strings.TrimSpace(header) != "" {
				tokenStr, ok := extractBearerToken(header)
				if !ok {
					httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authorization header invalid", http.StatusUnauthorized))
					return
				}
				token, err := a.verify(ctx, tokenStr)
				if err != nil {
					respondVerificationError(ctx, w, err)
					return
				}
				identity.UID = token.UID
				identity.Email = claimAsString(token.Claims, defaultEmailClaim)
				identity.Roles = rolesFromClaims(token.Claims, a.roleClaim)
				if len(identity.Roles) == 0 {
					identity.Roles = []string{RoleUser}
				}
				identity.token = token
			}

			if identity.UID == "" && identity.SessionKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// RequireAccount rejects requests without a verified account token.
func (a *Authenticator) RequireAccount() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !identity.IsAccount() {
				httpx.WriteError(r.Context(), w, httpx.NewError("identity_required", "sign in required", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests whose account lacks every configured admin role.
func (a *Authenticator) RequireAdmin() func(http.Handler) http.Handler {
	requireAccount := a.RequireAccount()
	return func(next http.Handler) http.Handler {
		return requireAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, _ := IdentityFromContext(r.Context())
			if !identity.HasAnyRole(a.adminRoles...) {
				httpx.WriteError(r.Context(), w, httpx.NewError("insufficient_role", "identity does not have required role", http.StatusForbidden))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// IsAdmin reports whether the identity holds one of the configured admin roles.
func (a *Authenticator) IsAdmin(identity *Identity) bool {
	return identity.IsAccount() && identity.HasAnyRole(a.adminRoles...)
}

func (a *Authenticator) verify(ctx context.Context, raw string) (*firebaseauth.Token, error) {
	if a == nil || a.verifier == nil {
		return nil, ErrTokenInvalid
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	token, err := a.verifier.VerifyIDToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if token == nil || strings.TrimSpace(token.UID) == "" {
		return nil, ErrTokenInvalid
	}
	return token, nil
}

func rolesFromClaims(claims map[string]any, key string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(role string) {
		role = normaliseRole(role)
		if role == "" {
			return
		}
		if _, exists := seen[role]; exists {
			return
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}

	switch v := claims[key].(type) {
	case string:
		add(v)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	case []string:
		for _, item := range v {
			add(item)
		}
	case map[string]any:
		for role, enabled := range v {
			if b, ok := enabled.(bool); ok && b {
				add(role)
			}
		}
	}
	return out
}

func claimAsString(claims map[string]any, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func extractBearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func respondVerificationError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired), firebaseauth.IsIDTokenExpired(err):
		httpx.WriteError(ctx, w, httpx.NewError("token_expired", "firebase id token expired", http.StatusUnauthorized))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_token", "firebase id token invalid", http.StatusUnauthorized))
	}
}
