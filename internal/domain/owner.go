package domain

import (
	"fmt"
	"strings"
)

// OwnerKind distinguishes account carts from anonymous session carts.
type OwnerKind string

const (
	// OwnerKindAccount marks a cart owned by a registered account.
	OwnerKindAccount OwnerKind = "account"
	// OwnerKindSession marks a cart owned by an anonymous browser session.
	OwnerKindSession OwnerKind = "session"
)

const ownerKeySeparator = ":"

// Owner identifies the holder of a cart. An Owner is either an account or a session, never both;
// the zero value means no identity is available.
type Owner struct {
	kind OwnerKind
	ref  string
}

// AccountOwner returns an owner for the given account reference. Blank references yield the zero owner.
func AccountOwner(accountID string) Owner {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Owner{}
	}
	return Owner{kind: OwnerKindAccount, ref: accountID}
}

// SessionOwner returns an owner for the given anonymous session key. Blank keys yield the zero owner.
func SessionOwner(sessionKey string) Owner {
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == "" {
		return Owner{}
	}
	return Owner{kind: OwnerKindSession, ref: sessionKey}
}

// ParseOwnerKey reverses Owner.Key.
func ParseOwnerKey(key string) (Owner, error) {
	kind, ref, ok := strings.Cut(strings.TrimSpace(key), ownerKeySeparator)
	if !ok {
		return Owner{}, fmt.Errorf("domain: malformed owner key %q", key)
	}
	var owner Owner
	switch OwnerKind(kind) {
	case OwnerKindAccount:
		owner = AccountOwner(ref)
	case OwnerKindSession:
		owner = SessionOwner(ref)
	default:
		return Owner{}, fmt.Errorf("domain: unknown owner kind %q", kind)
	}
	if owner.IsZero() {
		return Owner{}, fmt.Errorf("domain: empty owner reference in %q", key)
	}
	return owner, nil
}

// Kind reports which variant the owner holds.
func (o Owner) Kind() OwnerKind { return o.kind }

// Ref returns the account reference or session key.
func (o Owner) Ref() string { return o.ref }

// IsZero reports whether no identity is present.
func (o Owner) IsZero() bool { return o.kind == "" || o.ref == "" }

// AccountID returns the account reference when the owner is an account.
func (o Owner) AccountID() (string, bool) {
	if o.kind != OwnerKindAccount || o.ref == "" {
		return "", false
	}
	return o.ref, true
}

// SessionKey returns the session key when the owner is an anonymous session.
func (o Owner) SessionKey() (string, bool) {
	if o.kind != OwnerKindSession || o.ref == "" {
		return "", false
	}
	return o.ref, true
}

// Key renders a stable storage key such as "account:uid-1" or "session:abc".
func (o Owner) Key() string {
	if o.IsZero() {
		return ""
	}
	return string(o.kind) + ownerKeySeparator + o.ref
}

func (o Owner) String() string {
	if o.IsZero() {
		return "<anonymous>"
	}
	return o.Key()
}
