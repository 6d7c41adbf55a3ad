// Package credentials holds the immutable API credential record the signing
// engine consumes and the context-propagation helpers callers use to attach
// per-call credentials to a request's context.Context. Grounded on the
// teacher's exchanges.Base.API / account.Credentials shape: a Validator for
// per-exchange required fields, and context-scoped override credentials.
package credentials

import (
	"context"
	"encoding/base64"
	"errors"
)

// Sentinel errors mirroring the teacher's exchanges package naming.
var (
	ErrCredentialsAreEmpty       = errors.New("credentials are empty")
	ErrRequiresAPIKey            = errors.New("requires API key")
	ErrRequiresAPISecret         = errors.New("requires API secret")
	ErrRequiresAPIClientID       = errors.New("requires API client ID")
	ErrRequiresAPIPEMKey         = errors.New("requires API PEM key")
	ErrRequiresPassphrase        = errors.New("requires API passphrase")
	ErrBase64DecodeFailure       = errors.New("could not base64 decode secret")
	ErrContextCredentialsFailure = errors.New("context credentials type assertion failure")
)

// Credentials is an immutable-by-convention API credential record. Callers
// construct one by value and pass it into signing or into an adapter; the
// core never retains it beyond the lifetime of the call or connection that
// needed it.
type Credentials struct {
	Key             string
	Secret          string
	Passphrase      string
	ClientID        string
	PEMKey          string
	SubAccount      string
	OneTimePassword string
}

// String deliberately redacts Secret and PEMKey so accidental logging of a
// Credentials value (e.g. via %+v in an error wrap) never leaks them.
func (c Credentials) String() string {
	redacted := "<empty>"
	if c.Secret != "" {
		redacted = "<redacted>"
	}
	return "credentials{Key:" + redact(c.Key) + " Secret:" + redacted + "}"
}

func redact(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "<redacted>"
}

// IsEmpty reports whether no credential field has been set.
func (c Credentials) IsEmpty() bool {
	return c == Credentials{}
}

// Validator declares which credential fields an exchange's signing pattern
// requires. The zero value requires nothing.
type Validator struct {
	RequiresKey                bool
	RequiresSecret             bool
	RequiresClientID           bool
	RequiresPEM                bool
	RequiresPassphrase         bool
	RequiresBase64DecodeSecret bool
}

// Verify checks c against v, returning the first unmet requirement. A
// RequiresBase64DecodeSecret validator also attempts to base64-decode
// Secret, returning ErrBase64DecodeFailure on malformed input.
func (v Validator) Verify(c Credentials) error {
	if c.IsEmpty() {
		return ErrCredentialsAreEmpty
	}
	if v.RequiresKey && c.Key == "" {
		return ErrRequiresAPIKey
	}
	if v.RequiresSecret && c.Secret == "" {
		return ErrRequiresAPISecret
	}
	if v.RequiresPEM && c.PEMKey == "" {
		return ErrRequiresAPIPEMKey
	}
	if v.RequiresClientID && c.ClientID == "" {
		return ErrRequiresAPIClientID
	}
	if v.RequiresPassphrase && c.Passphrase == "" {
		return ErrRequiresPassphrase
	}
	if v.RequiresBase64DecodeSecret {
		if c.Secret == "" {
			return ErrRequiresAPISecret
		}
		if _, err := base64.StdEncoding.DecodeString(c.Secret); err != nil {
			return ErrBase64DecodeFailure
		}
	}
	return nil
}

type contextKey int

const credentialsContextKey contextKey = iota

// DeployToContext returns a child context carrying c, overriding any
// statically configured credentials for the lifetime of that context —
// the mechanism a caller uses to run one call under a sub-account or
// alternate key without mutating shared exchange state.
func DeployToContext(ctx context.Context, c *Credentials) context.Context {
	return context.WithValue(ctx, credentialsContextKey, c)
}

// FromContext extracts credentials deployed via DeployToContext. ok is false
// if none were deployed; err is non-nil only if a value of the wrong type
// was stored under the context key (a programmer error).
func FromContext(ctx context.Context) (creds *Credentials, ok bool, err error) {
	v := ctx.Value(credentialsContextKey)
	if v == nil {
		return nil, false, nil
	}
	c, typeOK := v.(*Credentials)
	if !typeOK {
		return nil, false, ErrContextCredentialsFailure
	}
	return c, true, nil
}
