package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no token string was supplied.
	ErrMissingToken = errors.New("missing token")
	// ErrMalformedToken is returned when the token cannot be split or decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken is returned when a correctly signed token is past its exp.
	ErrExpiredToken = errors.New("expired token")
	// ErrUnsupportedToken is returned for well-formed tokens of a kind this issuer does not accept.
	ErrUnsupportedToken = errors.New("unsupported token")
	// ErrInvalidSignature is returned when the signature does not verify under the selected key.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrAuthenticationFailed is the generic failure for anything that could not be classified.
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// KeyClass selects which secret a token is verified against.
type KeyClass int

const (
	AccessKey KeyClass = iota
	RefreshKey
)

func (k KeyClass) String() string {
	switch k {
	case AccessKey:
		return "access"
	case RefreshKey:
		return "refresh"
	default:
		return "unknown"
	}
}

// FailureKind classifies a validation outcome. The zero value means success.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureMissingToken
	FailureMalformedToken
	FailureExpiredToken
	FailureUnsupportedToken
	FailureInvalidSignature
	FailureUnknown
)

func (f FailureKind) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureMissingToken:
		return "missing_token"
	case FailureMalformedToken:
		return "malformed_token"
	case FailureExpiredToken:
		return "expired_token"
	case FailureUnsupportedToken:
		return "unsupported_token"
	case FailureInvalidSignature:
		return "invalid_signature"
	default:
		return "unknown"
	}
}

// Code is the stable wire code rendered to clients for this failure.
func (f FailureKind) Code() string {
	switch f {
	case FailureNone:
		return ""
	case FailureMissingToken:
		return "MISSING_TOKEN"
	case FailureMalformedToken:
		return "MALFORMED_TOKEN"
	case FailureExpiredToken:
		return "EXPIRED_TOKEN"
	case FailureUnsupportedToken:
		return "UNSUPPORTED_TOKEN"
	case FailureInvalidSignature:
		return "INVALID_SIGNATURE"
	default:
		return "AUTHENTICATION_FAILED"
	}
}

// Sentinel returns the package error matching f, or nil for FailureNone.
func (f FailureKind) Sentinel() error {
	switch f {
	case FailureNone:
		return nil
	case FailureMissingToken:
		return ErrMissingToken
	case FailureMalformedToken:
		return ErrMalformedToken
	case FailureExpiredToken:
		return ErrExpiredToken
	case FailureUnsupportedToken:
		return ErrUnsupportedToken
	case FailureInvalidSignature:
		return ErrInvalidSignature
	default:
		return ErrAuthenticationFailed
	}
}

// Keys holds the two distinct HMAC secrets.
type Keys struct {
	Access  []byte
	Refresh []byte
}

// Result carries either validated claims or a classified failure.
type Result struct {
	Claims  *Claims
	Failure FailureKind
	Err     error
}

// OK reports whether validation succeeded.
func (r Result) OK() bool {
	return r.Failure == FailureNone && r.Claims != nil
}

// Validator parses and verifies tokens against one of two keys and never
// returns an unclassified failure.
type Validator struct {
	codec *Codec
	keys  Keys
}

// NewValidator returns a Validator over codec. Both keys must be set and must
// differ.
func NewValidator(codec *Codec, keys Keys) (*Validator, error) {
	if codec == nil {
		return nil, errors.New("nil codec")
	}
	if len(keys.Access) == 0 || len(keys.Refresh) == 0 {
		return nil, ErrEmptyKey
	}
	if string(keys.Access) == string(keys.Refresh) {
		return nil, errors.New("access and refresh keys must differ")
	}
	return &Validator{
		codec: codec,
		keys: Keys{
			Access:  append([]byte(nil), keys.Access...),
			Refresh: append([]byte(nil), keys.Refresh...),
		},
	}, nil
}

// Codec returns the codec the validator parses with.
func (v *Validator) Codec() *Codec {
	return v.codec
}

// Key returns the secret for class, or nil for an unknown class.
func (v *Validator) Key(class KeyClass) []byte {
	switch class {
	case AccessKey:
		return v.keys.Access
	case RefreshKey:
		return v.keys.Refresh
	default:
		return nil
	}
}

// Validate parses tokenStr with the key selected by class.
func (v *Validator) Validate(tokenStr string, class KeyClass) Result {
	if strings.TrimSpace(tokenStr) == "" {
		return failure(FailureMissingToken, nil)
	}
	if strings.Count(tokenStr, ".") != 2 {
		return failure(FailureMalformedToken, errors.New("token contains an invalid number of segments"))
	}

	key := v.Key(class)
	if key == nil {
		return failure(FailureUnknown, fmt.Errorf("unknown key class %d", class))
	}

	claims, err := v.codec.Decode(tokenStr, key)
	if err != nil {
		return failure(Classify(err), err)
	}
	return Result{Claims: claims}
}

// Classify maps a golang-jwt parse error onto a FailureKind. Expiry is checked
// after signature verification by the parser, so FailureExpiredToken always
// implies a valid signature.
func Classify(err error) FailureKind {
	switch {
	case err == nil:
		return FailureNone
	case errors.Is(err, ErrEmptyKey):
		return FailureUnknown
	case errors.Is(err, jwt.ErrTokenMalformed):
		return FailureMalformedToken
	case errors.Is(err, errUnsupportedAlgorithm), errors.Is(err, jwt.ErrTokenUnverifiable):
		return FailureUnsupportedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return FailureInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return FailureExpiredToken
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return FailureUnsupportedToken
	case errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return FailureMalformedToken
	default:
		return FailureUnknown
	}
}

func failure(kind FailureKind, cause error) Result {
	sentinel := kind.Sentinel()
	if cause == nil {
		return Result{Failure: kind, Err: sentinel}
	}
	return Result{Failure: kind, Err: fmt.Errorf("%w: %v", sentinel, cause)}
}
