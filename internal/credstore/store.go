// Package credstore extracts the Cursor session credential from the local
// state database. Extraction happens once at startup; the credential is
// immutable for the process lifetime.
package credstore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"
)

// Sentinel errors for the extraction failure taxonomy. Callers match with
// errors.Is; wrapped detail carries the underlying cause.
var (
	// ErrStoreNotFound means the state database file does not exist.
	ErrStoreNotFound = errors.New("cursor database not found")
	// ErrStoreOpen means the file exists but cannot be opened read-only.
	ErrStoreOpen = errors.New("cannot open cursor database")
	// ErrQueryFailed means the ItemTable lookup failed.
	ErrQueryFailed = errors.New("cursor database query failed")
	// ErrTokenNotFound means no access token row exists (not logged in).
	ErrTokenNotFound = errors.New("no auth token found in cursor database, are you logged in?")
	// ErrInvalidToken means the stored value is not a decodable JWT.
	ErrInvalidToken = errors.New("auth token is not a valid JWT")
	// ErrMissingIdentityClaim means the JWT payload has no usable sub claim.
	ErrMissingIdentityClaim = errors.New("auth token missing 'sub' claim")
)

const (
	// accessTokenKey is the fixed ItemTable key holding the JWT.
	accessTokenKey = "cursorAuth/accessToken"
)

// Credential is the derived session credential. Immutable once extracted.
type Credential struct {
	// SessionToken is "{userID}%3A%3A{rawJWT}", the percent-encoded cookie
	// value the API expects.
	SessionToken string
	// UserID is the identifier parsed from the JWT sub claim.
	UserID string
}

// Store locates and reads the Cursor state database.
type Store struct {
	path string
}

// New creates a store for the given database path. An empty path selects the
// platform default location.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the state database path this store reads.
func (s *Store) Path() string {
	return s.path
}

// DefaultPath returns the OS-convention location of Cursor's state.vscdb.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "Cursor", "User", "globalStorage", "state.vscdb")
}

// ExtractCredential reads the access token from the state database and
// derives the session credential. No retry: a failure here is unrecoverable
// for this process run.
func (s *Store) ExtractCredential(ctx context.Context) (Credential, error) {
	if s.path == "" {
		return Credential{}, fmt.Errorf("%w: no default path for this platform", ErrStoreNotFound)
	}
	if _, err := os.Stat(s.path); err != nil {
		return Credential{}, fmt.Errorf("%w: %s", ErrStoreNotFound, s.path)
	}

	db, err := sql.Open("sqlite", "file:"+s.path+"?mode=ro")
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}

	var rawToken string
	row := db.QueryRowContext(ctx, "SELECT value FROM ItemTable WHERE key = ?", accessTokenKey)
	if err := row.Scan(&rawToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Credential{}, ErrTokenNotFound
		}
		return Credential{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	userID, err := userIDFromToken(rawToken)
	if err != nil {
		return Credential{}, err
	}

	// %3A%3A is the percent-encoded "::" separator of the cookie format.
	return Credential{
		SessionToken: userID + "%3A%3A" + rawToken,
		UserID:       userID,
	}, nil
}

// userIDFromToken decodes the JWT payload (without verification) and derives
// the user identifier from the sub claim. A sub of the form "provider|id"
// yields the part after the first pipe; otherwise the whole claim is the id.
func userIDFromToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return "", ErrInvalidToken
	}

	payload, err := base64.StdEncoding.DecodeString(normalizeBase64(parts[1]))
	if err != nil {
		return "", fmt.Errorf("%w: payload is not base64", ErrInvalidToken)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("%w: payload is not JSON", ErrInvalidToken)
	}
	if claims.Sub == "" {
		return "", ErrMissingIdentityClaim
	}

	if _, id, found := strings.Cut(claims.Sub, "|"); found {
		return id, nil
	}
	return claims.Sub, nil
}

// normalizeBase64 maps the URL-safe alphabet back to standard base64 and
// restores padding to a multiple of four characters.
func normalizeBase64(s string) string {
	s = strings.ReplaceAll(s, "-", "+")
	s = strings.ReplaceAll(s, "_", "/")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return s
}
