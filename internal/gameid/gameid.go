// Package gameid names game sessions. An id is a UUIDv7 written in
// lowercase Crockford base32, so ids sort by creation time and fit in
// a Redis channel name or a URL without escaping.
package gameid

import (
	"encoding/base32"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lowercase
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the size of an encoded id
const Length = 26

var encoding = base32.NewEncoding(alphabet).WithPadding(base32.NoPadding)

// New returns a fresh session id
func New() string {
	return Encode(uuid.Must(uuid.NewV7()))
}

// Encode writes u in the id alphabet
func Encode(u uuid.UUID) string {
	return encoding.EncodeToString(u[:])
}

// Parse decodes an id back to its UUID, which must be version 7.
func Parse(id string) (uuid.UUID, error) {
	if len(id) != Length {
		return uuid.Nil, fmt.Errorf("session id must be %d characters, got %d", Length, len(id))
	}
	raw, err := encoding.DecodeString(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("session id %q: %w", id, err)
	}
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if u.Version() != 7 {
		return uuid.Nil, fmt.Errorf("session id %q is UUID version %d, not 7", id, u.Version())
	}
	return u, nil
}

// Validate reports whether id is a well formed session id
func Validate(id string) error {
	_, err := Parse(id)
	return err
}

// Time returns the creation time embedded in id
func Time(id string) (time.Time, error) {
	u, err := Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec), nil
}
