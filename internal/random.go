package internal

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"io"
)

// SessionIDBytes is the entropy of a session id (200 bits).
const SessionIDBytes = 25

// SessionIDLength is the encoded length of a session id.
const SessionIDLength = SessionIDBytes * 8 / 5

var sessionIDEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

type SessionID [SessionIDBytes]byte

// NewSessionID reads a fresh id from r, or crypto/rand when r is nil.
func NewSessionID(r io.Reader) (SessionID, error) {
	if r == nil {
		r = rand.Reader
	}
	var sid SessionID
	_, err := io.ReadFull(r, sid[:])
	return sid, err
}

func (s SessionID) Bytes() []byte {
	return s[:]
}

func (s SessionID) String() string {
	// lowercase base32, no padding, cookie-safe
	return sessionIDEncoding.EncodeToString(s[:])
}

func ParseSessionID(sessionID string) (SessionID, error) {
	var sid SessionID

	if len(sessionID) != SessionIDLength {
		return sid, errors.New("invalid session id size")
	}
	raw, err := sessionIDEncoding.DecodeString(sessionID)
	if err != nil {
		return sid, err
	}

	copy(sid[:], raw)
	return sid, nil
}

// ValidSessionID reports whether s could have been produced by NewSessionID.
func ValidSessionID(s string) bool {
	_, err := ParseSessionID(s)
	return err == nil
}
