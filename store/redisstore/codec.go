package redisstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/huiapp/huiauth/store"
)

// CurrentSchemaVersion is the leading byte of every encoded session.
const CurrentSchemaVersion = 1

const (
	maxUserIDLen     = 255
	maxPermissionLen = 255
	maxPermissions   = 1<<16 - 1
)

var errCorrupt = errors.New("redisstore: corrupt session blob")

// Encode serializes a session. The id is the Redis key and is not
// repeated in the value.
//
// Layout v1: version | userLen u8 | userID | expiresAt i64 ms BE |
// permCount u16 BE | (permLen u8 | perm)*
func Encode(s store.Session) ([]byte, error) {
	if len(s.UserID) > maxUserIDLen {
		return nil, errors.New("redisstore: userID too long")
	}
	perms := s.Attributes.Permissions
	if len(perms) > maxPermissions {
		return nil, errors.New("redisstore: too many permissions")
	}

	var buf bytes.Buffer
	buf.Grow(1 + 1 + len(s.UserID) + 8 + 2 + len(perms)*16)

	buf.WriteByte(CurrentSchemaVersion)
	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt.UnixMilli()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(perms))); err != nil {
		return nil, err
	}
	for _, p := range perms {
		if len(p) > maxPermissionLen {
			return nil, fmt.Errorf("redisstore: permission %q too long", p)
		}
		buf.WriteByte(byte(len(p)))
		buf.WriteString(p)
	}

	return buf.Bytes(), nil
}

// Decode parses a blob produced by [Encode]. The returned session has no ID.
func Decode(data []byte) (store.Session, error) {
	var s store.Session
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return s, errCorrupt
	}
	if version != CurrentSchemaVersion {
		return s, fmt.Errorf("redisstore: unsupported session schema version %d", version)
	}

	userID, err := readShortString(reader)
	if err != nil {
		return s, err
	}
	s.UserID = userID

	var expiresMs int64
	if err := binary.Read(reader, binary.BigEndian, &expiresMs); err != nil {
		return s, errCorrupt
	}
	s.ExpiresAt = time.UnixMilli(expiresMs).UTC()

	var count uint16
	if err := binary.Read(reader, binary.BigEndian, &count); err != nil {
		return s, errCorrupt
	}
	// each permission needs at least its length byte
	if int(count) > reader.Len() {
		return s, errCorrupt
	}
	perms := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		p, err := readShortString(reader)
		if err != nil {
			return s, err
		}
		perms = append(perms, p)
	}
	s.Attributes.Permissions = perms

	if reader.Len() != 0 {
		return s, errCorrupt
	}
	return s, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", errCorrupt
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", errCorrupt
	}
	return string(b), nil
}
