package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// ActionHashSize is the number of bytes in an ActionHash.
const ActionHashSize = blake2b.Size256

const actionHashPrefix = "blake2b-"

// ActionHash identifies a stored action: a create, update or delete. It is
// derived from the action's content, so two writers that issue the same
// action at the same position produce the same hash.
type ActionHash [ActionHashSize]byte

// ComputeActionHash hashes an action: its entry type, entry bytes, the
// hash of the action it follows, its sequence number and timestamp.
func ComputeActionHash(entryType string, entry []byte, previous ActionHash, seq uint64, at time.Time) ActionHash {
	h, _ := blake2b.New256(nil) // nil key never fails
	h.Write([]byte(entryType))
	h.Write([]byte{0})
	h.Write(entry)
	h.Write(previous[:])
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], seq)
	binary.BigEndian.PutUint64(buf[8:], uint64(at.UnixNano()))
	h.Write(buf[:])

	var out ActionHash
	copy(out[:], h.Sum(nil))
	return out
}

// ParseActionHash parses the text form produced by String.
func ParseActionHash(s string) (ActionHash, error) {
	var out ActionHash
	if !strings.HasPrefix(s, actionHashPrefix) {
		return out, fmt.Errorf("action hash %q: missing %s prefix: %w", s, actionHashPrefix, ErrInvalidID)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, actionHashPrefix))
	if err != nil {
		return out, fmt.Errorf("action hash %q: %w", s, ErrInvalidID)
	}
	if len(raw) != ActionHashSize {
		return out, fmt.Errorf("action hash %q: want %d bytes, got %d: %w", s, ActionHashSize, len(raw), ErrInvalidID)
	}
	copy(out[:], raw)
	return out, nil
}

// IsEmpty reports whether h is the zero hash.
func (h ActionHash) IsEmpty() bool {
	return h == ActionHash{}
}

func (h ActionHash) String() string {
	return actionHashPrefix + hex.EncodeToString(h[:])
}

// MarshalText encodes h; the zero hash encodes as the empty string.
func (h ActionHash) MarshalText() ([]byte, error) {
	if h.IsEmpty() {
		return []byte{}, nil
	}
	return []byte(h.String()), nil
}

// UnmarshalText decodes the form written by MarshalText.
func (h *ActionHash) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = ActionHash{}
		return nil
	}
	parsed, err := ParseActionHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
