package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// KeyInput is the tuple a dedupe key is derived from.
type KeyInput struct {
	UserID        string
	WorkoutType   string
	Minutes       int
	Level         int
	Equipment     []string // already normalized; hashed in the given order
	ProfileDigest *string
}

// DeriveKey hashes the inputs in a fixed field order. The serialization is a
// JSON array, so a nil digest and an empty digest hash differently.
func DeriveKey(in KeyInput) string {
	equipment := in.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	tuple := []any{in.UserID, in.WorkoutType, in.Minutes, in.Level, equipment, in.ProfileDigest}
	// Marshal cannot fail on strings, ints, and string slices.
	b, _ := json.Marshal(tuple)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ResolveKey prefers the caller's explicit key and derives one otherwise.
func ResolveKey(explicit string, in KeyInput) string {
	if explicit != "" {
		return explicit
	}
	return DeriveKey(in)
}
