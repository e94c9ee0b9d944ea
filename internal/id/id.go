// Package id issues prefixed NanoID identifiers for entities, translation
// rows, upload tokens and stream clients.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for non-entity identifiers. Entity ids use their kind as prefix.
const (
	PrefixTranslation = "tr"
	PrefixUpload      = "upl"
	PrefixClient      = "client"
)

// Generate creates a prefixed unique ID, e.g. "post-V1StGXR8_Z5jdHi6B-myT".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Token returns an unprefixed NanoID of the given length, used where the
// value is only compared for identity (upload request tokens).
func Token(size int) (string, error) {
	t, err := gonanoid.New(size)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return t, nil
}
