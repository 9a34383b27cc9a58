// Package id generates record identifiers for catalog entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for each entity kind.
const (
	PrefixFile     = "file"
	PrefixTag      = "tag"
	PrefixSearch   = "search"
	PrefixLocation = "loc"
)

// Generate creates a prefixed NanoID, e.g. "tag-V1StGXR8_Z5jdHi6B-myT".
// NanoIDs never contain ':' so generated ids cannot collide with the
// store's "idx:" key namespace.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if the system is out of entropy.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
