// Package id generates prefixed unique identifiers for marketplace entities.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes used across the application.
// Message IDs are generated client-side before the insert so the realtime
// echo of a self-sent message can be deduplicated by identifier.
const (
	PrefixListing      = "lst"
	PrefixConversation = "conv"
	PrefixMessage      = "msg"
	PrefixBooking      = "bkg"
	PrefixSession      = "ses"
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix_nanoid (e.g., "msg_V1StGXR8Z5jdHi6Bmyt")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
//
// Returns an error if the system has insufficient entropy for secure random generation.
func Generate(prefix string) (string, error) {
	// Use default NanoID (21 characters, URL-safe alphabet)
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "_" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Use this only when you're certain the system entropy is available,
// or when failure should crash the program (e.g., during initialization).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
