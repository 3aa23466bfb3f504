package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinBurst(t *testing.T) {
	krl := New(1.0, 3)
	defer krl.Stop()

	// Burst of 3 should allow three immediate requests.
	assert.True(t, krl.Allow("nominatim"))
	assert.True(t, krl.Allow("nominatim"))
	assert.True(t, krl.Allow("nominatim"))

	// Fourth immediate request exceeds the burst.
	assert.False(t, krl.Allow("nominatim"))
}

func TestKeysAreIndependent(t *testing.T) {
	krl := New(1.0, 1)
	defer krl.Stop()

	assert.True(t, krl.Allow("nominatim"))
	assert.False(t, krl.Allow("nominatim"))

	// A different host has its own bucket.
	assert.True(t, krl.Allow("ipapi"))
}

func TestWaitRespectsContext(t *testing.T) {
	krl := New(0.1, 1) // one token every 10s after the burst
	defer krl.Stop()

	require.NoError(t, krl.Wait(context.Background(), "host"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := krl.Wait(ctx, "host")
	assert.Error(t, err, "wait should fail once the context deadline passes")
}
