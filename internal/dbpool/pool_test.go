package dbpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spec §4.E step 3: acquire must join the least-loaded reusable entry
// under the cap, not merely the first one that can join.
func TestAcquirePrefersLeastLoadedEntry(t *testing.T) {
	p := New(DefaultSettings(), "db", Config{
		Schedule: CapacitySchedule{{OpenCountThreshold: 1, MaxClients: 10}},
	})

	busy := &reusableConnection{activeClients: 5, index: 1}
	idle := &reusableConnection{activeClients: 0, index: 2}
	medium := &reusableConnection{activeClients: 2, index: 3}
	p.conns = []*reusableConnection{busy, idle, medium}

	entry, err := p.acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, idle, entry)
	assert.Equal(t, 1, idle.clients())
	assert.Equal(t, 5, busy.clients())
	assert.Equal(t, 2, medium.clients())
}

// Once the least-loaded entry is also full, acquire should fall
// through to the next-least-loaded entry rather than opening a new
// connection.
func TestAcquireFallsThroughWhenLeastLoadedIsFull(t *testing.T) {
	p := New(DefaultSettings(), "db", Config{
		Schedule: CapacitySchedule{{OpenCountThreshold: 1, MaxClients: 2}},
	})

	full := &reusableConnection{activeClients: 2, index: 1}
	hasRoom := &reusableConnection{activeClients: 1, index: 2}
	p.conns = []*reusableConnection{full, hasRoom}

	entry, err := p.acquire(context.Background())
	require.NoError(t, err)
	assert.Same(t, hasRoom, entry)
	assert.Equal(t, 2, hasRoom.clients())
	assert.Equal(t, 2, full.clients())
}
