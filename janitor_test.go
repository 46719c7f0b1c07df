package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepEvictsAfterGrace(t *testing.T) {
	t.Parallel()

	cfg := &Config{gracePeriod: 2 * time.Minute}
	app := testApp(1)
	aliceID := uuid.New()
	bobID := uuid.New()

	alice := testClient(aliceID)
	bob := testClient(bobID)

	app.mu.Lock()
	app.games.addPlayer("room", bobID, "bob")
	app.games.addPlayer("room", aliceID, "alice")
	app.registerLocked(alice)
	app.registerLocked(bob)
	app.mu.Unlock()

	app.drop(bob)

	app.mu.Lock()
	app.exits[bobID] = time.Now().Add(-3 * time.Minute)
	app.mu.Unlock()

	queuedEvents(alice)

	app.sweepExits(cfg, time.Now())

	app.mu.Lock()
	game := app.games.find("room")
	require.NotNil(t, game)
	assert.Len(t, game.players, 1)
	assert.Equal(t, aliceID, game.players[0].ID)
	assert.Empty(t, app.exits, "evicted players lose their exit record")
	app.mu.Unlock()

	events := queuedEvents(alice)
	require.Len(t, events, 1, "survivors hear about the eviction")

	snap, ok := events[0].Body.(GameMessage)
	require.True(t, ok)
	assert.Len(t, snap.Players, 1)
	assert.Equal(t, aliceID, snap.Stage.PlayerID, "the stage is repaired before broadcasting")
}

func TestSweepKeepsRecentExits(t *testing.T) {
	t.Parallel()

	cfg := &Config{gracePeriod: 2 * time.Minute}
	app := testApp(2)
	bobID := uuid.New()

	app.mu.Lock()
	app.games.addPlayer("room", bobID, "bob")
	app.exits[bobID] = time.Now().Add(-time.Minute)
	app.mu.Unlock()

	app.sweepExits(cfg, time.Now())

	app.mu.Lock()
	require.NotNil(t, app.games.find("room"))
	assert.Len(t, app.games.find("room").players, 1, "players inside the grace period stay")
	assert.Contains(t, app.exits, bobID, "the exit record stays until eviction or reconnect")
	app.mu.Unlock()
}

func TestReconnectVoidsEviction(t *testing.T) {
	t.Parallel()

	cfg := &Config{gracePeriod: 2 * time.Minute}
	app := testApp(3)
	bobID := uuid.New()

	first := testClient(bobID)

	app.mu.Lock()
	app.games.addPlayer("room", bobID, "bob")
	app.registerLocked(first)
	app.mu.Unlock()

	app.drop(first)

	app.mu.Lock()
	app.exits[bobID] = time.Now().Add(-3 * time.Minute)
	app.registerLocked(testClient(bobID))
	app.mu.Unlock()

	app.sweepExits(cfg, time.Now())

	app.mu.Lock()
	require.NotNil(t, app.games.find("room"))
	assert.Len(t, app.games.find("room").players, 1, "a reconnected player is never evicted")
	app.mu.Unlock()
}

func TestSweepBroadcastsOncePerRoom(t *testing.T) {
	t.Parallel()

	cfg := &Config{gracePeriod: 2 * time.Minute}
	app := testApp(4)
	aliceID := uuid.New()
	bobID := uuid.New()
	carolID := uuid.New()

	alice := testClient(aliceID)

	app.mu.Lock()
	app.games.addPlayer("room", aliceID, "alice")
	app.games.addPlayer("room", bobID, "bob")
	app.games.addPlayer("room", carolID, "carol")
	app.registerLocked(alice)
	app.exits[bobID] = time.Now().Add(-3 * time.Minute)
	app.exits[carolID] = time.Now().Add(-3 * time.Minute)
	app.mu.Unlock()

	queuedEvents(alice)

	app.sweepExits(cfg, time.Now())

	events := queuedEvents(alice)
	require.Len(t, events, 1, "several evictions from one room collapse into one broadcast")

	snap, ok := events[0].Body.(GameMessage)
	require.True(t, ok)
	require.Len(t, snap.Players, 1)
	assert.Equal(t, aliceID, snap.Players[0].ID)
}

func TestSweepDestroysEmptiedRooms(t *testing.T) {
	t.Parallel()

	cfg := &Config{gracePeriod: 2 * time.Minute}
	app := testApp(5)
	bobID := uuid.New()

	app.mu.Lock()
	app.games.addPlayer("solo", bobID, "bob")
	app.exits[bobID] = time.Now().Add(-3 * time.Minute)
	app.mu.Unlock()

	app.sweepExits(cfg, time.Now())

	app.mu.Lock()
	assert.Nil(t, app.games.find("solo"))
	assert.False(t, app.games.exists("solo"), "an emptied room's id becomes reusable")
	assert.Empty(t, app.exits)
	app.mu.Unlock()
}

func TestSweepEvictsFromEveryRoom(t *testing.T) {
	t.Parallel()

	cfg := &Config{gracePeriod: 2 * time.Minute}
	app := testApp(6)
	aliceID := uuid.New()
	bobID := uuid.New()
	carolID := uuid.New()

	alice := testClient(aliceID)
	carol := testClient(carolID)

	app.mu.Lock()
	app.games.addPlayer("one", aliceID, "alice")
	app.games.addPlayer("one", bobID, "bob")
	app.games.addPlayer("two", carolID, "carol")
	app.games.addPlayer("two", bobID, "bob")
	app.registerLocked(alice)
	app.registerLocked(carol)
	app.exits[bobID] = time.Now().Add(-3 * time.Minute)
	app.mu.Unlock()

	queuedEvents(alice)
	queuedEvents(carol)

	app.sweepExits(cfg, time.Now())

	app.mu.Lock()
	assert.Len(t, app.games.find("one").players, 1)
	assert.Len(t, app.games.find("two").players, 1)
	app.mu.Unlock()

	assert.Len(t, queuedEvents(alice), 1)
	assert.Len(t, queuedEvents(carol), 1)
}
