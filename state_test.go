package main

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(seed int64) *App {
	return newApp(testGames(seed))
}

func testClient(playerID uuid.UUID) *Client {
	return &Client{
		send:     make(chan OutgoingEvent, sendBufferSize),
		playerID: playerID,
	}
}

// queuedEvents drains whatever is currently buffered for the client.
func queuedEvents(c *Client) []OutgoingEvent {
	var events []OutgoingEvent
	for {
		select {
		case event, ok := <-c.send:
			if !ok {
				return events
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestRegisterSupersedes(t *testing.T) {
	t.Parallel()

	app := testApp(1)
	playerID := uuid.New()

	first := testClient(playerID)
	second := testClient(playerID)

	app.mu.Lock()
	app.registerLocked(first)
	app.registerLocked(second)
	app.mu.Unlock()

	assert.Same(t, second, app.conns[playerID], "the newest connection wins")
	assert.Greater(t, second.instance, first.instance)

	_, open := <-first.send
	assert.False(t, open, "the superseded connection's channel is closed")
}

func TestDropRecordsExit(t *testing.T) {
	t.Parallel()

	app := testApp(2)
	playerID := uuid.New()

	c := testClient(playerID)

	app.mu.Lock()
	app.registerLocked(c)
	app.mu.Unlock()

	app.drop(c)

	assert.Empty(t, app.conns)
	assert.Contains(t, app.exits, playerID, "a disconnect leaves an exit record for the janitor")

	_, open := <-c.send
	assert.False(t, open)
}

func TestDropIgnoresSupersededConnection(t *testing.T) {
	t.Parallel()

	app := testApp(3)
	playerID := uuid.New()

	first := testClient(playerID)
	second := testClient(playerID)

	app.mu.Lock()
	app.registerLocked(first)
	app.registerLocked(second)
	app.mu.Unlock()

	app.drop(first)

	assert.Same(t, second, app.conns[playerID], "a stale disconnect must not unregister the live connection")
	assert.Empty(t, app.exits, "a stale disconnect must not schedule an eviction")

	app.drop(second)

	assert.Empty(t, app.conns)
	assert.Contains(t, app.exits, playerID)
}

func TestRegisterClearsPendingExit(t *testing.T) {
	t.Parallel()

	app := testApp(4)
	playerID := uuid.New()

	app.mu.Lock()
	app.exits[playerID] = time.Now().Add(-time.Hour)
	app.registerLocked(testClient(playerID))
	app.mu.Unlock()

	assert.Empty(t, app.exits, "reconnecting voids the pending eviction")
}

func TestNotifyAll(t *testing.T) {
	t.Parallel()

	app := testApp(5)
	aliceID := uuid.New()
	bobID := uuid.New()
	carolID := uuid.New()

	alice := testClient(aliceID)
	bob := testClient(bobID)

	app.mu.Lock()
	app.games.addPlayer("room", aliceID, "alice")
	app.games.addPlayer("room", bobID, "bob")
	app.games.addPlayer("room", carolID, "carol")
	app.registerLocked(alice)
	app.registerLocked(bob)

	app.notifyAllLocked("room", OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.mu.Unlock()

	assert.Len(t, queuedEvents(alice), 1)
	assert.Len(t, queuedEvents(bob), 1)
}

func TestNotifyOthersExcludesSender(t *testing.T) {
	t.Parallel()

	app := testApp(6)
	aliceID := uuid.New()
	bobID := uuid.New()

	alice := testClient(aliceID)
	bob := testClient(bobID)

	app.mu.Lock()
	app.games.addPlayer("room", aliceID, "alice")
	app.games.addPlayer("room", bobID, "bob")
	app.registerLocked(alice)
	app.registerLocked(bob)

	app.notifyOthersLocked("room", aliceID, OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.mu.Unlock()

	assert.Empty(t, queuedEvents(alice), "the sender must not hear its own broadcast")
	assert.Len(t, queuedEvents(bob), 1)
}

func TestNotifyIgnoresUnknownRoom(t *testing.T) {
	t.Parallel()

	app := testApp(7)

	app.mu.Lock()
	app.notifyAllLocked("ghost", OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.notifyOthersLocked("ghost", uuid.New(), OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.mu.Unlock()
}

func TestNotifySkipsMembersWithoutConnections(t *testing.T) {
	t.Parallel()

	app := testApp(8)
	aliceID := uuid.New()
	bobID := uuid.New()

	alice := testClient(aliceID)

	app.mu.Lock()
	app.games.addPlayer("room", aliceID, "alice")
	app.games.addPlayer("room", bobID, "bob")
	app.registerLocked(alice)

	app.notifyAllLocked("room", OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.mu.Unlock()

	assert.Len(t, queuedEvents(alice), 1)
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	t.Parallel()

	app := testApp(9)
	c := &Client{
		send:     make(chan OutgoingEvent, 1),
		playerID: uuid.New(),
	}

	app.mu.Lock()
	app.enqueueLocked(c, OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.enqueueLocked(c, OutgoingEvent{Body: ClearDrawingMessage{Type: "clearDrawing"}})
	app.mu.Unlock()

	events := queuedEvents(c)
	require.Len(t, events, 1, "a full buffer drops events instead of blocking")
	assert.Equal(t, PongMessage{Type: "pong"}, events[0].Body)
}

func TestEnqueueSkipsSupersededConnection(t *testing.T) {
	t.Parallel()

	app := testApp(10)
	playerID := uuid.New()

	first := testClient(playerID)
	second := testClient(playerID)

	app.mu.Lock()
	app.registerLocked(first)
	app.registerLocked(second)

	app.enqueueLocked(first, OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.enqueueLocked(second, OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.mu.Unlock()

	assert.Empty(t, queuedEvents(first), "a superseded connection accepts nothing")
	assert.Len(t, queuedEvents(second), 1)
}

func TestEnqueueSkipsDroppedConnection(t *testing.T) {
	t.Parallel()

	app := testApp(11)
	c := testClient(uuid.New())

	app.mu.Lock()
	app.registerLocked(c)
	app.mu.Unlock()

	app.drop(c)

	app.mu.Lock()
	app.enqueueLocked(c, OutgoingEvent{Body: PongMessage{Type: "pong"}})
	app.mu.Unlock()

	assert.Empty(t, queuedEvents(c))
}
