/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// App is the single shared state behind every handler: the room registry,
// the connection directory, and the exit records the janitor sweeps. One
// mutex guards all of it; methods with a Locked suffix assume the caller
// already holds it.
type App struct {
	mu    sync.Mutex
	games *Games
	conns map[uuid.UUID]*Client
	exits map[uuid.UUID]time.Time

	connSeq uint64
}

func newApp(games *Games) *App {
	return &App{
		games: games,
		conns: make(map[uuid.UUID]*Client),
		exits: make(map[uuid.UUID]time.Time),
	}
}

// registerLocked installs c as the single live connection for its player,
// superseding any previous connection and voiding any pending eviction.
func (a *App) registerLocked(c *Client) {
	a.connSeq++
	c.instance = a.connSeq

	if prev, ok := a.conns[c.playerID]; ok {
		prev.closed = true
		close(prev.send)
	}
	a.conns[c.playerID] = c

	delete(a.exits, c.playerID)
}

// drop removes c from the directory and records the disconnect time for
// the janitor. A connection that was already superseded by a newer one
// for the same player leaves both the directory and the exit records
// untouched.
func (a *App) drop(c *Client) {
	a.mu.Lock()
	defer a.mu.Unlock()

	current, ok := a.conns[c.playerID]
	if !ok || current.instance != c.instance {
		return
	}

	delete(a.conns, c.playerID)
	c.closed = true
	close(c.send)

	a.exits[c.playerID] = time.Now()
}

// enqueueLocked hands an event to a connection's write pump without ever
// blocking: a superseded or dropped connection is skipped and a full
// buffer drops the event. Delivery is fire-and-forget; the janitor owns
// removing peers that are permanently gone.
func (a *App) enqueueLocked(c *Client, event OutgoingEvent) {
	if c.closed {
		return
	}

	select {
	case c.send <- event:
	default:
	}
}

// notifyAllLocked enqueues event to every roster member of the room with
// a live connection.
func (a *App) notifyAllLocked(gameID string, event OutgoingEvent) {
	game := a.games.find(gameID)
	if game == nil {
		return
	}

	for _, p := range game.players {
		if c, ok := a.conns[p.ID]; ok {
			a.enqueueLocked(c, event)
		}
	}
}

// notifyOthersLocked enqueues event to every roster member except sender.
func (a *App) notifyOthersLocked(gameID string, sender uuid.UUID, event OutgoingEvent) {
	game := a.games.find(gameID)
	if game == nil {
		return
	}

	for _, p := range game.players {
		if p.ID == sender {
			continue
		}

		if c, ok := a.conns[p.ID]; ok {
			a.enqueueLocked(c, event)
		}
	}
}
