/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"time"

	"github.com/google/uuid"
)

// reaperLoop periodically evicts players whose connections have been gone
// longer than the grace period, so abandoned identities do not linger in
// rosters forever.
func (a *App) reaperLoop(cfg *Config) {
	ticker := time.NewTicker(cfg.sweepInterval)
	for range ticker.C {
		a.sweepExits(cfg, time.Now())
	}
}

// sweepExits removes every player whose exit record is older than the
// grace period from all rooms, then sends the survivors of each affected
// room an updated snapshot. Rooms modified by several evictions in the
// same sweep are broadcast once.
func (a *App) sweepExits(cfg *Config, now time.Time) {
	cutoff := now.Add(-cfg.gracePeriod)

	a.mu.Lock()
	defer a.mu.Unlock()

	var expired []uuid.UUID
	for playerID, exitedAt := range a.exits {
		if exitedAt.Before(cutoff) {
			expired = append(expired, playerID)
		}
	}

	modified := make(map[string]GameSnapshot)
	for _, playerID := range expired {
		logf(cfg, "SWEEP: Evicting player %s after %s offline", playerID, cfg.gracePeriod)

		for _, snap := range a.games.removePlayer(cfg, playerID) {
			modified[snap.ID] = snap
		}

		delete(a.exits, playerID)
	}

	for id, snap := range modified {
		a.notifyAllLocked(id, OutgoingEvent{
			Body: GameMessage{
				Type:         "game",
				GameSnapshot: snap,
			},
		})
	}
}
