/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"github.com/google/uuid"
)

// gameIDAlphabet is the character set room ids and assigned nicknames are
// drawn from.
const gameIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const gameIDLength = 6

// Games is the room registry. It owns every live Game plus the set of
// reserved ids that have been handed out but not yet joined. All methods
// assume the caller holds the process-wide state lock.
type Games struct {
	pending map[string]struct{}
	rooms   map[string]*Game
	rng     *rand.Rand
}

func newGames(rng *rand.Rand) *Games {
	return &Games{
		pending: make(map[string]struct{}),
		rooms:   make(map[string]*Game),
		rng:     rng,
	}
}

// newSeed derives a generator seed from crypto/rand.
func newSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return int64(binary.LittleEndian.Uint64(b[:]))
}

func (g *Games) randString(length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = gameIDAlphabet[g.rng.Intn(len(gameIDAlphabet))]
	}

	return string(out)
}

// reserveID hands out a room id no other pending or live room holds, and
// marks it reserved so a near-simultaneous caller cannot receive the same
// one. Each collision retries one character longer, so the loop terminates.
func (g *Games) reserveID() string {
	length := gameIDLength
	for {
		id := g.randString(length)
		if !g.exists(id) {
			g.pending[id] = struct{}{}

			return id
		}
		length++
	}
}

// exists reports whether id names a reserved or live room.
func (g *Games) exists(id string) bool {
	if _, ok := g.pending[id]; ok {
		return true
	}
	_, ok := g.rooms[id]

	return ok
}

// find returns the live room with the given id, or nil. Reserved ids have
// no room yet.
func (g *Games) find(id string) *Game {
	return g.rooms[id]
}

func (g *Games) newPlayer(playerID uuid.UUID, nickname string) Player {
	if nickname == "" {
		nickname = g.randString(3)
	}

	return Player{
		ID:       playerID,
		Nickname: nickname,
	}
}

// addPlayer adds an identity to the room with the given id, creating the
// room on first join and clearing its reservation. Re-adding a player who
// is already a member leaves the roster unchanged and returns the stored
// entry, nickname included. An empty nickname gets a random assigned one.
func (g *Games) addPlayer(gameID string, playerID uuid.UUID, nickname string) (*Game, Player) {
	player := g.newPlayer(playerID, nickname)

	delete(g.pending, gameID)

	game, ok := g.rooms[gameID]
	if !ok {
		game = newGame(gameID, player)
		g.rooms[gameID] = game

		return game, player
	}

	return game, game.addPlayer(player)
}

// removePlayer removes the identity from every room, destroying rooms left
// empty. It returns snapshots of the rooms that still have members and were
// actually modified, for the caller to broadcast.
func (g *Games) removePlayer(cfg *Config, playerID uuid.UUID) []GameSnapshot {
	var modified []GameSnapshot

	for id, game := range g.rooms {
		if !game.removePlayer(playerID) {
			continue
		}

		if len(game.players) == 0 {
			logf(cfg, "GAMES: Removed empty game %s", id)
			delete(g.rooms, id)

			continue
		}

		modified = append(modified, game.snapshot())
	}

	return modified
}
