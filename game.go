/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Player identifies a participant. The id is issued by the server on first
// join and stays stable across reconnects; the nickname is display-only.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Nickname string    `json:"nickname"`
}

// CanvasSize is the drawing surface chosen by the artist, fixed for the
// duration of one round.
type CanvasSize struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// DrawingSegment is one stroke on the shared canvas. Segments are immutable
// once appended, except for deletion by id.
type DrawingSegment struct {
	ID        string  `json:"id"`
	Stroke    string  `json:"stroke"`
	LineWidth int32   `json:"lineWidth"`
	Points    []Point `json:"points"`
}

// Turn records a finished round. Nothing appends to the history yet; it is
// kept so scoring can be layered on without a wire change.
type Turn struct {
	Word          string  `json:"word"`
	PlayerGuessed *Player `json:"playerGuessed"`
}

// stage is the round state of a room. Exactly two implementations exist,
// choosing and drawing, and every stage-dependent operation type-switches
// over both.
type stage interface {
	isStage()
}

// choosing means chooser is picking the next word to draw.
type choosing struct {
	chooser uuid.UUID
}

// drawing means artist is drawing word while everyone else guesses.
type drawing struct {
	artist   uuid.UUID
	word     string
	canvas   CanvasSize
	segments []DrawingSegment
}

func (*choosing) isStage() {}
func (*drawing) isStage()  {}

// Game is one room: a roster in join order, the current stage, and the
// history of completed turns. All methods assume the caller holds the
// process-wide state lock.
type Game struct {
	id      string
	stage   stage
	players []Player
	history []Turn
}

func newGame(id string, player Player) *Game {
	return &Game{
		id:      id,
		stage:   &choosing{chooser: player.ID},
		players: []Player{player},
	}
}

// addPlayer appends a player to the roster and returns the roster entry.
// Adding an id that is already a member returns the existing entry
// unchanged.
func (g *Game) addPlayer(player Player) Player {
	for _, p := range g.players {
		if p.ID == player.ID {
			return p
		}
	}

	g.players = append(g.players, player)

	return player
}

// removePlayer drops the player from the roster, reporting whether it was
// a member. If the removed player was choosing or drawing, the oldest
// remaining member becomes the chooser and any drawing in progress is
// discarded. A game left with no players must be destroyed by the caller.
func (g *Game) removePlayer(removeID uuid.UUID) bool {
	pos := -1
	for i, p := range g.players {
		if p.ID == removeID {
			pos = i
			break
		}
	}

	if pos >= 0 {
		g.players = append(g.players[:pos], g.players[pos+1:]...)
	}

	if len(g.players) == 0 {
		return pos >= 0
	}

	switch s := g.stage.(type) {
	case *choosing:
		if s.chooser == removeID {
			g.stage = &choosing{chooser: g.players[0].ID}
		}
	case *drawing:
		if s.artist == removeID {
			g.stage = &choosing{chooser: g.players[0].ID}
		}
	}

	return pos >= 0
}

// submitWord moves the game from choosing to drawing, reporting whether it
// did. Only the current chooser may submit a word that does not trim to
// nothing; it is stored trimmed and the new round starts with an empty
// segment log.
func (g *Game) submitWord(by uuid.UUID, word string, canvas CanvasSize) bool {
	s, ok := g.stage.(*choosing)
	if !ok || s.chooser != by {
		return false
	}

	word = strings.TrimSpace(word)
	if word == "" {
		return false
	}

	g.stage = &drawing{
		artist: by,
		word:   word,
		canvas: canvas,
	}

	return true
}

// guessWord compares the guess against the current word, case-insensitively.
// A correct guess ends the round and makes the guesser the next chooser.
func (g *Game) guessWord(by uuid.UUID, guess string) bool {
	s, ok := g.stage.(*drawing)
	if !ok || !strings.EqualFold(s.word, guess) {
		return false
	}

	g.stage = &choosing{chooser: by}

	return true
}

// addSegment appends a stroke to the current drawing, reporting whether the
// game accepted it. Strokes arriving outside the drawing stage are dropped.
func (g *Game) addSegment(segment DrawingSegment) bool {
	s, ok := g.stage.(*drawing)
	if !ok {
		return false
	}

	s.segments = append(s.segments, segment)

	return true
}

// removeSegment deletes every stroke with the given id from the current
// drawing, reporting whether any stroke was removed.
func (g *Game) removeSegment(segmentID string) bool {
	s, ok := g.stage.(*drawing)
	if !ok {
		return false
	}

	dst := s.segments[:0]
	for _, segment := range s.segments {
		if segment.ID == segmentID {
			continue
		}
		dst = append(dst, segment)
	}

	removed := len(dst) < len(s.segments)
	s.segments = dst

	return removed
}

// wordTip returns a partial reveal of the current word, or false outside
// the drawing stage.
func (g *Game) wordTip() (string, bool) {
	s, ok := g.stage.(*drawing)
	if !ok {
		return "", false
	}

	return maskWord(s.word), true
}

// forEachSegment visits the strokes of the current drawing in draw order.
// Outside the drawing stage there is nothing to visit.
func (g *Game) forEachSegment(fn func(DrawingSegment)) {
	s, ok := g.stage.(*drawing)
	if !ok {
		return
	}

	for _, segment := range s.segments {
		fn(segment)
	}
}

// maskWord hides a word for use as a tip. Every rune becomes an underscore
// except the first rune of words longer than one rune, and spaces, which
// pass through so multi-word shapes stay visible. The mask always reveals
// strictly less than the full word.
func maskWord(word string) string {
	runes := []rune(word)

	masked := make([]rune, len(runes))
	for i, r := range runes {
		switch {
		case i == 0 && len(runes) > 1:
			masked[i] = r
		case unicode.IsSpace(r):
			masked[i] = r
		default:
			masked[i] = '_'
		}
	}

	return string(masked)
}

// GameSnapshot is the client-visible projection of a Game, safe to send to
// every member: the secret word and the stroke log never appear in it.
type GameSnapshot struct {
	ID      string    `json:"id"`
	Stage   stageView `json:"stage"`
	Players []Player  `json:"players"`
	History []Turn    `json:"history"`
}

type stageView struct {
	Type     string       `json:"type"`
	PlayerID uuid.UUID    `json:"playerId"`
	Drawing  *drawingView `json:"drawing,omitempty"`
}

type drawingView struct {
	Canvas CanvasSize `json:"canvas"`
}

// snapshot copies the game into its wire form. Strokes are replayed as
// individual events instead, so they are left out here.
func (g *Game) snapshot() GameSnapshot {
	snap := GameSnapshot{
		ID:      g.id,
		Players: make([]Player, len(g.players)),
		History: make([]Turn, len(g.history)),
	}

	copy(snap.Players, g.players)
	copy(snap.History, g.history)

	switch s := g.stage.(type) {
	case *choosing:
		snap.Stage = stageView{
			Type:     "playerChoosing",
			PlayerID: s.chooser,
		}
	case *drawing:
		snap.Stage = stageView{
			Type:     "playerDrawing",
			PlayerID: s.artist,
			Drawing:  &drawingView{Canvas: s.canvas},
		}
	}

	return snap
}
