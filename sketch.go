// Krokodil Sketch Game
//
// One player picks a secret word and draws it on a shared canvas while
// everyone else in the room tries to guess it. A correct guess promotes
// the guesser to chooser of the next word.
//
// Features:
// - WebSockets per game ID: /game/:gameid and /game/:gameid/ws
// - Short human-typeable game IDs, collision-checked, reserved before first join
// - Players identified by server-issued UUID, passed back on reconnect
// - Opening a second connection for the same player supersedes the first
// - New connections get a full replay: identity, room snapshot, current strokes
// - The secret word never leaves the server except as a masked tip
// - Wrong guesses and word tips are sent only to the requesting client
// - Disconnected players are evicted from their rooms after a grace period
// - In-browser QR button to share the current game, backed by go-qrcode

package main

import (
	_ "embed"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// sendBufferSize bounds the per-connection outbound queue; events beyond
// it are dropped rather than blocking the shared lock.
const sendBufferSize = 256

// Client is one live websocket connection for a player identity.
type Client struct {
	conn     *websocket.Conn
	send     chan OutgoingEvent
	playerID uuid.UUID
	instance uint64
	closed   bool // set under App.mu before send is closed
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveSync upgrades /game/:gameid/ws requests and runs the player's
// session until the socket closes. The query parameter "player" carries a
// previously issued identity for reconnects; "nick" sets the display name
// on first join.
func serveSync(cfg *Config, app *App) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)

			return
		}

		app.mu.Lock()
		known := app.games.exists(gameID)
		app.mu.Unlock()

		if !known {
			http.Error(w, "unknown game", http.StatusNotFound)

			return
		}

		playerID := uuid.New()
		newPlayer := true
		if raw := r.URL.Query().Get("player"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid player id", http.StatusBadRequest)

				return
			}
			playerID = parsed
			newPlayer = false
		}

		if newPlayer {
			logf(cfg, "SYNC: New player %s in game %s from %s", playerID, gameID, realIP(r))
		} else {
			logf(cfg, "SYNC: Existing player %s in game %s from %s", playerID, gameID, realIP(r))
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)

			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan OutgoingEvent, sendBufferSize),
			playerID: playerID,
		}

		go client.writePump()

		app.join(cfg, client, gameID, r.URL.Query().Get("nick"), newPlayer)

		client.readPump(cfg, app, gameID)
	}
}

// join registers the connection, adds the player to the room, and replays
// the current state to it: identity assignment for new players, the room
// snapshot, then every stroke of any drawing in progress. Everyone already
// in the room gets the updated roster.
func (a *App) join(cfg *Config, c *Client, gameID string, nickname string, newPlayer bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.registerLocked(c)

	game, player := a.games.addPlayer(gameID, c.playerID, nickname)

	if newPlayer {
		a.enqueueLocked(c, OutgoingEvent{
			Body: YouAreMessage{
				Type:   "youAre",
				Player: player,
			},
		})
	}

	snap := game.snapshot()

	a.enqueueLocked(c, OutgoingEvent{
		Body: GameMessage{
			Type:         "game",
			GameSnapshot: snap,
		},
	})

	game.forEachSegment(func(segment DrawingSegment) {
		a.enqueueLocked(c, OutgoingEvent{
			Body: SegmentMessage{
				Type:           "addDrawingSegment",
				DrawingSegment: segment,
			},
		})
	})

	a.notifyOthersLocked(gameID, c.playerID, OutgoingEvent{
		Body: GameMessage{
			Type:         "game",
			GameSnapshot: snap,
		},
	})

	logf(cfg, "GAMES: Player %q joined game %s", player.Nickname, gameID)
}

func (c *Client) readPump(cfg *Config, app *App, gameID string) {
	defer func() {
		app.drop(c)
		_ = c.conn.Close()
	}()

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		if msgType != websocket.TextMessage {
			continue
		}

		var event IncomingEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			logf(cfg, "SYNC: Malformed event from player %s: %v (event=%s)", c.playerID, err, raw)

			continue
		}

		app.handleEvent(cfg, c, gameID, event)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}
}

func (a *App) handleEvent(cfg *Config, c *Client, gameID string, event IncomingEvent) {
	switch event.Body.Type {
	case "ping":
		a.handlePing(c)
	case "addDrawingSegment":
		a.handleSegmentAdd(cfg, c, gameID, event.Body)
	case "removeDrawingSegment":
		a.handleSegmentRemove(cfg, c, gameID, event.Body)
	case "submitWord":
		a.handleSubmitWord(cfg, c, gameID, event.Body)
	case "guessWord":
		a.handleGuessWord(cfg, c, gameID, event)
	case "requestWordTip":
		a.handleWordTip(cfg, c, gameID, event)
	default:
		logf(cfg, "SYNC: Unknown event type %q from player %s", event.Body.Type, c.playerID)
	}
}

// findGameLocked resolves a handler's room. The connect path gates on
// existence, so a missing room here is an invariant violation: it is
// logged and the offending connection is closed, ending its session.
func (a *App) findGameLocked(cfg *Config, c *Client, gameID string) *Game {
	game := a.games.find(gameID)
	if game == nil {
		logf(cfg, "SYNC: Game %s missing for player %s", gameID, c.playerID)
		_ = c.conn.Close()
	}

	return game
}

func (a *App) handlePing(c *Client) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.enqueueLocked(c, OutgoingEvent{
		Body: PongMessage{Type: "pong"},
	})
}

func (a *App) handleSegmentAdd(cfg *Config, c *Client, gameID string, body IncomingEventBody) {
	segment := body.segment()

	a.mu.Lock()
	defer a.mu.Unlock()

	game := a.findGameLocked(cfg, c, gameID)
	if game == nil {
		return
	}

	if !game.addSegment(segment) {
		return
	}

	a.notifyOthersLocked(gameID, c.playerID, OutgoingEvent{
		Body: SegmentMessage{
			Type:           "addDrawingSegment",
			DrawingSegment: segment,
		},
	})
}

func (a *App) handleSegmentRemove(cfg *Config, c *Client, gameID string, body IncomingEventBody) {
	a.mu.Lock()
	defer a.mu.Unlock()

	game := a.findGameLocked(cfg, c, gameID)
	if game == nil {
		return
	}

	if !game.removeSegment(body.SegmentID) {
		return
	}

	a.notifyOthersLocked(gameID, c.playerID, OutgoingEvent{
		Body: RemoveSegmentMessage{
			Type:      "removeDrawingSegment",
			SegmentID: body.SegmentID,
		},
	})
}

func (a *App) handleSubmitWord(cfg *Config, c *Client, gameID string, body IncomingEventBody) {
	canvas := CanvasSize{}
	if body.Canvas != nil {
		canvas = *body.Canvas
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	game := a.findGameLocked(cfg, c, gameID)
	if game == nil {
		return
	}

	if !game.submitWord(c.playerID, body.Word, canvas) {
		return
	}

	a.notifyAllLocked(gameID, OutgoingEvent{
		Body: ClearDrawingMessage{Type: "clearDrawing"},
	})

	a.notifyAllLocked(gameID, OutgoingEvent{
		Body: GameMessage{
			Type:         "game",
			GameSnapshot: game.snapshot(),
		},
	})

	logf(cfg, "GAMES: Player %s submitted a word in game %s", c.playerID, gameID)
}

func (a *App) handleGuessWord(cfg *Config, c *Client, gameID string, event IncomingEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	game := a.findGameLocked(cfg, c, gameID)
	if game == nil {
		return
	}

	if !game.guessWord(c.playerID, event.Body.Word) {
		a.enqueueLocked(c, OutgoingEvent{
			FromEventID: event.EventID,
			Body:        WrongGuessMessage{Type: "wrongGuess"},
		})

		return
	}

	a.notifyAllLocked(gameID, OutgoingEvent{
		Body: GameMessage{
			Type:         "game",
			GameSnapshot: game.snapshot(),
		},
	})

	logf(cfg, "GAMES: Player %s guessed the word in game %s", c.playerID, gameID)
}

func (a *App) handleWordTip(cfg *Config, c *Client, gameID string, event IncomingEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	game := a.findGameLocked(cfg, c, gameID)
	if game == nil {
		return
	}

	tip, ok := game.wordTip()
	if !ok {
		return
	}

	a.enqueueLocked(c, OutgoingEvent{
		FromEventID: event.EventID,
		Body: WordTipMessage{
			Type: "wordTip",
			Tip:  tip,
		},
	})
}

//go:embed assets/sketch/game.html
var gameHTML []byte

// serveGamePage serves the embedded game client for rooms that exist, and
// sends everyone else back to the index to create a room of their own.
func serveGamePage(cfg *Config, app *App) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")

		app.mu.Lock()
		known := app.games.exists(gameID)
		app.mu.Unlock()

		if !known {
			logf(cfg, "SERVE: Unknown game %s requested by %s", gameID, realIP(r))
			http.Redirect(w, r, cfg.prefix+"/", http.StatusTemporaryRedirect)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		_, _ = w.Write(gameHTML)
	}
}

// redirectNewGame handles GET /game by reserving a fresh room id and
// redirecting to its page.
func redirectNewGame(cfg *Config, path string, app *App) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		app.mu.Lock()
		gameID := app.games.reserveID()
		app.mu.Unlock()

		logf(cfg, "GAMES: Created game %s/%s for %s", path, gameID, realIP(r))
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// qrHandler generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameid")
	if gameID == "" {
		http.Error(w, "missing game id", http.StatusBadRequest)

		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /game/:gameid/qr; strip trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerSketchGame sets up routes so that:
//   - $path                  → reserves a new room and redirects to it
//   - $path/:gameid          → HTML client (redirects home when unknown)
//   - $path/:gameid/ws       → WebSocket sync for that room
//   - $path/:gameid/qr       → PNG QR code for that room's URL
func registerSketchGame(cfg *Config, path string, app *App, mux *httprouter.Router) {
	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, app))

	mux.GET(cfg.prefix+path+"/:gameid", serveGamePage(cfg, app))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveSync(cfg, app))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler)
}
