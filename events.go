package main

// Wire envelopes for the realtime sync protocol. Every message is a JSON
// object with a camelCase-tagged body; clients may attach an eventId to a
// request and servers echo it back as fromEventId on correlated replies.

// IncomingEvent is the envelope for messages from clients.
type IncomingEvent struct {
	EventID *string           `json:"eventId"`
	Body    IncomingEventBody `json:"body"`
}

// IncomingEventBody covers every client request in one struct, dispatched
// on Type.
type IncomingEventBody struct {
	Type string `json:"type"` // "ping", "addDrawingSegment", "removeDrawingSegment", "submitWord", "guessWord", "requestWordTip"

	// addDrawingSegment (segment fields inline)
	ID        string  `json:"id,omitempty"`
	Stroke    string  `json:"stroke,omitempty"`
	LineWidth int32   `json:"lineWidth,omitempty"`
	Points    []Point `json:"points,omitempty"`

	// removeDrawingSegment
	SegmentID string `json:"segmentId,omitempty"`

	// submitWord / guessWord
	Word string `json:"word,omitempty"`

	// submitWord
	Canvas *CanvasSize `json:"canvas,omitempty"`
}

// segment assembles the inline stroke fields of an addDrawingSegment body.
func (b IncomingEventBody) segment() DrawingSegment {
	return DrawingSegment{
		ID:        b.ID,
		Stroke:    b.Stroke,
		LineWidth: b.LineWidth,
		Points:    b.Points,
	}
}

// OutgoingEvent is the envelope for messages to clients. FromEventID is
// null except on replies correlated to a specific client request.
type OutgoingEvent struct {
	FromEventID *string `json:"fromEventId"`
	Body        any     `json:"body"`
}

// GameMessage carries a full room snapshot.
type GameMessage struct {
	Type string `json:"type"` // "game"
	GameSnapshot
}

// YouAreMessage assigns a newly created identity, sent once to its owner.
type YouAreMessage struct {
	Type   string `json:"type"` // "youAre"
	Player Player `json:"player"`
}

// SegmentMessage relays one stroke, both during replay and live drawing.
type SegmentMessage struct {
	Type string `json:"type"` // "addDrawingSegment"
	DrawingSegment
}

// RemoveSegmentMessage relays a stroke deletion.
type RemoveSegmentMessage struct {
	Type      string `json:"type"` // "removeDrawingSegment"
	SegmentID string `json:"segmentId"`
}

// ClearDrawingMessage tells clients to wipe their canvas for a new round.
type ClearDrawingMessage struct {
	Type string `json:"type"` // "clearDrawing"
}

// WrongGuessMessage is sent only to the player whose guess missed.
type WrongGuessMessage struct {
	Type string `json:"type"` // "wrongGuess"
}

// WordTipMessage reveals part of the current word, only to the requester.
type WordTipMessage struct {
	Type string `json:"type"` // "wordTip"
	Tip  string `json:"tip"`
}

type PongMessage struct {
	Type string `json:"type"` // "pong"
}
