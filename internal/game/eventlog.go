package game

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	logPanelWidth = 280
	logMaxEntries = 60
	logLineHeight = 14
)

// EventKind tags an event log line.
type EventKind uint8

const (
	EventInfo EventKind = iota
	EventScore
	EventError
)

// Event is a single line in the event log.
type Event struct {
	Turn    int
	Seat    int // -1 when not tied to a player
	Kind    EventKind
	Message string
}

// EventLog is a ring buffer of recent status and score lines.
type EventLog struct {
	entries []Event
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{
		entries: make([]Event, logMaxEntries),
	}
}

// Add appends an entry to the log.
func (el *EventLog) Add(turn, seat int, kind EventKind, msg string) {
	el.entries[el.head] = Event{
		Turn:    turn,
		Seat:    seat,
		Kind:    kind,
		Message: msg,
	}
	el.head = (el.head + 1) % logMaxEntries
	if el.count < logMaxEntries {
		el.count++
	}
}

// Len returns the number of stored entries.
func (el *EventLog) Len() int { return el.count }

// Recent returns entries in chronological order (oldest first).
func (el *EventLog) Recent() []Event {
	result := make([]Event, el.count)
	for i := 0; i < el.count; i++ {
		idx := (el.head - el.count + i + logMaxEntries) % logMaxEntries
		result[i] = el.entries[idx]
	}
	return result
}

// Last returns the newest entry.
func (el *EventLog) Last() (Event, bool) {
	if el.count == 0 {
		return Event{}, false
	}
	return el.entries[(el.head-1+logMaxEntries)%logMaxEntries], true
}

// Draw renders the event log panel with its left edge at panelX.
func (el *EventLog) Draw(screen *ebiten.Image, panelX, panelY, panelH int) {
	vector.FillRect(screen, float32(panelX), float32(panelY), logPanelWidth, float32(panelH), color.RGBA{R: 14, G: 16, B: 24, A: 240}, false)
	vector.StrokeLine(screen, float32(panelX), float32(panelY), float32(panelX), float32(panelY+panelH), 1, color.RGBA{R: 60, G: 60, B: 90, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENTS", panelX+8, panelY+2)

	entries := el.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if maxVisible < 0 {
		maxVisible = 0
	}
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	y := panelY + 20
	for i, e := range entries {
		if i >= len(entries)-3 {
			vector.FillRect(screen, float32(panelX+2), float32(y), logPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 34, B: 50, A: 160}, false)
		}
		dot := color.RGBA{R: 120, G: 120, B: 120, A: 255}
		switch {
		case e.Kind == EventError:
			dot = color.RGBA{R: 233, G: 69, B: 96, A: 255}
		case e.Seat >= 0:
			dot = PlayerColor(e.Seat)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, dot, false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%3d %s", e.Turn, e.Message), panelX+12, y)
		y += logLineHeight
	}
}
