package game

import (
	"testing"
	"time"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/api/apitest"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

// clientHarness wires a Session to a fake server through a real HTTP client.
// Work runs inline and delayed callbacks wait until fired by the test.
type clientHarness struct {
	fake    *apitest.Server
	client  *api.Client
	q       *Queue
	s       *Session
	gameID  string
	now     time.Time
	delayed []func()
}

func mustTile(t *testing.T, name string) tile.Tile {
	t.Helper()
	tl, ok := tile.Lookup(name)
	if !ok {
		t.Fatalf("unknown tile %q", name)
	}
	return tl
}

// twoPlayerGame is a game on turn 1 where "me" must place a tile.
func twoPlayerGame(t *testing.T) *apitest.Game {
	t.Helper()
	return &apitest.Game{State: &apitest.State{
		ID:            "g1",
		Phase:         api.PhasePlaying,
		TurnPhase:     api.TurnPlaceTile,
		Turn:          1,
		CurrentPlayer: "me",
		DeckRemaining: 40,
		Players: []apitest.Player{
			{ID: "me", Name: "Alice", TokensAvailable: 7, Hand: []tile.Tile{
				mustTile(t, "straight_road"), mustTile(t, "curve_road"), mustTile(t, "city_edge"),
			}},
			{ID: "opp", Name: "Bob", TokensAvailable: 7},
		},
		Tiles:     []apitest.Tile{{Tile: mustTile(t, "start")}},
		OpenSlots: []api.Coord{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}},
	}}
}

func newClientHarness(t *testing.T, g *apitest.Game) *clientHarness {
	t.Helper()
	fake := apitest.NewServer()
	ts := apitest.Start(fake)
	t.Cleanup(ts.Close)

	h := &clientHarness{
		fake:   fake,
		client: api.New(ts.URL),
		q:      NewQueueWithRunner(func(task func()) { task() }),
		now:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	h.gameID = fake.AddGame(g)
	h.s = NewSession(h.client, h.q, DefaultConfig(), nil)
	h.s.SetClock(func() time.Time { return h.now })
	h.s.Sync().SetAfter(func(_ time.Duration, f func()) { h.delayed = append(h.delayed, f) })
	return h
}

// join binds the session as playerID and settles every completion.
func (h *clientHarness) join(playerID string) {
	h.s.Join(h.gameID, playerID)
	h.q.Drain()
}

// fireDelayed runs the pending delayed callbacks and settles.
func (h *clientHarness) fireDelayed() {
	pending := h.delayed
	h.delayed = nil
	for _, f := range pending {
		f()
	}
	h.q.Drain()
}

func (h *clientHarness) update(fn func(g *apitest.Game)) {
	h.fake.Update(h.gameID, fn)
}
