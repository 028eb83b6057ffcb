package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/api/apitest"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

// recordSink counts what the sync loop hands over.
type recordSink struct {
	states    []*api.GameState
	moves     int
	lastMoves []api.LegalMove
	options   int
	analytics int
	cleared   int
}

func (r *recordSink) ApplyState(st *api.GameState) { r.states = append(r.states, st) }

func (r *recordSink) ApplyMoves(moves []api.LegalMove) {
	r.moves++
	r.lastMoves = moves
}

func (r *recordSink) ApplyTokenOptions([]api.TokenOption) { r.options++ }
func (r *recordSink) ApplyAnalytics(*api.Analytics)       { r.analytics++ }
func (r *recordSink) ClearMoves()                         { r.cleared++ }

func (r *recordSink) keys() []string {
	out := make([]string, len(r.states))
	for i, st := range r.states {
		out[i] = st.Key()
	}
	return out
}

// stubServer answers State from a function; every other call succeeds empty.
type stubServer struct {
	state func() (*api.GameState, error)
	moves func() []api.LegalMove
	bot   int
}

func (s *stubServer) State(context.Context, string, string) (*api.GameState, error) {
	return s.state()
}
func (s *stubServer) LegalMoves(context.Context, string, string) ([]api.LegalMove, error) {
	if s.moves == nil {
		return nil, nil
	}
	return s.moves(), nil
}
func (s *stubServer) TokenOptions(context.Context, string, string) ([]api.TokenOption, error) {
	return nil, nil
}
func (s *stubServer) PlaceTile(context.Context, string, string, api.Placement) (*api.PlaceResult, error) {
	return &api.PlaceResult{}, nil
}
func (s *stubServer) PlaceToken(context.Context, string, string, api.Position) (*api.ActionResult, error) {
	return &api.ActionResult{}, nil
}
func (s *stubServer) SkipToken(context.Context, string, string) (*api.ActionResult, error) {
	return &api.ActionResult{}, nil
}
func (s *stubServer) TriggerBotTurn(context.Context, string) (*api.BotTurnResult, error) {
	s.bot++
	return &api.BotTurnResult{}, nil
}
func (s *stubServer) Analytics(context.Context, string) (*api.Analytics, error) {
	return &api.Analytics{}, nil
}
func (s *stubServer) SpecialTargets(context.Context, string, string) ([]api.SpecialTarget, error) {
	return nil, nil
}
func (s *stubServer) UseSpecial(context.Context, string, string, api.Coord) (*api.ActionResult, error) {
	return &api.ActionResult{}, nil
}

// heldRunner keeps tasks until the test releases them, in any order.
type heldRunner struct {
	tasks []func()
}

func (h *heldRunner) run(task func()) { h.tasks = append(h.tasks, task) }

func inline(task func()) { task() }

func newTestLoop(srv Server, run func(func())) (*SyncLoop, *Queue, *recordSink) {
	q := NewQueueWithRunner(run)
	sink := &recordSink{}
	l := NewSyncLoop(srv, q, sink, DefaultSyncConfig(), nil)
	l.SetAfter(func(time.Duration, func()) {})
	return l, q, sink
}

func TestGameStateKey_Deterministic(t *testing.T) {
	st := &api.GameState{Turn: 5, TurnPhase: api.TurnPlaceToken, Phase: api.PhasePlaying}
	if st.Key() != st.Key() || st.Key() != "5-place_meeple-playing" {
		t.Fatalf("key = %q", st.Key())
	}
}

func TestSyncLoop_SameKeyIsNoOp(t *testing.T) {
	g := twoPlayerGame(t)
	g.State.Turn = 5
	g.State.TurnPhase = api.TurnPlaceToken
	last := api.Coord{}
	g.State.LastPlaced = &last
	h := newClientHarness(t, g)

	l, q, sink := newTestLoop(h.client, inline)
	l.Bind(h.gameID, "me")
	l.Poll()
	q.Drain()
	if len(sink.states) != 1 || l.Key() != "5-place_meeple-playing" {
		t.Fatalf("first poll: %d states, key %q", len(sink.states), l.Key())
	}
	if h.fake.Calls("meeple_options") != 1 {
		t.Fatalf("token options fetched %d times", h.fake.Calls("meeple_options"))
	}

	h.fake.ResetCalls()
	l.Poll()
	q.Drain()
	if len(sink.states) != 1 {
		t.Fatalf("same key re-applied: %d states", len(sink.states))
	}
	for _, route := range []string{"meeple_options", "moves", "analytics", "bot_turn"} {
		if n := h.fake.Calls(route); n != 0 {
			t.Fatalf("same key issued %d %s requests", n, route)
		}
	}
	if h.fake.Calls("state") != 1 {
		t.Fatalf("state polled %d times", h.fake.Calls("state"))
	}
}

func TestSyncLoop_ForceRefreshReapplies(t *testing.T) {
	h := newClientHarness(t, twoPlayerGame(t))
	l, q, sink := newTestLoop(h.client, inline)
	l.Bind(h.gameID, "me")
	l.Poll()
	q.Drain()
	l.ForceRefresh()
	q.Drain()

	if len(sink.states) != 2 {
		t.Fatalf("force refresh applied %d states, want 2", len(sink.states))
	}
	if sink.moves != 2 || h.fake.Calls("moves") != 2 {
		t.Fatalf("moves applied %d, fetched %d; want 2 each", sink.moves, h.fake.Calls("moves"))
	}
}

func TestSyncLoop_SideFetchesByPhase(t *testing.T) {
	tests := []struct {
		name      string
		edit      func(st *apitest.State)
		route     string
		cleared   int
		analytics int
	}{
		{"my tile phase fetches moves", func(*apitest.State) {}, "moves", 0, 0},
		{"my token phase fetches options", func(st *apitest.State) {
			st.TurnPhase = api.TurnPlaceToken
		}, "meeple_options", 0, 0},
		{"opponent turn clears moves", func(st *apitest.State) {
			st.CurrentPlayer = "opp"
		}, "", 1, 0},
		{"every third turn fetches analytics", func(st *apitest.State) {
			st.Turn = 6
		}, "moves", 0, 1},
		{"finished fetches analytics", func(st *apitest.State) {
			st.Turn = 7
			st.Phase = api.PhaseFinished
		}, "", 1, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := twoPlayerGame(t)
			tc.edit(g.State)
			h := newClientHarness(t, g)
			l, q, sink := newTestLoop(h.client, inline)
			l.Bind(h.gameID, "me")
			l.Poll()
			q.Drain()

			if tc.route != "" && h.fake.Calls(tc.route) != 1 {
				t.Fatalf("%s fetched %d times", tc.route, h.fake.Calls(tc.route))
			}
			if sink.cleared != tc.cleared {
				t.Fatalf("cleared %d times, want %d", sink.cleared, tc.cleared)
			}
			if got := h.fake.Calls("analytics"); got != tc.analytics {
				t.Fatalf("analytics fetched %d times, want %d", got, tc.analytics)
			}
		})
	}
}

func TestSyncLoop_BotTurnTriggeredAfterDelay(t *testing.T) {
	g := twoPlayerGame(t)
	g.State.CurrentPlayer = "opp"
	g.State.Players[1].IsBot = true
	g.State.Players[1].BotType = "greedy"
	h := newClientHarness(t, g)

	var delays []time.Duration
	var pending []func()
	l, q, sink := newTestLoop(h.client, inline)
	l.SetAfter(func(d time.Duration, f func()) {
		delays = append(delays, d)
		pending = append(pending, f)
	})
	l.Bind(h.gameID, "me")
	l.Poll()
	q.Drain()

	if len(pending) != 1 || delays[0] != 500*time.Millisecond {
		t.Fatalf("bot turn scheduled %d times with %v", len(pending), delays)
	}
	if h.fake.Calls("bot_turn") != 0 {
		t.Fatal("bot turn triggered before the delay")
	}
	pending[0]()
	q.Drain()

	if h.fake.Calls("bot_turn") != 1 {
		t.Fatalf("bot turn triggered %d times", h.fake.Calls("bot_turn"))
	}
	if len(sink.states) != 2 || !sink.states[1].IsTurnOf("me") {
		t.Fatalf("expected a forced re-poll handing the turn back, keys %v", sink.keys())
	}
	if h.fake.Calls("moves") != 1 {
		t.Fatalf("moves fetched %d times after bot turn", h.fake.Calls("moves"))
	}
}

func TestSyncLoop_BotTriggerFailureDoesNotRepoll(t *testing.T) {
	g := twoPlayerGame(t)
	g.State.CurrentPlayer = "opp"
	g.State.Players[1].IsBot = true
	g.Reject = map[string]string{"bot_turn": "Current player is not a bot"}
	h := newClientHarness(t, g)

	var pending []func()
	l, q, _ := newTestLoop(h.client, inline)
	l.SetAfter(func(_ time.Duration, f func()) { pending = append(pending, f) })
	l.Bind(h.gameID, "me")
	l.Poll()
	q.Drain()
	polls := l.Polls()
	pending[0]()
	q.Drain()
	if l.Polls() != polls {
		t.Fatalf("failed bot trigger re-polled: %d -> %d", polls, l.Polls())
	}
}

func TestSyncLoop_DropsResponsesFromOldSession(t *testing.T) {
	srv := &stubServer{state: func() (*api.GameState, error) {
		return &api.GameState{Turn: 1, Phase: api.PhasePlaying, TurnPhase: api.TurnPlaceTile}, nil
	}}
	held := &heldRunner{}
	l, q, sink := newTestLoop(srv, held.run)

	l.Bind("g1", "me")
	l.Poll()
	l.Leave()
	for _, task := range held.tasks {
		task()
	}
	q.Drain()
	if len(sink.states) != 0 {
		t.Fatal("response from a left session was applied")
	}

	held.tasks = nil
	l.Bind("g1", "me")
	l.Poll()
	l.Bind("g2", "me")
	for _, task := range held.tasks {
		task()
	}
	q.Drain()
	if len(sink.states) != 0 {
		t.Fatal("response from a superseded bind was applied")
	}
}

func TestSyncLoop_DropsOutOfOrderState(t *testing.T) {
	turn := 2
	srv := &stubServer{state: func() (*api.GameState, error) {
		st := &api.GameState{Turn: turn, Phase: api.PhasePlaying, TurnPhase: api.TurnPlaceTile, CurrentPlayer: "opp"}
		turn--
		return st, nil
	}}
	held := &heldRunner{}
	l, q, sink := newTestLoop(srv, held.run)
	l.Bind("g1", "me")
	l.Poll() // older request
	l.Poll() // newer request

	// The newer request answers first with the newer state.
	held.tasks[1]()
	held.tasks[0]()
	q.Drain()

	if got := sink.keys(); len(got) != 1 || got[0] != "2-place_tile-playing" {
		t.Fatalf("applied keys %v, want only the newer state", got)
	}
	if l.Key() != "2-place_tile-playing" {
		t.Fatalf("key regressed to %q", l.Key())
	}
}

func TestSyncLoop_DropsMovesFromSupersededTransition(t *testing.T) {
	turn, slot := 1, 1
	srv := &stubServer{
		state: func() (*api.GameState, error) {
			return &api.GameState{Turn: turn, Phase: api.PhasePlaying, TurnPhase: api.TurnPlaceTile, CurrentPlayer: "me"}, nil
		},
		moves: func() []api.LegalMove {
			return []api.LegalMove{{X: slot, Y: 0, Rotation: tile.R0}}
		},
	}
	held := &heldRunner{}
	l, q, sink := newTestLoop(srv, held.run)
	l.Bind("g1", "me")

	// tasks: 0 state turn 1, 1 moves turn 1, 2 state turn 2, 3 moves turn 2.
	l.Poll()
	held.tasks[0]()
	q.Drain()
	turn = 2
	l.Poll()
	held.tasks[2]()
	q.Drain()
	if l.Key() != "2-place_tile-playing" || len(held.tasks) != 4 {
		t.Fatalf("key %q with %d tasks", l.Key(), len(held.tasks))
	}

	slot = 2
	held.tasks[3]()
	q.Drain()
	slot = 1
	held.tasks[1]()
	q.Drain()

	if sink.moves != 1 {
		t.Fatalf("moves applied %d times, want 1", sink.moves)
	}
	if len(sink.lastMoves) != 1 || sink.lastMoves[0].X != 2 {
		t.Fatalf("moves %+v, want the turn 2 set", sink.lastMoves)
	}
}

func TestSyncLoop_DropsMovesAfterTurnPasses(t *testing.T) {
	current := "me"
	srv := &stubServer{state: func() (*api.GameState, error) {
		turn := 1
		if current != "me" {
			turn = 2
		}
		return &api.GameState{Turn: turn, Phase: api.PhasePlaying, TurnPhase: api.TurnPlaceTile, CurrentPlayer: current}, nil
	}}
	held := &heldRunner{}
	l, q, sink := newTestLoop(srv, held.run)
	l.Bind("g1", "me")

	l.Poll()
	held.tasks[0]()
	q.Drain()
	current = "opp"
	l.Poll()
	held.tasks[2]()
	q.Drain()
	held.tasks[1]()
	q.Drain()

	if sink.moves != 0 {
		t.Fatal("moves from my turn applied during the opponent's turn")
	}
	if sink.cleared != 1 {
		t.Fatalf("cleared %d times", sink.cleared)
	}
}

func TestSyncLoop_TransportErrorIsAbsorbed(t *testing.T) {
	srv := &stubServer{state: func() (*api.GameState, error) {
		return nil, errors.New("connection refused")
	}}
	l, q, sink := newTestLoop(srv, inline)
	l.Bind("g1", "me")
	l.Poll()
	q.Drain()
	if len(sink.states) != 0 || l.Key() != "" {
		t.Fatalf("failed poll changed state: %d states key %q", len(sink.states), l.Key())
	}
}

func TestSyncLoop_TickRespectsInterval(t *testing.T) {
	srv := &stubServer{state: func() (*api.GameState, error) { return &api.GameState{}, nil }}
	l, q, _ := newTestLoop(srv, inline)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	l.Tick(start)
	if l.Polls() != 0 {
		t.Fatal("unbound loop polled")
	}
	l.Bind("g1", "me")
	l.Tick(start)
	l.Tick(start.Add(500 * time.Millisecond))
	l.Tick(start.Add(1200 * time.Millisecond))
	q.Drain()
	if l.Polls() != 2 {
		t.Fatalf("polls = %d, want 2", l.Polls())
	}
}
