package game

import (
	"testing"
	"time"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/api/apitest"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

func withMoves(g *apitest.Game) *apitest.Game {
	g.Moves = []api.LegalMove{
		{HandIndex: 2, X: 1, Y: 0, Rotation: tile.R0},
		{HandIndex: 2, X: 1, Y: 0, Rotation: tile.R90},
		{HandIndex: 0, X: 0, Y: 1, Rotation: tile.R0},
	}
	g.TokenOptions = []api.TokenOption{
		{Position: api.PosNorth, FeatureType: 2, FeatureSize: 1},
		{Position: api.PosCenter, FeatureType: -1, FeatureSize: 1},
	}
	return g
}

func TestSession_JoinLoadsStateAndMoves(t *testing.T) {
	h := newClientHarness(t, withMoves(twoPlayerGame(t)))
	h.join("me")

	if h.s.State() == nil || h.s.State().Turn != 1 {
		t.Fatalf("state not loaded: %+v", h.s.State())
	}
	if len(h.s.Hand()) != 3 {
		t.Fatalf("hand size = %d", len(h.s.Hand()))
	}
	if got := len(h.s.Placement().Moves()); got != 3 {
		t.Fatalf("moves = %d, want 3", got)
	}
	if got := h.s.Status(); got != "Your turn: select tile, R to rotate, click slot" {
		t.Fatalf("status = %q", got)
	}
	if _, ok := h.s.board.Find("tile:0,0"); !ok {
		t.Fatal("start tile missing from board layer")
	}
}

func TestSession_PlaceTileThenToken(t *testing.T) {
	g := withMoves(twoPlayerGame(t))
	h := newClientHarness(t, g)
	h.join("me")

	h.s.SelectTile(2)
	h.s.Click(Vec{120, 40}) // cell 1,0
	h.q.Drain()

	call, ok := h.fake.LastCall("place")
	if !ok {
		t.Fatal("no placement request")
	}
	if call.Body["tile_idx"] != float64(2) || call.Body["x"] != float64(1) || call.Body["y"] != float64(0) || call.Body["rotation"] != float64(0) {
		t.Fatalf("place body = %v", call.Body)
	}
	if h.s.Placement().State() != PlacementIdle {
		t.Fatalf("placement state = %s", PlacementStateName(h.s.Placement().State()))
	}
	if !h.s.Tokens().Active() || len(h.s.Tokens().Options()) != 2 {
		t.Fatal("token overlay not shown after placement")
	}
	if got := h.s.Status(); got != "Place meeple or skip" {
		t.Fatalf("status = %q", got)
	}
	if _, ok := h.s.board.Find("last-placed"); !ok {
		t.Fatal("last placed tile not highlighted")
	}

	h.update(func(g *apitest.Game) {
		g.ScoreEvents = []api.ScoreEvent{{PlayerID: "me", Points: 4, Reason: "road"}, {PlayerID: "me", Points: 6, Reason: "city"}}
	})
	h.s.ChooseToken(api.PosNorth)
	h.q.Drain()

	if got := h.s.Status(); got != "+10 pts!" {
		t.Fatalf("status = %q, want +10 pts!", got)
	}
	if h.s.Tokens().Active() {
		t.Fatal("token overlay should clear after choosing")
	}
	st := h.s.State()
	if st.CurrentPlayer != "opp" || st.Turn != 2 {
		t.Fatalf("turn did not pass: current %s turn %d", st.CurrentPlayer, st.Turn)
	}
	me, _ := h.s.Me()
	if me.Score != 10 {
		t.Fatalf("score = %d", me.Score)
	}
	if len(h.s.placed.Groups) != 1 {
		t.Fatalf("placed tokens drawn = %d", len(h.s.placed.Groups))
	}

	h.now = h.now.Add(flashDuration + time.Second)
	if got := h.s.Status(); got != "Opponent's turn..." {
		t.Fatalf("status after flash = %q", got)
	}
}

func TestSession_RejectedPlacementKeepsSelection(t *testing.T) {
	g := withMoves(twoPlayerGame(t))
	g.Reject = map[string]string{"place": "Invalid placement"}
	h := newClientHarness(t, g)
	h.join("me")

	h.s.SelectTile(2)
	h.s.Rotate()
	h.s.ClickSlot(api.Coord{X: 1, Y: 0})
	h.q.Drain()

	if got := h.s.Status(); got != "Error: Invalid placement" {
		t.Fatalf("status = %q", got)
	}
	p := h.s.Placement()
	idx, ok := p.Selected()
	if !ok || idx != 2 || p.Rotation() != tile.R90 || p.State() != PlacementTileSelected {
		t.Fatalf("selection lost: idx %d ok %v rot %v state %s", idx, ok, p.Rotation(), PlacementStateName(p.State()))
	}
	if h.fake.Calls("moves") != 2 {
		t.Fatalf("moves fetched %d times, want a refetch after rejection", h.fake.Calls("moves"))
	}
	if len(p.Moves()) != 3 {
		t.Fatalf("refetched moves = %d", len(p.Moves()))
	}
}

func TestSession_SkipToken(t *testing.T) {
	h := newClientHarness(t, withMoves(twoPlayerGame(t)))
	h.join("me")
	h.s.SelectTile(0)
	h.s.ClickSlot(api.Coord{X: 0, Y: 1})
	h.q.Drain()

	h.s.SkipToken()
	h.q.Drain()
	if h.fake.Calls("skip_meeple") != 1 {
		t.Fatal("skip not sent")
	}
	if h.s.State().CurrentPlayer != "opp" {
		t.Fatal("turn did not pass after skip")
	}
	if got := h.s.Status(); got != "Opponent's turn..." {
		t.Fatalf("status = %q", got)
	}
}

func TestSession_TokenIgnoredOutsideTokenPhase(t *testing.T) {
	h := newClientHarness(t, withMoves(twoPlayerGame(t)))
	h.join("me")
	h.s.ChooseToken(api.PosNorth)
	h.s.SkipToken()
	h.q.Drain()
	if h.fake.Calls("meeple")+h.fake.Calls("skip_meeple") != 0 {
		t.Fatal("token request sent outside the token phase")
	}
}

func TestSession_SpecialAbility(t *testing.T) {
	g := withMoves(twoPlayerGame(t))
	g.State.Rules.Special = true
	g.State.Players[0].HasSpecial = true
	g.Targets = []api.SpecialTarget{{X: 0, Y: 0, TileType: "start", CurrentRotation: 0, NewRotation: 90}}
	h := newClientHarness(t, g)
	h.join("me")

	if !h.s.CanUseSpecial() {
		t.Fatal("special ability should be available")
	}
	h.s.StartSpecial()
	h.q.Drain()
	if !h.s.SpecialActive() {
		t.Fatal("special mode not active")
	}
	if _, ok := h.s.overlay.Find("special:0,0"); !ok {
		t.Fatal("target not drawn")
	}

	h.s.Click(Vec{40, 40})
	h.q.Drain()
	if h.s.SpecialActive() {
		t.Fatal("special mode should end after use")
	}
	pt, _ := h.s.State().Board.TileAt(api.Coord{})
	if pt.Rotation != tile.R90 {
		t.Fatalf("rotation = %v, want 90°", pt.Rotation)
	}
	if h.s.CanUseSpecial() {
		t.Fatal("special ability should be spent")
	}
}

func TestSession_SpecialRejectionKeepsMode(t *testing.T) {
	g := withMoves(twoPlayerGame(t))
	g.State.Rules.Special = true
	g.State.Players[0].HasSpecial = true
	g.Targets = []api.SpecialTarget{{X: 0, Y: 0, TileType: "start", NewRotation: 90}}
	g.Reject = map[string]string{"engineer": "Engineer already used"}
	h := newClientHarness(t, g)
	h.join("me")

	h.s.StartSpecial()
	h.q.Drain()
	h.s.UseSpecial(api.Coord{})
	h.q.Drain()
	if !h.s.SpecialActive() {
		t.Fatal("rejection should keep the target picker open")
	}
	if got := h.s.Status(); got != "Error: Engineer already used" {
		t.Fatalf("status = %q", got)
	}
	h.s.CancelSpecial()
	if h.s.SpecialActive() {
		t.Fatal("cancel did not leave special mode")
	}
}

func TestSession_LeaveDiscardsInFlight(t *testing.T) {
	g := withMoves(twoPlayerGame(t))
	fake := apitest.NewServer()
	ts := apitest.Start(fake)
	defer ts.Close()
	id := fake.AddGame(g)

	held := &heldRunner{}
	q := NewQueueWithRunner(held.run)
	s := NewSession(api.New(ts.URL), q, DefaultConfig(), nil)
	s.Join(id, "me")
	s.Leave()
	for _, task := range held.tasks {
		task()
	}
	q.Drain()
	if s.State() != nil {
		t.Fatal("state from a left game was applied")
	}
}

func TestSession_ToggleHeatOnlyAffectsHeatLayer(t *testing.T) {
	g := withMoves(twoPlayerGame(t))
	g.State.Turn = 3
	g.Analytics = &api.Analytics{Heatmap: &api.Heatmap{Cells: map[string]float64{"1,0": 0.4}, MaxProb: 0.4}}
	h := newClientHarness(t, g)
	h.join("me")

	if h.s.Analytics() == nil || len(h.s.heat.Groups) != 1 {
		t.Fatal("analytics not loaded on turn 3")
	}
	if !h.s.heat.Hidden {
		t.Fatal("heat layer should start hidden")
	}
	h.s.ToggleHeat()
	if h.s.heat.Hidden || h.s.board.Hidden || h.s.overlay.Hidden || h.s.placed.Hidden {
		t.Fatal("toggle changed the wrong layers")
	}
	h.s.ToggleHeat()
	if !h.s.heat.Hidden {
		t.Fatal("second toggle should hide the heat layer")
	}
}

func TestStatusLine(t *testing.T) {
	players := api.Players{
		{ID: "me", Name: "Alice", Score: 12},
		{ID: "bot", Name: "Bot (Greedy)", Score: 12, IsBot: true},
		{ID: "opp", Name: "Bob", Score: 3},
	}
	tests := []struct {
		name string
		st   *api.GameState
		want string
	}{
		{"no snapshot", nil, "Connecting..."},
		{"waiting", &api.GameState{Phase: api.PhaseWaiting, Players: players}, "Waiting for opponent..."},
		{"my tile phase", &api.GameState{Phase: api.PhasePlaying, TurnPhase: api.TurnPlaceTile, CurrentPlayer: "me", Players: players}, "Your turn: select tile, R to rotate, click slot"},
		{"my token phase", &api.GameState{Phase: api.PhasePlaying, TurnPhase: api.TurnPlaceToken, CurrentPlayer: "me", Players: players}, "Place meeple or skip"},
		{"bot", &api.GameState{Phase: api.PhasePlaying, CurrentPlayer: "bot", Players: players}, "Bot thinking..."},
		{"opponent", &api.GameState{Phase: api.PhasePlaying, CurrentPlayer: "opp", Players: players}, "Opponent's turn..."},
		{"finished tie goes to first seat", &api.GameState{Phase: api.PhaseFinished, Players: players}, "Alice wins! 12 pts"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StatusLine(tc.st, "me"); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
