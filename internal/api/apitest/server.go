package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

// Game is one scripted game. Tests set the canned answers directly; the
// action routes apply a minimal turn progression on top of State.
type Game struct {
	State        *State
	NumPlayers   int
	Moves        []api.LegalMove
	TokenOptions []api.TokenOption
	Targets      []api.SpecialTarget
	Analytics    *api.Analytics
	ScoreEvents  []api.ScoreEvent // returned by the token and skip routes

	// Reject makes a route answer 400 with the given reason, keyed by route
	// name ("place", "meeple", ...).
	Reject map[string]string
}

// Call records one request received by the server.
type Call struct {
	Route    string
	GameID   string
	PlayerID string
	ClientID string
	Body     map[string]any
}

// Server is a fake game server.
type Server struct {
	mu    sync.Mutex
	games map[string]*Game
	calls []Call
}

// NewServer returns an empty fake server.
func NewServer() *Server {
	return &Server{games: map[string]*Game{}}
}

// Start serves s on a local httptest server. Callers close it.
func Start(s *Server) *httptest.Server {
	r := chi.NewRouter()
	s.RegisterRoutes(r)
	return httptest.NewServer(r)
}

// RegisterRoutes mounts the game API on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Post("/api/games", s.createGame)
	r.Route("/api/games/{id}", func(r chi.Router) {
		r.Get("/", s.getState)
		r.Post("/join", s.joinGame)
		r.Get("/moves", s.getMoves)
		r.Get("/meeple_options", s.getTokenOptions)
		r.Post("/place", s.placeTile)
		r.Post("/meeple", s.placeToken)
		r.Post("/skip_meeple", s.skipToken)
		r.Post("/bot_turn", s.botTurn)
		r.Get("/analytics", s.getAnalytics)
		r.Get("/engineer_targets", s.getTargets)
		r.Post("/engineer", s.useSpecial)
	})
}

// AddGame registers g under its State.ID, generating one if empty.
func (s *Server) AddGame(g *Game) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.State == nil {
		g.State = &State{Phase: api.PhaseWaiting, TurnPhase: api.TurnPlaceTile}
	}
	if g.State.ID == "" {
		g.State.ID = uuid.NewString()[:8]
	}
	if g.NumPlayers == 0 {
		g.NumPlayers = 2
	}
	s.games[g.State.ID] = g
	return g.State.ID
}

// Update runs fn on the game with the lock held.
func (s *Server) Update(id string, fn func(g *Game)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.games[id]; ok {
		fn(g)
	}
}

// Calls returns how many requests hit the named route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Route == route {
			n++
		}
	}
	return n
}

// LastCall returns the most recent request to the named route.
func (s *Server) LastCall(route string) (Call, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].Route == route {
			return s.calls[i], true
		}
	}
	return Call{}, false
}

// ResetCalls forgets recorded requests.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]string{"error": reason})
}

// begin records the call and resolves the game. It returns with s.mu held
// on success; the caller must unlock.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, route string) (*Game, map[string]any, bool) {
	id := chi.URLParam(r, "id")
	body := map[string]any{}
	if r.Body != nil && r.Method == http.MethodPost {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	playerID := r.URL.Query().Get("player_id")
	if p, ok := body["player_id"].(string); ok {
		playerID = p
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{
		Route:    route,
		GameID:   id,
		PlayerID: playerID,
		ClientID: r.Header.Get(api.ClientIDHeader),
		Body:     body,
	})
	g, ok := s.games[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Game not found")
		return nil, nil, false
	}
	if reason, ok := g.Reject[route]; ok {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, reason)
		return nil, nil, false
	}
	body["player_id"] = playerID
	return g, body, true
}

func (s *Server) writeState(w http.ResponseWriter, g *Game, viewer string, extra map[string]any) {
	raw, err := g.State.Encode(viewer)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if extra == nil {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
		return
	}
	extra["success"] = true
	extra["game"] = json.RawMessage(raw)
	writeJSON(w, http.StatusOK, extra)
}

func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req api.CreateGameRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	g := &Game{
		NumPlayers: req.Players,
		State: &State{
			Phase:     api.PhaseWaiting,
			TurnPhase: api.TurnPlaceTile,
			Rules:     api.Rules{Special: req.Rules.Special, Objectives: req.Rules.Objectives, HandSize: 3},
			Tiles:     []Tile{{Tile: mustLookup("start")}},
			OpenSlots: []api.Coord{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}},
		},
	}
	id := s.AddGame(g)
	s.mu.Lock()
	s.calls = append(s.calls, Call{Route: "create", GameID: id, ClientID: r.Header.Get(api.ClientIDHeader)})
	if req.Bot != "" {
		s.seat(g, "Bot ("+strings.ToUpper(req.Bot[:1])+req.Bot[1:]+")", req.Bot)
	}
	rules := g.State.Rules
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"game_id": id, "rules": rules})
}

// seat adds a player and starts the game once every seat is taken.
func (s *Server) seat(g *Game, name, botType string) Player {
	p := Player{
		ID:              uuid.NewString()[:8],
		Name:            name,
		IsBot:           botType != "",
		BotType:         botType,
		TokensAvailable: 7,
		HasSpecial:      g.State.Rules.Special,
		Hand:            dealHand(len(g.State.Players)),
	}
	g.State.Players = append(g.State.Players, p)
	if len(g.State.Players) >= g.NumPlayers && g.State.Phase == api.PhaseWaiting {
		g.State.Phase = api.PhasePlaying
		g.State.CurrentPlayer = g.State.Players[0].ID
		g.State.DeckRemaining = 60
	}
	return p
}

func mustLookup(name string) tile.Tile {
	t, ok := tile.Lookup(name)
	if !ok {
		panic("apitest: unknown tile " + name)
	}
	return t
}

func dealHand(seat int) []tile.Tile {
	hand := make([]tile.Tile, 0, 3)
	for i := 0; i < 3; i++ {
		hand = append(hand, tile.Catalog[(seat*3+i)%len(tile.Catalog)])
	}
	return hand
}

func (s *Server) joinGame(w http.ResponseWriter, r *http.Request) {
	g, body, ok := s.begin(w, r, "join")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	if len(g.State.Players) >= g.NumPlayers {
		writeError(w, http.StatusBadRequest, "Game is full")
		return
	}
	name, _ := body["name"].(string)
	if name == "" {
		name = "Player"
	}
	p := s.seat(g, name, "")
	writeJSON(w, http.StatusOK, map[string]any{"player_id": p.ID, "name": p.Name, "rules": g.State.Rules})
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	g, body, ok := s.begin(w, r, "state")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	viewer, _ := body["player_id"].(string)
	s.writeState(w, g, viewer, nil)
}

func (s *Server) getMoves(w http.ResponseWriter, r *http.Request) {
	g, _, ok := s.begin(w, r, "moves")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	moves := g.Moves
	if moves == nil {
		moves = []api.LegalMove{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"moves": moves})
}

func (s *Server) getTokenOptions(w http.ResponseWriter, r *http.Request) {
	g, _, ok := s.begin(w, r, "meeple_options")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	opts := g.TokenOptions
	if opts == nil {
		opts = []api.TokenOption{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": opts})
}

func asInt(v any) int {
	f, _ := v.(float64)
	return int(f)
}

func (s *Server) placeTile(w http.ResponseWriter, r *http.Request) {
	g, body, ok := s.begin(w, r, "place")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	pid, _ := body["player_id"].(string)
	st := g.State
	if st.CurrentPlayer != pid || st.TurnPhase != api.TurnPlaceTile {
		writeError(w, http.StatusBadRequest, "Not your turn")
		return
	}
	p := st.player(pid)
	idx := asInt(body["tile_idx"])
	if p == nil || idx < 0 || idx >= len(p.Hand) {
		writeError(w, http.StatusBadRequest, "Invalid tile index")
		return
	}
	rot, err := tile.ParseRotation(asInt(body["rotation"]))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rotation")
		return
	}
	at := api.Coord{X: asInt(body["x"]), Y: asInt(body["y"])}
	st.Tiles = append(st.Tiles, Tile{X: at.X, Y: at.Y, Tile: p.Hand[idx], Rotation: rot})
	p.Hand = append(p.Hand[:idx:idx], p.Hand[idx+1:]...)
	slots := st.OpenSlots[:0:0]
	for _, c := range st.OpenSlots {
		if c != at {
			slots = append(slots, c)
		}
	}
	st.OpenSlots = slots
	st.LastPlaced = &at
	st.TurnPhase = api.TurnPlaceToken
	if st.DeckRemaining > 0 {
		st.DeckRemaining--
	}
	opts := g.TokenOptions
	if opts == nil {
		opts = []api.TokenOption{}
	}
	s.writeState(w, g, pid, map[string]any{
		"move":           map[string]any{"x": at.X, "y": at.Y, "rotation": int(rot)},
		"meeple_options": opts,
	})
}

func (s *Server) finishTurn(w http.ResponseWriter, g *Game, pid string, placed *api.PlacedToken) {
	st := g.State
	if st.CurrentPlayer != pid || st.TurnPhase != api.TurnPlaceToken {
		writeError(w, http.StatusBadRequest, "Not in meeple phase")
		return
	}
	if placed != nil {
		st.Tokens = append(st.Tokens, *placed)
		if p := st.player(pid); p != nil && p.TokensAvailable > 0 {
			p.TokensAvailable--
		}
	}
	events := g.ScoreEvents
	if events == nil {
		events = []api.ScoreEvent{}
	}
	for i := range events {
		events[i].Turn = st.Turn
		if p := st.player(events[i].PlayerID); p != nil {
			p.Score += events[i].Points
		}
	}
	st.RecentScores = append(st.RecentScores, events...)
	g.ScoreEvents = nil
	st.advanceTurn()
	s.writeState(w, g, pid, map[string]any{"score_events": events})
}

func (s *Server) placeToken(w http.ResponseWriter, r *http.Request) {
	g, body, ok := s.begin(w, r, "meeple")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	pid, _ := body["player_id"].(string)
	pos, _ := body["position"].(string)
	if pid == "" || pos == "" {
		writeError(w, http.StatusBadRequest, "player_id and position required")
		return
	}
	var at api.Coord
	if g.State.LastPlaced != nil {
		at = *g.State.LastPlaced
	}
	s.finishTurn(w, g, pid, &api.PlacedToken{PlayerID: pid, X: at.X, Y: at.Y, Position: api.Position(pos), Type: "normal"})
}

func (s *Server) skipToken(w http.ResponseWriter, r *http.Request) {
	g, body, ok := s.begin(w, r, "skip_meeple")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	pid, _ := body["player_id"].(string)
	s.finishTurn(w, g, pid, nil)
}

func (s *Server) botTurn(w http.ResponseWriter, r *http.Request) {
	g, _, ok := s.begin(w, r, "bot_turn")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	st := g.State
	cur := st.player(st.CurrentPlayer)
	if cur == nil || !cur.IsBot {
		writeError(w, http.StatusBadRequest, "Current player is not a bot")
		return
	}
	actions := 0
	for cur != nil && cur.IsBot && st.Phase == api.PhasePlaying && actions < 5 {
		st.advanceTurn()
		actions++
		cur = st.player(st.CurrentPlayer)
	}
	s.writeState(w, g, "", map[string]any{"bot_actions": actions})
}

func (s *Server) getAnalytics(w http.ResponseWriter, r *http.Request) {
	g, _, ok := s.begin(w, r, "analytics")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	if g.Analytics == nil {
		writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	writeJSON(w, http.StatusOK, g.Analytics)
}

func (s *Server) getTargets(w http.ResponseWriter, r *http.Request) {
	g, _, ok := s.begin(w, r, "engineer_targets")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	targets := g.Targets
	if targets == nil {
		targets = []api.SpecialTarget{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"targets": targets})
}

func (s *Server) useSpecial(w http.ResponseWriter, r *http.Request) {
	g, body, ok := s.begin(w, r, "engineer")
	if !ok {
		return
	}
	defer s.mu.Unlock()
	pid, _ := body["player_id"].(string)
	at := api.Coord{X: asInt(body["x"]), Y: asInt(body["y"])}
	st := g.State
	p := st.player(pid)
	if p == nil || !p.HasSpecial {
		writeError(w, http.StatusBadRequest, "Engineer already used")
		return
	}
	for i := range st.Tiles {
		if st.Tiles[i].X == at.X && st.Tiles[i].Y == at.Y {
			st.Tiles[i].Rotation = st.Tiles[i].Rotation.Next()
			p.HasSpecial = false
			s.writeState(w, g, pid, map[string]any{
				"rotated":      map[string]any{"x": at.X, "y": at.Y, "rotation": int(st.Tiles[i].Rotation)},
				"score_events": []api.ScoreEvent{},
			})
			return
		}
	}
	writeError(w, http.StatusBadRequest, "No tile at target")
}
