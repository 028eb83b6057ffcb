package game

import (
	"fmt"
	"image/color"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

// flashDuration is how long an action result overrides the status line.
const flashDuration = 3 * time.Second

// Session is the single client-side context for one joined game: identity,
// the latest snapshot, local UI state and the layers derived from them.
// Every method runs on the game loop.
type Session struct {
	GameID   string
	PlayerID string

	srv  Server
	q    *Queue
	sync *SyncLoop
	log  *zap.Logger
	now  func() time.Time

	tileSize float64

	state     *api.GameState
	analytics *api.Analytics

	placement *Placement
	tokens    TokenOverlay
	special   specialMode
	showHeat  bool

	flash      string
	flashUntil time.Time
	events     *EventLog
	lastScored int // highest turn whose score events were logged

	board   *Layer
	heat    *Layer
	placed  *Layer
	overlay *Layer
}

// specialMode is the target picker for the special ability.
type specialMode struct {
	active  bool
	loaded  bool
	targets []api.SpecialTarget
	hover   api.Coord
	hovered bool
}

// NewSession returns an unbound session.
func NewSession(srv Server, q *Queue, cfg Config, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Session{
		srv:        srv,
		q:          q,
		log:        log,
		now:        time.Now,
		tileSize:   cfg.TileSize,
		placement:  NewPlacement(),
		events:     NewEventLog(),
		lastScored: -1,
		board:      NewLayer("board"),
		heat:       NewLayer("heat"),
		placed:     NewLayer("tokens"),
		overlay:    NewLayer("overlay"),
	}
	s.heat.Opacity = heatLayerOpacity
	s.heat.Hidden = true
	s.sync = NewSyncLoop(srv, q, s, cfg.Sync, log)
	return s
}

// SetClock replaces the time source.
func (s *Session) SetClock(now func() time.Time) { s.now = now }

// Sync returns the session's sync loop.
func (s *Session) Sync() *SyncLoop { return s.sync }

// Join binds the session to a game and polls at once.
func (s *Session) Join(gameID, playerID string) {
	s.Leave()
	s.GameID, s.PlayerID = gameID, playerID
	s.sync.Bind(gameID, playerID)
	s.log.Info("joined game", zap.String("game_id", gameID), zap.String("player_id", playerID))
	s.sync.Poll()
}

// Leave drops the game; in-flight responses are discarded on arrival.
func (s *Session) Leave() {
	s.sync.Leave()
	s.GameID, s.PlayerID = "", ""
	s.state, s.analytics = nil, nil
	s.placement.Reset()
	s.tokens.Clear()
	s.special = specialMode{}
	s.lastScored = -1
	s.board.Reset()
	s.heat.Reset()
	s.placed.Reset()
	s.overlay.Reset()
}

// State returns the latest snapshot, or nil before the first poll.
func (s *Session) State() *api.GameState { return s.state }

// Analytics returns the latest analytics snapshot.
func (s *Session) Analytics() *api.Analytics { return s.analytics }

// Placement exposes the placement state machine.
func (s *Session) Placement() *Placement { return s.placement }

// Tokens exposes the token overlay.
func (s *Session) Tokens() *TokenOverlay { return &s.tokens }

// Events returns the event log.
func (s *Session) Events() *EventLog { return s.events }

// Layers returns the board layers bottom to top.
func (s *Session) Layers() []*Layer {
	return []*Layer{s.board, s.heat, s.placed, s.overlay}
}

// Me returns the local player.
func (s *Session) Me() (api.Player, bool) {
	if s.state == nil {
		return api.Player{}, false
	}
	return s.state.Players.Get(s.PlayerID)
}

// Hand returns the local player's hand.
func (s *Session) Hand() []tile.Tile {
	me, _ := s.Me()
	return me.Hand
}

func (s *Session) myTurn() bool { return s.state.IsTurnOf(s.PlayerID) }

// CanPlace reports whether the local player is in the tile phase.
func (s *Session) CanPlace() bool {
	return s.myTurn() && s.state.TurnPhase == api.TurnPlaceTile
}

// CanUseSpecial reports whether the special ability may be used now.
func (s *Session) CanUseSpecial() bool {
	if !s.CanPlace() || !s.state.Rules.Special {
		return false
	}
	me, ok := s.Me()
	return ok && me.HasSpecial
}

// Status returns the status line: a recent action result while it lasts,
// otherwise the line derived from the snapshot.
func (s *Session) Status() string {
	if s.flash != "" && s.now().Before(s.flashUntil) {
		return s.flash
	}
	if s.special.active {
		if s.special.loaded && len(s.special.targets) == 0 {
			return "No valid targets for the engineer"
		}
		return "Click a highlighted tile to rotate it"
	}
	return StatusLine(s.state, s.PlayerID)
}

func (s *Session) setFlash(kind EventKind, msg string) {
	s.flash = msg
	s.flashUntil = s.now().Add(flashDuration)
	turn := 0
	if s.state != nil {
		turn = s.state.Turn
	}
	s.events.Add(turn, -1, kind, msg)
}

// StatusLine derives the status text from a snapshot.
func StatusLine(st *api.GameState, playerID string) string {
	if st == nil {
		return "Connecting..."
	}
	switch {
	case st.Phase == api.PhaseFinished:
		if w, ok := Winner(st); ok {
			return fmt.Sprintf("%s wins! %d pts", w.Name, w.Score)
		}
		return "Game over"
	case st.Phase == api.PhaseWaiting:
		return "Waiting for opponent..."
	case st.IsTurnOf(playerID):
		if st.TurnPhase == api.TurnPlaceToken {
			return "Place meeple or skip"
		}
		return "Your turn: select tile, R to rotate, click slot"
	}
	if cur, ok := st.Current(); ok && cur.IsBot {
		return "Bot thinking..."
	}
	return "Opponent's turn..."
}

// Winner returns the highest scorer; ties go to the earlier seat.
func Winner(st *api.GameState) (api.Player, bool) {
	if st == nil || len(st.Players) == 0 {
		return api.Player{}, false
	}
	best := st.Players[0]
	for _, p := range st.Players[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}

// ApplyState replaces the snapshot and rebuilds every layer.
func (s *Session) ApplyState(st *api.GameState) {
	s.state = st
	if idx, ok := s.placement.Selected(); ok && (!s.CanPlace() || idx >= len(s.Hand())) {
		s.placement.Reset()
	}
	if !s.CanPlace() {
		s.placement.ClearMoves()
		s.special = specialMode{}
	}
	s.tokens.Clear()
	s.logScores(st)
	BuildBoardLayer(s.board, st, s.tileSize)
	BuildTokenLayer(s.placed, st, s.tileSize)
	s.rebuildOverlay()
}

func (s *Session) logScores(st *api.GameState) {
	top := s.lastScored
	for _, e := range st.RecentScores {
		if e.Turn <= s.lastScored {
			continue
		}
		seat := st.Players.Index(e.PlayerID)
		name := e.PlayerID
		if p, ok := st.Players.Get(e.PlayerID); ok {
			name = p.Name
		}
		s.events.Add(e.Turn, seat, EventScore, fmt.Sprintf("%s +%d %s", name, e.Points, e.Reason))
		if e.Turn > top {
			top = e.Turn
		}
	}
	s.lastScored = top
}

// ApplyMoves installs a fresh legal move set.
func (s *Session) ApplyMoves(moves []api.LegalMove) {
	if !s.CanPlace() {
		return
	}
	s.placement.SetMoves(moves)
	s.rebuildOverlay()
}

// ApplyTokenOptions shows the token overlay on the last placed tile.
func (s *Session) ApplyTokenOptions(opts []api.TokenOption) {
	if s.state == nil || !s.myTurn() || s.state.TurnPhase != api.TurnPlaceToken {
		return
	}
	s.tokens.Activate(s.state.LastPlaced, opts)
	s.rebuildOverlay()
}

// ApplyAnalytics replaces the analytics snapshot.
func (s *Session) ApplyAnalytics(a *api.Analytics) {
	s.analytics = a
	BuildHeatLayer(s.heat, HeatCells(a), s.tileSize)
	s.heat.Hidden = !s.showHeat
}

// ClearMoves drops the legal move set.
func (s *Session) ClearMoves() {
	s.placement.ClearMoves()
	s.rebuildOverlay()
}

func (s *Session) rebuildOverlay() {
	s.overlay.Reset()
	switch {
	case s.special.active:
		s.buildSpecialLayer()
	case s.tokens.Active():
		s.tokens.BuildLayer(s.overlay, s.tileSize)
	default:
		var open []api.Coord
		if s.state != nil {
			open = s.state.Board.OpenSlots
		}
		s.placement.BuildLayer(s.overlay, open, s.Hand(), s.tileSize)
	}
}

// ToggleHeat shows or hides the heat layer. Other layers are untouched.
func (s *Session) ToggleHeat() {
	s.showHeat = !s.showHeat
	s.heat.Hidden = !s.showHeat
}

// HeatVisible reports whether the heat layer is shown.
func (s *Session) HeatVisible() bool { return s.showHeat }

// SelectTile selects hand tile idx when the local player may place.
func (s *Session) SelectTile(idx int) {
	if !s.CanPlace() || idx < 0 || idx >= len(s.Hand()) || s.special.active {
		return
	}
	s.placement.SelectTile(idx)
	s.rebuildOverlay()
}

// Deselect drops the selected hand tile.
func (s *Session) Deselect() {
	s.placement.Deselect()
	s.rebuildOverlay()
}

// Rotate turns the selected tile a quarter turn.
func (s *Session) Rotate() {
	s.placement.Rotate()
	s.rebuildOverlay()
}

// Hover updates hover highlights for the world point p.
func (s *Session) Hover(p Vec) {
	g, ok := HitTest(p, s.overlay)
	var at *api.Coord
	var pos api.Position
	s.special.hovered = false
	if ok {
		switch g.Hit.Kind {
		case HitSlot:
			c := g.Hit.At
			at = &c
		case HitToken:
			pos = g.Hit.Position
		case HitSpecial:
			s.special.hover, s.special.hovered = g.Hit.At, true
		}
	}
	s.placement.Hover(at)
	s.tokens.HoverPosition(pos)
	s.rebuildOverlay()
}

// Click dispatches a click at world point p to whatever overlay owns it.
func (s *Session) Click(p Vec) {
	g, ok := HitTest(p, s.overlay)
	if !ok {
		return
	}
	switch g.Hit.Kind {
	case HitSlot:
		s.ClickSlot(g.Hit.At)
	case HitToken:
		s.ChooseToken(g.Hit.Position)
	case HitSpecial:
		s.UseSpecial(g.Hit.At)
	}
}

// ClickSlot feeds a slot click to the placement state machine and commits
// when it yields an intent.
func (s *Session) ClickSlot(at api.Coord) {
	intent, ok := s.placement.Click(at)
	s.rebuildOverlay()
	if !ok {
		return
	}
	s.commit(intent)
}

func (s *Session) commit(intent CommitIntent) {
	gen, gameID, playerID := s.sync.Generation(), s.GameID, s.PlayerID
	s.log.Debug("commit placement",
		zap.String("game_id", gameID),
		zap.Int("hand", intent.HandIndex),
		zap.Int("x", intent.X), zap.Int("y", intent.Y),
		zap.Int("rotation", int(intent.Rotation)),
	)
	s.q.Go(func() func() {
		ctx, cancel := s.sync.ctx()
		defer cancel()
		_, err := s.srv.PlaceTile(ctx, gameID, playerID, api.Placement{
			HandIndex: intent.HandIndex, X: intent.X, Y: intent.Y, Rotation: intent.Rotation,
		})
		return func() {
			if gen != s.sync.Generation() {
				return
			}
			if err != nil {
				s.placementFailed(err)
				return
			}
			s.placement.Accepted()
			s.sync.ForceRefresh()
		}
	})
}

func (s *Session) placementFailed(err error) {
	reason, rejected := api.Rejection(err)
	if rejected {
		s.log.Info("placement rejected", zap.String("reason", reason))
		s.setFlash(EventError, "Error: "+reason)
	} else {
		s.log.Debug("placement failed", zap.Error(err))
	}
	s.placement.Rejected(reason)
	s.rebuildOverlay()
	if s.CanPlace() {
		s.sync.FetchMoves()
	}
}

// ChooseToken places a token at pos.
func (s *Session) ChooseToken(pos api.Position) {
	intent, ok := s.tokens.Choose(pos)
	if !ok {
		return
	}
	s.sendToken(intent)
}

// SkipToken declines the token sub-phase.
func (s *Session) SkipToken() {
	intent, ok := s.tokens.Skip()
	if !ok {
		return
	}
	s.sendToken(intent)
}

func (s *Session) sendToken(intent TokenIntent) {
	s.rebuildOverlay()
	gen, gameID, playerID := s.sync.Generation(), s.GameID, s.PlayerID
	s.q.Go(func() func() {
		ctx, cancel := s.sync.ctx()
		defer cancel()
		var res *api.ActionResult
		var err error
		if intent.Skip {
			res, err = s.srv.SkipToken(ctx, gameID, playerID)
		} else {
			res, err = s.srv.PlaceToken(ctx, gameID, playerID, intent.Position)
		}
		return func() {
			if gen != s.sync.Generation() {
				return
			}
			switch {
			case err != nil:
				if reason, ok := api.Rejection(err); ok {
					s.setFlash(EventError, "Error: "+reason)
				} else {
					s.log.Debug("token action failed", zap.Error(err))
				}
			case len(res.ScoreEvents) > 0:
				s.setFlash(EventScore, fmt.Sprintf("+%d pts!", api.TotalPoints(res.ScoreEvents)))
			}
			s.sync.ForceRefresh()
		}
	})
}

// StartSpecial enters target picking for the special ability.
func (s *Session) StartSpecial() {
	if !s.CanUseSpecial() || s.special.active {
		return
	}
	s.special = specialMode{active: true}
	s.rebuildOverlay()
	gen, gameID, playerID := s.sync.Generation(), s.GameID, s.PlayerID
	s.q.Go(func() func() {
		ctx, cancel := s.sync.ctx()
		defer cancel()
		targets, err := s.srv.SpecialTargets(ctx, gameID, playerID)
		return func() {
			if gen != s.sync.Generation() || !s.special.active {
				return
			}
			if err != nil {
				s.log.Debug("special targets fetch failed", zap.Error(err))
			}
			s.special.targets = targets
			s.special.loaded = true
			s.rebuildOverlay()
		}
	})
}

// CancelSpecial leaves target picking.
func (s *Session) CancelSpecial() {
	if !s.special.active {
		return
	}
	s.special = specialMode{}
	s.rebuildOverlay()
}

// SpecialActive reports whether target picking is on.
func (s *Session) SpecialActive() bool { return s.special.active }

// UseSpecial applies the special ability to the tile at at. A rejection keeps
// the picker open.
func (s *Session) UseSpecial(at api.Coord) {
	if !s.special.active {
		return
	}
	gen, gameID, playerID := s.sync.Generation(), s.GameID, s.PlayerID
	s.q.Go(func() func() {
		ctx, cancel := s.sync.ctx()
		defer cancel()
		_, err := s.srv.UseSpecial(ctx, gameID, playerID, at)
		return func() {
			if gen != s.sync.Generation() {
				return
			}
			if err != nil {
				if reason, ok := api.Rejection(err); ok {
					s.setFlash(EventError, "Error: "+reason)
				} else {
					s.log.Debug("special ability failed", zap.Error(err))
				}
				return
			}
			s.events.Add(s.state.Turn, s.state.Players.Index(playerID), EventInfo, "engineer rotated "+at.String())
			s.CancelSpecial()
			s.sync.ForceRefresh()
		}
	})
}

var (
	colorSpecialFill   = color.NRGBA{R: 52, G: 152, B: 219, A: 51}
	colorSpecialHover  = color.NRGBA{R: 52, G: 152, B: 219, A: 102}
	colorSpecialStroke = color.NRGBA{R: 0x34, G: 0x98, B: 0xdb, A: 255}
)

func (s *Session) buildSpecialLayer() {
	for _, t := range s.special.targets {
		at := t.At()
		r := cellRect(at, s.tileSize)
		fill := color.Color(colorSpecialFill)
		if s.special.hovered && s.special.hover == at {
			fill = colorSpecialHover
		}
		s.overlay.Add(Group{
			ID: "special:" + at.String(),
			Prims: []Prim{
				rectPrim(r, fill, colorSpecialStroke, 2),
				textPrim(fmt.Sprintf("%d>%d", t.CurrentRotation, t.NewRotation), Vec{r.X + 4, r.Y + r.H/2 - 6}, colorSpecialStroke),
			},
			Hit: &Hit{Kind: HitSpecial, Region: r, At: at},
		})
	}
}
