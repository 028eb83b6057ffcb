package game

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"go.uber.org/zap"

	"github.com/Garsondee/Tile-Board/internal/api"
)

// Config holds the client's window and timing settings.
type Config struct {
	Width, Height int
	TileSize      float64
	MinZoom       float64
	MaxZoom       float64
	Sync          SyncConfig
}

// DefaultConfig returns the standard client settings.
func DefaultConfig() Config {
	return Config{
		Width:    1280,
		Height:   800,
		TileSize: 80,
		MinZoom:  zoomMin,
		MaxZoom:  zoomMax,
		Sync:     DefaultSyncConfig(),
	}
}

// Game is the Ebiten client for one joined game.
type Game struct {
	cfg     Config
	log     *zap.Logger
	q       *Queue
	session *Session
	cam     *Camera

	hand      HandLayout
	handLayer *Layer
	screenCam *Camera
	share     SharePanel

	drag    dragState
	showLog bool
}

// New binds a client to gameID as playerID and issues the first poll.
func New(srv Server, gameID, playerID string, cfg Config, log *zap.Logger) *Game {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TileSize <= 0 {
		cfg.TileSize = DefaultConfig().TileSize
	}
	q := NewQueue()
	viewW := cfg.Width - logPanelWidth
	viewH := cfg.Height - handPanelH
	cam := NewCamera(viewW, viewH)
	cam.MinZoom, cam.MaxZoom = cfg.MinZoom, cfg.MaxZoom
	// Centre the start tile rather than its corner.
	cam.Pan(-cfg.TileSize/2, -cfg.TileSize/2)

	g := &Game{
		cfg:       cfg,
		log:       log,
		q:         q,
		session:   NewSession(srv, q, cfg, log),
		cam:       cam,
		hand:      HandLayout{ScreenW: cfg.Width, ScreenH: cfg.Height},
		handLayer: NewLayer("hand"),
		screenCam: &Camera{Zoom: 1},
		showLog:   true,
	}
	g.session.Join(gameID, playerID)
	return g
}

// Session returns the game's session.
func (g *Game) Session() *Session { return g.session }

func (g *Game) Update() error {
	g.handleInput()
	g.q.Drain()
	g.session.Sync().Tick(time.Now())

	st := g.session.State()
	if st != nil && st.Phase == api.PhaseWaiting {
		if err := g.share.Set(g.session.GameID); err != nil {
			g.log.Warn("share panel", zap.Error(err))
		}
	} else {
		_ = g.share.Set("")
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colorBoardBG)

	surf := NewEbitenSurface(screen)
	Paint(surf, g.cam, g.session.Layers()...)

	g.hand.BuildHandLayer(g.handLayer, g.session.Hand(), g.session.Placement())
	Paint(surf, g.screenCam, g.handLayer)

	g.drawInfo(screen)
	g.share.Draw(screen, g.cfg.Width-logPanelWidth, g.cfg.Height-handPanelH)

	if g.showLog {
		g.session.Events().Draw(screen, g.cfg.Width-logPanelWidth, 0, g.cfg.Height)
	}

	if g.cam.Zoom != 1.0 {
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("zoom: %.1fx", g.cam.Zoom), 6, g.cfg.Height-handPanelH-16)
	}
}

// drawInfo stacks the status, players, scores, objectives and metrics
// panels in the top-left corner.
func (g *Game) drawInfo(screen *ebiten.Image) {
	s := g.session
	st := s.State()
	x, y := 6, 6
	status := []string{s.Status()}
	if s.HeatVisible() {
		status = append(status, "heat map on (H)")
	}
	y += drawPanel(screen, x, y, status) + 4
	y += drawPlayers(screen, x, y, PlayerLines(st, s.PlayerID)) + 4
	y += drawPanel(screen, x, y, InfoLines(st)) + 4
	y += drawPanel(screen, x, y, ObjectiveLines(st, s.PlayerID)) + 4
	drawPanel(screen, x, y, MetricLines(s.Analytics(), st))
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// boardView is the screen area the board is drawn in.
func (g *Game) boardView() Rect {
	return Rect{W: float64(g.cfg.Width - logPanelWidth), H: float64(g.cfg.Height - handPanelH)}
}
