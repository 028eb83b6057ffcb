package game

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// panSpeed is the keyboard pan speed in screen pixels per frame.
const panSpeed = 8.0

// dragThreshold is how far the pointer must move before a press becomes a
// pan rather than a click.
const dragThreshold = 4.0

var handKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3,
	ebiten.Key4, ebiten.Key5, ebiten.Key6,
	ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

type dragState struct {
	down  bool
	moved bool
	start Vec
	last  Vec
}

func (g *Game) handleInput() {
	s := g.session

	// R: rotate the selected tile.
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		s.Rotate()
	}
	// H: heat map.
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		s.ToggleHeat()
	}
	// E: special ability target picker.
	if inpututil.IsKeyJustPressed(ebiten.KeyE) {
		s.StartSpecial()
	}
	// L: event log panel.
	if inpututil.IsKeyJustPressed(ebiten.KeyL) {
		g.showLog = !g.showLog
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if s.SpecialActive() {
			s.CancelSpecial()
		} else {
			s.Deselect()
		}
	}
	// C: copy the game id while sharing.
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		if err := g.share.Copy(); err != nil {
			g.log.Warn("clipboard", zap.Error(err))
		}
	}
	for i, k := range handKeys {
		if inpututil.IsKeyJustPressed(k) {
			s.SelectTile(i)
		}
	}

	// S skips the token while the token overlay is up; otherwise it pans.
	skipping := s.Tokens().Active()
	if skipping && inpututil.IsKeyJustPressed(ebiten.KeyS) {
		s.SkipToken()
	}

	// Camera pan: WASD or arrow keys.
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.cam.Pan(0, panSpeed)
	}
	if (!skipping && ebiten.IsKeyPressed(ebiten.KeyS)) || ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.cam.Pan(0, -panSpeed)
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) || ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.cam.Pan(panSpeed, 0)
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) || ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.cam.Pan(-panSpeed, 0)
	}

	mx, my := ebiten.CursorPosition()
	cursor := Vec{float64(mx), float64(my)}
	overBoard := g.boardView().Contains(cursor)

	// Zoom: mouse wheel, anchored at the pointer.
	if _, wy := ebiten.Wheel(); wy != 0 && overBoard {
		g.cam.ZoomAt(cursor, wy)
	}

	g.handlePointer(cursor, overBoard)
}

// handlePointer turns presses into clicks or drags. A press that moves past
// the threshold pans the board and never clicks.
func (g *Game) handlePointer(cursor Vec, overBoard bool) {
	s := g.session
	if overBoard && !g.drag.down {
		s.Hover(g.cam.ScreenToWorld(cursor))
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if i, ok := g.hand.IndexAt(cursor, len(s.Hand())); ok {
			s.SelectTile(i)
			return
		}
		if overBoard {
			g.drag = dragState{down: true, start: cursor, last: cursor}
		}
		return
	}
	if !g.drag.down {
		return
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		dx, dy := cursor.X-g.drag.start.X, cursor.Y-g.drag.start.Y
		if !g.drag.moved && dx*dx+dy*dy > dragThreshold*dragThreshold {
			g.drag.moved = true
		}
		if g.drag.moved {
			g.cam.Pan(cursor.X-g.drag.last.X, cursor.Y-g.drag.last.Y)
		}
		g.drag.last = cursor
		return
	}
	// Released.
	if !g.drag.moved {
		s.Click(g.cam.ScreenToWorld(cursor))
	}
	g.drag = dragState{}
}
