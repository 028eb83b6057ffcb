package game

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/skip2/go-qrcode"

	"github.com/Garsondee/Tile-Board/internal/api"
)

const (
	hudLineH = 12 // debug font line height
	hudCharW = 6  // debug font char width
	hudPadX  = 5
	hudPadY  = 4
	qrSize   = 160
)

// recentScoreLines is how many score events the info panel lists.
const recentScoreLines = 4

// PlayerLine is one row of the players panel.
type PlayerLine struct {
	Seat  int
	Color color.RGBA
	Text  string
}

// PlayerLines describes every player in seat order.
func PlayerLines(st *api.GameState, playerID string) []PlayerLine {
	if st == nil {
		return nil
	}
	out := make([]PlayerLine, 0, len(st.Players))
	for i, p := range st.Players {
		mark := " "
		if p.ID == st.CurrentPlayer && st.Phase == api.PhasePlaying {
			mark = ">"
		}
		name := p.Name
		switch {
		case p.ID == playerID:
			name += " (you)"
		case p.IsBot:
			name += " [bot]"
		}
		text := fmt.Sprintf("%s %-18s %4d pts  %d tokens", mark, name, p.Score, p.TokensAvailable)
		if st.Rules.Special && p.HasSpecial {
			text += "  E"
		}
		out = append(out, PlayerLine{Seat: i, Color: PlayerColor(i), Text: text})
	}
	return out
}

// InfoLines is the game summary shown above the players.
func InfoLines(st *api.GameState) []string {
	if st == nil {
		return []string{"Connecting..."}
	}
	lines := []string{
		fmt.Sprintf("Turn %d  Deck %d", st.Turn, st.DeckRemaining),
	}
	scores := st.RecentScores
	if len(scores) > recentScoreLines {
		scores = scores[len(scores)-recentScoreLines:]
	}
	for _, e := range scores {
		name := e.PlayerID
		if p, ok := st.Players.Get(e.PlayerID); ok {
			name = p.Name
		}
		lines = append(lines, fmt.Sprintf("  %s +%d %s", name, e.Points, e.Reason))
	}
	return lines
}

// ObjectiveLines lists the local player's objectives, when the rule is on.
func ObjectiveLines(st *api.GameState, playerID string) []string {
	if st == nil || !st.Rules.Objectives {
		return nil
	}
	set, ok := st.Objectives[playerID]
	if !ok || len(set.Objectives) == 0 {
		return nil
	}
	lines := []string{"OBJECTIVES"}
	for _, o := range set.Objectives {
		box := "[ ]"
		if o.Completed {
			box = "[x]"
		}
		lines = append(lines, fmt.Sprintf("%s %s +%d", box, o.Name, o.BonusPoints))
	}
	return lines
}

// MetricLines formats the analytics metrics for the players panel. Missing
// parts of the snapshot are skipped.
func MetricLines(a *api.Analytics, st *api.GameState) []string {
	if a == nil {
		return nil
	}
	var lines []string
	if a.Entropy != nil {
		lines = append(lines, fmt.Sprintf("Entropy %.2f (%d open)", a.Entropy.Normalized, a.Entropy.OpenSlots))
	}
	if a.Conflict != nil {
		lines = append(lines, fmt.Sprintf("Conflict %d risk %.2f", a.Conflict.Count, a.Conflict.TotalRisk))
	}
	for _, id := range metricPlayers(a, st) {
		name := id
		if st != nil {
			if p, ok := st.Players.Get(id); ok {
				name = p.Name
			}
		}
		line := name + ":"
		if g, ok := a.Greed[id]; ok {
			line += fmt.Sprintf(" greed %.2f", g.Index)
		}
		if ag, ok := a.Aggression[id]; ok {
			line += fmt.Sprintf(" aggr %.2f", ag.Index)
		}
		if t, ok := a.Territory[id]; ok {
			line += fmt.Sprintf(" terr %.0f%%", t.Control*100)
		}
		if d, ok := a.Depth[id]; ok {
			line += " " + d.Interpretation
		}
		if a.Luck != nil {
			if l, ok := a.Luck.Players[id]; ok {
				line += fmt.Sprintf(" luck %.2f", l.Avg)
			}
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		lines = append([]string{"METRICS"}, lines...)
	}
	return lines
}

// metricPlayers returns seat order when a snapshot is known, otherwise the
// sorted ids present in the analytics.
func metricPlayers(a *api.Analytics, st *api.GameState) []string {
	if st != nil && len(st.Players) > 0 {
		ids := make([]string, len(st.Players))
		for i, p := range st.Players {
			ids[i] = p.ID
		}
		return ids
	}
	seen := map[string]bool{}
	for id := range a.Greed {
		seen[id] = true
	}
	for id := range a.Territory {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// drawPanel draws lines in a framed box with its top-left at (x, y) and
// returns the box height.
func drawPanel(screen *ebiten.Image, x, y int, lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	maxLen := 0
	for _, l := range lines {
		if len(l) > maxLen {
			maxLen = len(l)
		}
	}
	boxW := float32(maxLen*hudCharW + hudPadX*2)
	boxH := float32(len(lines)*hudLineH + hudPadY*2)
	vector.FillRect(screen, float32(x), float32(y), boxW, boxH, color.RGBA{R: 14, G: 16, B: 24, A: 220}, false)
	vector.StrokeRect(screen, float32(x), float32(y), boxW, boxH, 1, color.RGBA{R: 60, G: 60, B: 90, A: 200}, false)
	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, x+hudPadX, y+hudPadY+i*hudLineH)
	}
	return int(boxH)
}

// drawPlayers draws the players panel with a colour swatch per seat.
func drawPlayers(screen *ebiten.Image, x, y int, players []PlayerLine) int {
	if len(players) == 0 {
		return 0
	}
	lines := make([]string, len(players))
	for i, p := range players {
		lines[i] = "  " + p.Text
	}
	h := drawPanel(screen, x, y, lines)
	for i, p := range players {
		vector.FillRect(screen, float32(x+hudPadX), float32(y+hudPadY+i*hudLineH+3), 6, 6, p.Color, false)
	}
	return h
}

// SharePanel shows the game id and a QR code while waiting for opponents.
type SharePanel struct {
	gameID string
	qr     *ebiten.Image
	copied bool
}

// Set switches the panel to gameID, regenerating the QR code when it changes.
func (p *SharePanel) Set(gameID string) error {
	if gameID == p.gameID && p.qr != nil {
		return nil
	}
	p.gameID, p.qr, p.copied = gameID, nil, false
	if gameID == "" {
		return nil
	}
	code, err := qrcode.New(gameID, qrcode.Medium)
	if err != nil {
		return fmt.Errorf("encoding game id: %w", err)
	}
	p.qr = ebiten.NewImageFromImage(code.Image(qrSize))
	return nil
}

// Copy places the game id on the system clipboard.
func (p *SharePanel) Copy() error {
	if p.gameID == "" {
		return nil
	}
	if err := clipboard.WriteAll(p.gameID); err != nil {
		return fmt.Errorf("copying game id: %w", err)
	}
	p.copied = true
	return nil
}

// Draw renders the panel centred in a w by h area.
func (p *SharePanel) Draw(screen *ebiten.Image, w, h int) {
	if p.gameID == "" {
		return
	}
	hint := "Press C to copy"
	if p.copied {
		hint = "Copied!"
	}
	lines := []string{"Share this game", "ID: " + p.gameID, hint}
	x := w/2 - qrSize/2
	y := h/2 - qrSize/2 - 60
	drawPanel(screen, x, y, lines)
	if p.qr != nil {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(x), float64(y+len(lines)*hudLineH+hudPadY*3))
		screen.DrawImage(p.qr, op)
	}
}
