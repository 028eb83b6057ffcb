package main

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Tile-Board/internal/game"
)

func demoRun(t *testing.T, autoplay bool) runStats {
	t.Helper()
	c, gameID, playerID, stop, err := startDemo(context.Background())
	if err != nil {
		t.Fatalf("startDemo: %v", err)
	}
	t.Cleanup(stop)
	return run(c, gameID, playerID, runConfig{polls: 20, timeout: 5 * time.Second, autoplay: autoplay}, zap.NewNop())
}

func TestRun_AutoplayAgainstBot(t *testing.T) {
	rs := demoRun(t, true)

	if rs.final == nil {
		t.Fatal("no state observed")
	}
	if len(rs.transitions) == 0 {
		t.Fatal("no transitions recorded")
	}
	if rs.placed == 0 || rs.skipped == 0 {
		t.Fatalf("placed=%d skipped=%d, want both > 0", rs.placed, rs.skipped)
	}
	if got := len(rs.final.Board.Tiles); got > 1+rs.placed {
		t.Fatalf("board has %d tiles after %d placements", got, rs.placed)
	}
	for _, r := range rs.rejections {
		if !strings.HasPrefix(r, "place: ") && !strings.HasPrefix(r, "skip: ") {
			t.Fatalf("unexpected rejection %q", r)
		}
	}
	if rs.polls == 0 {
		t.Fatal("poll counter not reported")
	}
}

func TestRun_ObserveOnly(t *testing.T) {
	rs := demoRun(t, false)
	if rs.placed != 0 || rs.skipped != 0 || len(rs.rejections) != 0 {
		t.Fatalf("observer acted: %+v", rs)
	}
	if len(rs.moveCounts) == 0 {
		t.Fatal("legal moves never fetched on the player's turn")
	}
}

func TestPrintRun(t *testing.T) {
	rs := demoRun(t, true)
	var buf bytes.Buffer
	printRun(&buf, rs)
	out := buf.String()
	for _, want := range []string{"=== Headless Game Report ===", "--- Transitions ---", "--- Players ---", "Observer", "autoplay: placed="} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWritePNG(t *testing.T) {
	rs := demoRun(t, false)
	path := filepath.Join(t.TempDir(), "board.png")
	if err := writePNG(path, game.RenderBoard(rs.final, rs.lastAnalysis, 16)); err != nil {
		t.Fatalf("writePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() == 0 {
		t.Fatal("empty image")
	}

	if err := writePNG(filepath.Join(t.TempDir(), "missing", "x.png"), game.RenderCatalog(nil, 16)); err == nil {
		t.Fatal("writing into a missing directory should fail")
	}
}

func TestHelpers(t *testing.T) {
	ts := []transition{{key: "2-place_tile-playing"}, {key: "1-place_tile-playing"}, {key: "2-place_tile-playing"}}
	keys := distinctKeys(ts)
	if len(keys) != 2 || keys[0] != "1-place_tile-playing" {
		t.Fatalf("distinctKeys = %v", keys)
	}
	if got := avgInts([]int{2, 4, 9}); got != 5 {
		t.Fatalf("avgInts = %v", got)
	}
	if avgInts(nil) != 0 {
		t.Fatal("avgInts(nil) should be 0")
	}
	if got := joinInts([]int{3, 0, 7}); got != "3,0,7" {
		t.Fatalf("joinInts = %q", got)
	}
	if orNone("") != "none" || orNone("x") != "x" {
		t.Fatal("orNone")
	}
}
