package game

import (
	"strings"
	"testing"

	"github.com/Garsondee/Tile-Board/internal/api"
)

func TestEventLog_RingBuffer(t *testing.T) {
	el := NewEventLog()
	if _, ok := el.Last(); ok {
		t.Fatal("empty log has a last entry")
	}
	for i := 0; i < logMaxEntries+5; i++ {
		el.Add(i, 0, EventInfo, "line")
	}
	if el.Len() != logMaxEntries {
		t.Fatalf("len = %d, want %d", el.Len(), logMaxEntries)
	}
	recent := el.Recent()
	if recent[0].Turn != 5 {
		t.Fatalf("oldest turn = %d, want 5", recent[0].Turn)
	}
	last, _ := el.Last()
	if last.Turn != logMaxEntries+4 || recent[len(recent)-1] != last {
		t.Fatalf("last = %+v", last)
	}
}

func hudState() *api.GameState {
	return &api.GameState{
		Phase:         api.PhasePlaying,
		CurrentPlayer: "me",
		Turn:          7,
		DeckRemaining: 31,
		Rules:         api.Rules{Special: true, Objectives: true},
		Players: api.Players{
			{ID: "me", Name: "Alice", Score: 14, TokensAvailable: 5, HasSpecial: true},
			{ID: "bot", Name: "Bot (Greedy)", Score: 9, TokensAvailable: 6, IsBot: true},
		},
		RecentScores: []api.ScoreEvent{
			{PlayerID: "bot", Points: 2, Reason: "road", Turn: 1},
			{PlayerID: "me", Points: 4, Reason: "city", Turn: 2},
			{PlayerID: "me", Points: 3, Reason: "road", Turn: 3},
			{PlayerID: "bot", Points: 7, Reason: "monastery", Turn: 5},
			{PlayerID: "me", Points: 7, Reason: "city", Turn: 6},
		},
		Objectives: map[string]api.ObjectiveSet{
			"me":  {Count: 1, Objectives: []api.Objective{{Name: "Road Builder", BonusPoints: 5, Completed: true}}},
			"bot": {Count: 1},
		},
	}
}

func TestPlayerLines(t *testing.T) {
	lines := PlayerLines(hudState(), "me")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0].Text, ">") || !strings.Contains(lines[0].Text, "Alice (you)") || !strings.HasSuffix(lines[0].Text, "E") {
		t.Fatalf("own line = %q", lines[0].Text)
	}
	if !strings.Contains(lines[1].Text, "[bot]") || lines[1].Color != PlayerColor(1) {
		t.Fatalf("bot line = %+v", lines[1])
	}
}

func TestInfoLines_LastFourScores(t *testing.T) {
	lines := InfoLines(hudState())
	if lines[0] != "Turn 7  Deck 31" {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines) != 1+recentScoreLines {
		t.Fatalf("got %d lines, want %d", len(lines), 1+recentScoreLines)
	}
	if !strings.Contains(lines[1], "Alice +4 city") {
		t.Fatalf("oldest shown = %q", lines[1])
	}
}

func TestObjectiveLines(t *testing.T) {
	st := hudState()
	if got := ObjectiveLines(st, "me"); len(got) != 2 || got[1] != "[x] Road Builder +5" {
		t.Fatalf("objectives = %q", got)
	}
	if got := ObjectiveLines(st, "bot"); got != nil {
		t.Fatalf("hidden objectives shown: %q", got)
	}
	st.Rules.Objectives = false
	if got := ObjectiveLines(st, "me"); got != nil {
		t.Fatalf("objectives shown with the rule off: %q", got)
	}
}

func TestMetricLines(t *testing.T) {
	if MetricLines(nil, nil) != nil {
		t.Fatal("nil analytics should give no lines")
	}
	a := &api.Analytics{
		Entropy:  &api.Entropy{Normalized: 0.75, OpenSlots: 12},
		Greed:    map[string]api.Greed{"me": {Index: 0.4}},
		Depth:    map[string]api.Depth{"bot": {Interpretation: "tactical"}},
		Conflict: &api.ConflictRisk{Count: 2, TotalRisk: 1.5},
	}
	lines := MetricLines(a, hudState())
	want := []string{
		"METRICS",
		"Entropy 0.75 (12 open)",
		"Conflict 2 risk 1.50",
		"Alice: greed 0.40",
		"Bot (Greedy): tactical",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
