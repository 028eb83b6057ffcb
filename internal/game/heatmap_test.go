package game

import (
	"math"
	"testing"

	"github.com/Garsondee/Tile-Board/internal/api"
)

func TestHeatCells_IntensityAndLabels(t *testing.T) {
	a := &api.Analytics{Heatmap: &api.Heatmap{
		Cells:   map[string]float64{"1,0": 0.42, "0,1": 0.05, "-1,0": 0.8},
		MaxProb: 0.8,
	}}
	cells := HeatCells(a)
	if len(cells) != 3 {
		t.Fatalf("got %d cells, want 3", len(cells))
	}
	byAt := map[api.Coord]HeatCell{}
	for _, c := range cells {
		byAt[c.At] = c
	}

	c := byAt[api.Coord{X: 1, Y: 0}]
	if math.Abs(c.Intensity-0.525) > 1e-9 {
		t.Fatalf("intensity = %v, want 0.525", c.Intensity)
	}
	if c.Label != "42%" {
		t.Fatalf("label = %q, want 42%%", c.Label)
	}
	if want := heatColor(0.525); c.Color != want {
		t.Fatalf("colour = %v, want %v", c.Color, want)
	}

	if low := byAt[api.Coord{X: 0, Y: 1}]; low.Label != "" {
		t.Fatalf("faint cell labelled %q", low.Label)
	}
	if top := byAt[api.Coord{X: -1, Y: 0}]; top.Intensity != 1 || top.Label != "80%" {
		t.Fatalf("hottest cell = %+v", top)
	}
}

func TestHeatCells_SortedByRowThenColumn(t *testing.T) {
	a := &api.Analytics{Heatmap: &api.Heatmap{
		Cells:   map[string]float64{"2,1": 0.1, "-3,1": 0.1, "5,-2": 0.1},
		MaxProb: 0.1,
	}}
	cells := HeatCells(a)
	want := []api.Coord{{X: 5, Y: -2}, {X: -3, Y: 1}, {X: 2, Y: 1}}
	for i, c := range want {
		if cells[i].At != c {
			t.Fatalf("cell %d at %v, want %v", i, cells[i].At, c)
		}
	}
}

func TestHeatCells_MissingOrMalformed(t *testing.T) {
	tests := []struct {
		name string
		a    *api.Analytics
		want int
	}{
		{"nil analytics", nil, 0},
		{"no heatmap", &api.Analytics{}, 0},
		{"empty cells", &api.Analytics{Heatmap: &api.Heatmap{MaxProb: 1}}, 0},
		{"bad key skipped", &api.Analytics{Heatmap: &api.Heatmap{
			Cells: map[string]float64{"oops": 0.5, "0,0": 0.5}, MaxProb: 0.5,
		}}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(HeatCells(tc.a)); got != tc.want {
				t.Fatalf("got %d cells, want %d", got, tc.want)
			}
		})
	}
}

func TestHeatCells_ZeroMaxTreatedAsOne(t *testing.T) {
	a := &api.Analytics{Heatmap: &api.Heatmap{Cells: map[string]float64{"0,0": 0.3}}}
	cells := HeatCells(a)
	if len(cells) != 1 || math.Abs(cells[0].Intensity-0.3) > 1e-9 {
		t.Fatalf("cells = %+v", cells)
	}
}

func TestBuildHeatLayer_HalfOpacity(t *testing.T) {
	l := NewLayer("heat")
	cells := HeatCells(&api.Analytics{Heatmap: &api.Heatmap{
		Cells: map[string]float64{"0,0": 0.5}, MaxProb: 0.5,
	}})
	BuildHeatLayer(l, cells, 80)
	if l.Opacity != 0.5 {
		t.Fatalf("layer opacity = %v", l.Opacity)
	}
	g, ok := l.Find("heat:0,0")
	if !ok || len(g.Prims) != 2 {
		t.Fatalf("heat group = %+v", g)
	}
}
