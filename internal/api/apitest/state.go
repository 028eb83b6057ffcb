// Package apitest provides an in-memory stand-in for the game server, for
// tests and for running the client without a backend.
package apitest

import (
	"bytes"
	"encoding/json"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

// Tile is a placed board tile.
type Tile struct {
	X, Y     int
	Tile     tile.Tile
	Rotation tile.Rotation
}

// Player is one seat in a fake game.
type Player struct {
	ID              string
	Name            string
	Score           int
	Hand            []tile.Tile
	IsBot           bool
	BotType         string
	TokensAvailable int
	HasSpecial      bool
}

// State is the fake server's game state, encoded the way the real server
// encodes it.
type State struct {
	ID            string
	Phase         api.GamePhase
	TurnPhase     api.TurnPhase
	Turn          int
	CurrentPlayer string
	DeckRemaining int
	Players       []Player
	Tiles         []Tile
	OpenSlots     []api.Coord
	Tokens        []api.PlacedToken
	LastPlaced    *api.Coord
	RecentScores  []api.ScoreEvent
	Rules         api.Rules
	Objectives    map[string]api.ObjectiveSet
}

func (s *State) player(id string) *Player {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

func (s *State) playerIndex(id string) int {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return i
		}
	}
	return -1
}

// advanceTurn hands the turn to the next seat.
func (s *State) advanceTurn() {
	s.Turn++
	s.TurnPhase = api.TurnPlaceTile
	if len(s.Players) == 0 {
		return
	}
	i := s.playerIndex(s.CurrentPlayer)
	s.CurrentPlayer = s.Players[(i+1)%len(s.Players)].ID
}

type wireTile struct {
	TileType string `json:"tile_type"`
	Edges    []int  `json:"edges"`
	Rotation int    `json:"rotation,omitempty"`
	X        int    `json:"x,omitempty"`
	Y        int    `json:"y,omitempty"`
	Center   *int   `json:"center,omitempty"`
	Shield   *bool  `json:"shield,omitempty"`
}

func edgeCodes(e tile.Edges) []int {
	out := make([]int, len(e))
	for i, f := range e {
		out[i] = int(f)
	}
	return out
}

type wirePlayer struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Score           int        `json:"score"`
	HandSize        int        `json:"hand_size"`
	Hand            []wireTile `json:"hand,omitempty"`
	IsBot           bool       `json:"is_bot"`
	BotType         *string    `json:"bot_type"`
	TokensAvailable int        `json:"meeples_available"`
	HasSpecial      bool       `json:"has_engineer"`
}

// Encode renders the state as seen by viewer: only the viewer's hand is
// included, board edges are pre-rotated and players keep seat order.
func (s *State) Encode(viewer string) ([]byte, error) {
	tiles := make(map[string]wireTile, len(s.Tiles))
	for _, t := range s.Tiles {
		center := int(t.Tile.Center)
		shield := t.Tile.Shield
		tiles[api.Coord{X: t.X, Y: t.Y}.String()] = wireTile{
			TileType: t.Tile.Type,
			Edges:    edgeCodes(t.Tile.Edges.Rotate(t.Rotation)),
			Rotation: int(t.Rotation),
			X:        t.X,
			Y:        t.Y,
			Center:   &center,
			Shield:   &shield,
		}
	}
	slots := s.OpenSlots
	if slots == nil {
		slots = []api.Coord{}
	}

	var players bytes.Buffer
	players.WriteByte('{')
	for i, p := range s.Players {
		if i > 0 {
			players.WriteByte(',')
		}
		wp := wirePlayer{
			ID:              p.ID,
			Name:            p.Name,
			Score:           p.Score,
			HandSize:        len(p.Hand),
			IsBot:           p.IsBot,
			TokensAvailable: p.TokensAvailable,
			HasSpecial:      p.HasSpecial,
		}
		if p.BotType != "" {
			bt := p.BotType
			wp.BotType = &bt
		}
		if p.ID == viewer {
			for _, h := range p.Hand {
				wp.Hand = append(wp.Hand, wireTile{TileType: h.Type, Edges: edgeCodes(h.Edges)})
			}
		}
		key, _ := json.Marshal(p.ID)
		val, err := json.Marshal(wp)
		if err != nil {
			return nil, err
		}
		players.Write(key)
		players.WriteByte(':')
		players.Write(val)
	}
	players.WriteByte('}')

	tokens := s.Tokens
	if tokens == nil {
		tokens = []api.PlacedToken{}
	}
	scores := s.RecentScores
	if scores == nil {
		scores = []api.ScoreEvent{}
	}
	return json.Marshal(map[string]any{
		"id":             s.ID,
		"phase":          s.Phase,
		"turn_phase":     s.TurnPhase,
		"turn":           s.Turn,
		"current_player": s.CurrentPlayer,
		"deck_remaining": s.DeckRemaining,
		"board":          map[string]any{"tiles": tiles, "open_slots": slots},
		"meeples":        map[string]any{"placed": tokens, "counts": map[string]int{}},
		"players":        json.RawMessage(players.Bytes()),
		"last_placed":    s.LastPlaced,
		"recent_scores":  scores,
		"rules":          s.Rules,
		"objectives":     s.Objectives,
	})
}
