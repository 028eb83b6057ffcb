// Package api is the client side of the game server's HTTP/JSON interface:
// the wire types the server sends and a Client that calls its routes.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Garsondee/Tile-Board/internal/tile"
)

// Coord is an integer board coordinate. On the wire it is a two-element
// array [x, y], and map keys use the form "x,y".
type Coord struct {
	X, Y int
}

// String returns the "x,y" key form.
func (c Coord) String() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
}

// ParseCoordKey parses an "x,y" key.
func ParseCoordKey(key string) (Coord, error) {
	xs, ys, ok := strings.Cut(key, ",")
	if !ok {
		return Coord{}, fmt.Errorf("coordinate key %q: missing comma", key)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return Coord{}, fmt.Errorf("coordinate key %q: %w", key, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return Coord{}, fmt.Errorf("coordinate key %q: %w", key, err)
	}
	return Coord{X: x, Y: y}, nil
}

// UnmarshalJSON accepts [x, y] and {"x":..,"y":..}.
func (c *Coord) UnmarshalJSON(b []byte) error {
	var pair []int
	if err := json.Unmarshal(b, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("coordinate: want 2 values, got %d", len(pair))
		}
		c.X, c.Y = pair[0], pair[1]
		return nil
	}
	var obj struct {
		X int `json:"x"`
		Y int `json:"y"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("coordinate: %w", err)
	}
	c.X, c.Y = obj.X, obj.Y
	return nil
}

// MarshalJSON writes the [x, y] form.
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// GamePhase is the overall lifecycle phase of a game.
type GamePhase string

const (
	PhaseWaiting  GamePhase = "waiting"
	PhasePlaying  GamePhase = "playing"
	PhaseFinished GamePhase = "finished"
)

// TurnPhase is the sub-state within a turn.
type TurnPhase string

const (
	TurnPlaceTile  TurnPhase = "place_tile"
	TurnPlaceToken TurnPhase = "place_meeple"
)

// Position is where a token sits on a tile.
type Position string

const (
	PosNorth  Position = "N"
	PosEast   Position = "E"
	PosSouth  Position = "S"
	PosWest   Position = "W"
	PosCenter Position = "CENTER"
)

// wireTile is the server's tile encoding, shared by hand and board tiles.
type wireTile struct {
	TileType string `json:"tile_type"`
	Edges    []int  `json:"edges"`
	Center   *int   `json:"center"`
	Shield   *bool  `json:"shield"`
	Rotation int    `json:"rotation"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// tile converts the wire encoding. Hand tiles omit center and shield; those
// are filled in from the catalog by tile type when known.
func (w wireTile) tile() (tile.Tile, error) {
	if len(w.Edges) != 4 {
		return tile.Tile{}, fmt.Errorf("tile %q: want 4 edges, got %d", w.TileType, len(w.Edges))
	}
	t := tile.Tile{Type: w.TileType}
	for i, code := range w.Edges {
		f, err := tile.ParseFeature(code)
		if err != nil {
			return tile.Tile{}, fmt.Errorf("tile %q: %w", w.TileType, err)
		}
		t.Edges[i] = f
	}
	if known, ok := tile.Lookup(w.TileType); ok {
		t.Center = known.Center
		t.Shield = known.Shield
	}
	if w.Center != nil {
		c, err := tile.ParseCenter(*w.Center)
		if err != nil {
			return tile.Tile{}, fmt.Errorf("tile %q: %w", w.TileType, err)
		}
		t.Center = c
	}
	if w.Shield != nil {
		t.Shield = *w.Shield
	}
	return t, nil
}

// PlacedTile is a tile fixed on the board with its committed rotation.
type PlacedTile struct {
	At       Coord
	Tile     tile.Tile // unrotated encoding
	Rotation tile.Rotation
}

// Board is the server's board: placed tiles sorted by row then column, and
// the open slots adjacent to them.
type Board struct {
	Tiles     []PlacedTile
	OpenSlots []Coord
	// Skipped describes tiles that failed to decode and were left out.
	Skipped []string
}

// UnmarshalJSON decodes {"tiles": {"x,y": tile}, "open_slots": [[x,y]]}.
// Board edges arrive already rotated; they are turned back so that
// rendering the tile at its rotation reproduces them. A malformed tile is
// dropped and noted in Skipped; the rest of the board still decodes.
func (b *Board) UnmarshalJSON(data []byte) error {
	var w struct {
		Tiles     map[string]wireTile `json:"tiles"`
		OpenSlots []Coord             `json:"open_slots"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	b.Tiles = make([]PlacedTile, 0, len(w.Tiles))
	b.Skipped = nil
	for key, wt := range w.Tiles {
		t, err := wt.tile()
		if err != nil {
			b.Skipped = append(b.Skipped, fmt.Sprintf("board tile %s: %v", key, err))
			continue
		}
		rot, err := tile.ParseRotation(wt.Rotation)
		if err != nil {
			b.Skipped = append(b.Skipped, fmt.Sprintf("board tile %s: %v", key, err))
			continue
		}
		t.Edges = t.Edges.Unrotate(rot)
		b.Tiles = append(b.Tiles, PlacedTile{At: Coord{X: wt.X, Y: wt.Y}, Tile: t, Rotation: rot})
	}
	sort.Slice(b.Tiles, func(i, j int) bool {
		a, c := b.Tiles[i].At, b.Tiles[j].At
		if a.Y != c.Y {
			return a.Y < c.Y
		}
		return a.X < c.X
	})
	b.OpenSlots = w.OpenSlots
	return nil
}

// TileAt returns the placed tile at c.
func (b Board) TileAt(c Coord) (PlacedTile, bool) {
	for _, t := range b.Tiles {
		if t.At == c {
			return t, true
		}
	}
	return PlacedTile{}, false
}

// Player is the public state of one participant.
type Player struct {
	ID              string
	Name            string
	Score           int
	HandSize        int
	Hand            []tile.Tile // only present for the requesting player
	IsBot           bool
	BotType         string
	TokensAvailable int
	HasSpecial      bool
	// Skipped describes hand tiles that failed to decode and were left out.
	Skipped []string
}

type wirePlayer struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Score           int        `json:"score"`
	HandSize        int        `json:"hand_size"`
	Hand            []wireTile `json:"hand"`
	IsBot           bool       `json:"is_bot"`
	BotType         *string    `json:"bot_type"`
	TokensAvailable int        `json:"meeples_available"`
	HasSpecial      bool       `json:"has_engineer"`
}

// Players keeps the server's player order, which fixes each player's colour.
type Players []Player

// UnmarshalJSON decodes the server's id-keyed player object in document order.
func (ps *Players) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("players: %w", err)
	}
	if tok == nil {
		*ps = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("players: want object, got %v", tok)
	}
	out := Players{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("players: %w", err)
		}
		id, _ := keyTok.(string)
		var wp wirePlayer
		if err := dec.Decode(&wp); err != nil {
			return fmt.Errorf("player %s: %w", id, err)
		}
		p := Player{
			ID:              id,
			Name:            wp.Name,
			Score:           wp.Score,
			HandSize:        wp.HandSize,
			IsBot:           wp.IsBot,
			TokensAvailable: wp.TokensAvailable,
			HasSpecial:      wp.HasSpecial,
		}
		if wp.ID != "" {
			p.ID = wp.ID
		}
		if wp.BotType != nil {
			p.BotType = *wp.BotType
		}
		for i, wt := range wp.Hand {
			t, err := wt.tile()
			if err != nil {
				p.Skipped = append(p.Skipped, fmt.Sprintf("player %s hand[%d]: %v", id, i, err))
				continue
			}
			p.Hand = append(p.Hand, t)
		}
		out = append(out, p)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("players: %w", err)
	}
	*ps = out
	return nil
}

// Index returns the position of the player with the given id, or -1.
func (ps Players) Index(id string) int {
	for i, p := range ps {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the player with the given id.
func (ps Players) Get(id string) (Player, bool) {
	if i := ps.Index(id); i >= 0 {
		return ps[i], true
	}
	return Player{}, false
}

// PlacedToken is a token already on the board.
type PlacedToken struct {
	PlayerID string   `json:"player_id"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Position Position `json:"position"`
	Type     string   `json:"type"`
}

// At returns the token's tile coordinate.
func (t PlacedToken) At() Coord { return Coord{X: t.X, Y: t.Y} }

// Tokens is the server's token bookkeeping.
type Tokens struct {
	Placed []PlacedToken  `json:"placed"`
	Counts map[string]int `json:"counts"`
}

// ScoreEvent is one scoring outcome.
type ScoreEvent struct {
	PlayerID string `json:"player_id"`
	Points   int    `json:"points"`
	Reason   string `json:"reason"`
	Turn     int    `json:"turn"`
}

// TotalPoints sums the points of events.
func TotalPoints(events []ScoreEvent) int {
	sum := 0
	for _, e := range events {
		sum += e.Points
	}
	return sum
}

// Rules are the optional rule-set switches of a game.
type Rules struct {
	Special    bool `json:"engineer"`
	Objectives bool `json:"objectives"`
	HandSize   int  `json:"hand_size,omitempty"`
}

// Objective is one hidden goal dealt to a player.
type Objective struct {
	ID          string `json:"obj_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	BonusPoints int    `json:"bonus_points"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
}

// ObjectiveSet holds a player's objectives; Objectives is nil for opponents.
type ObjectiveSet struct {
	Count      int         `json:"count"`
	Objectives []Objective `json:"objectives"`
}

// GameState is one full snapshot of the server's game. It replaces the
// previous snapshot wholesale; it is never patched.
type GameState struct {
	ID            string                  `json:"id"`
	Phase         GamePhase               `json:"phase"`
	TurnPhase     TurnPhase               `json:"turn_phase"`
	Board         Board                   `json:"board"`
	Tokens        Tokens                  `json:"meeples"`
	Players       Players                 `json:"players"`
	CurrentPlayer string                  `json:"current_player"`
	DeckRemaining int                     `json:"deck_remaining"`
	Turn          int                     `json:"turn"`
	LastPlaced    *Coord                  `json:"last_placed"`
	RecentScores  []ScoreEvent            `json:"recent_scores"`
	Rules         Rules                   `json:"rules"`
	Objectives    map[string]ObjectiveSet `json:"objectives"`
}

// Key is the transition key: two snapshots with the same key render the same
// turn structure, so the client treats them as one state.
func (s *GameState) Key() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%d-%s-%s", s.Turn, s.TurnPhase, s.Phase)
}

// Malformed lists the parts of the snapshot that were dropped while decoding.
func (s *GameState) Malformed() []string {
	if s == nil {
		return nil
	}
	out := append([]string(nil), s.Board.Skipped...)
	for _, p := range s.Players {
		out = append(out, p.Skipped...)
	}
	sort.Strings(out)
	return out
}

// IsTurnOf reports whether playerID is to act in a running game.
func (s *GameState) IsTurnOf(playerID string) bool {
	return s != nil && s.Phase == PhasePlaying && playerID != "" && s.CurrentPlayer == playerID
}

// Current returns the player whose turn it is.
func (s *GameState) Current() (Player, bool) {
	if s == nil {
		return Player{}, false
	}
	return s.Players.Get(s.CurrentPlayer)
}

// LegalMove certifies that hand tile HandIndex may be placed at (X, Y) with
// Rotation.
type LegalMove struct {
	HandIndex int           `json:"tile_idx"`
	TileType  string        `json:"tile_type,omitempty"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Rotation  tile.Rotation `json:"rotation"`
}

// At returns the move's coordinate.
func (m LegalMove) At() Coord { return Coord{X: m.X, Y: m.Y} }

// TokenOption is one place the local player may put a token on the tile
// just placed. FeatureType uses the edge feature codes, -1 for a monastery.
type TokenOption struct {
	Position    Position `json:"position"`
	FeatureType int      `json:"feature_type"`
	FeatureSize int      `json:"feature_size"`
}

// Label is the one-letter marker text for the option's feature.
func (o TokenOption) Label() string {
	switch o.FeatureType {
	case int(tile.Field):
		return "F"
	case int(tile.Road):
		return "R"
	case int(tile.City):
		return "C"
	case -1:
		return "M"
	default:
		return "?"
	}
}

// SpecialTarget is a placed tile the special ability may act on.
type SpecialTarget struct {
	X               int    `json:"x"`
	Y               int    `json:"y"`
	TileType        string `json:"tile_type"`
	CurrentRotation int    `json:"current_rotation"`
	NewRotation     int    `json:"new_rotation"`
}

// At returns the target coordinate.
func (t SpecialTarget) At() Coord { return Coord{X: t.X, Y: t.Y} }

// Heatmap is the per-cell completion probability snapshot.
type Heatmap struct {
	Cells   map[string]float64 `json:"cells"`
	MaxProb float64            `json:"max_prob"`
}

// Entropy describes how open the board is.
type Entropy struct {
	Entropy    float64 `json:"entropy"`
	MaxEntropy float64 `json:"max_entropy"`
	Normalized float64 `json:"normalized"`
	OpenSlots  int     `json:"open_slots"`
}

// Greed compares banked score to score still at stake.
type Greed struct {
	CurrentScore int     `json:"current_score"`
	Potential    float64 `json:"potential"`
	Index        float64 `json:"greed_index"`
}

// Aggression counts moves played next to opponents' features.
type Aggression struct {
	Index           float64 `json:"index"`
	AggressiveMoves int     `json:"aggressive_moves"`
	TotalMoves      int     `json:"total_moves"`
}

// Territory is a player's share of open slots.
type Territory struct {
	Control    float64 `json:"control"`
	Area       int     `json:"area"`
	TotalSlots int     `json:"total_slots"`
}

// Depth classifies a player's play style.
type Depth struct {
	Depth          float64 `json:"depth"`
	Interpretation string  `json:"interpretation"`
}

// Luck is a player's average draw quality.
type Luck struct {
	Avg float64 `json:"avg"`
}

// LuckCurve holds per-player luck.
type LuckCurve struct {
	Players map[string]Luck `json:"players"`
}

// ConflictRisk summarises contested features.
type ConflictRisk struct {
	Count     int     `json:"count"`
	TotalRisk float64 `json:"total_risk"`
}

// Analytics is the server's advisory snapshot. Any part may be missing.
type Analytics struct {
	Heatmap    *Heatmap              `json:"heatmap"`
	Entropy    *Entropy              `json:"entropy"`
	Greed      map[string]Greed      `json:"greed_index"`
	Aggression map[string]Aggression `json:"aggression_index"`
	Territory  map[string]Territory  `json:"voronoi_control"`
	Depth      map[string]Depth      `json:"depth_score"`
	Luck       *LuckCurve            `json:"luck_curve"`
	Conflict   *ConflictRisk         `json:"conflict_risk"`
}

// RulesRequest selects optional rules when creating a game.
type RulesRequest struct {
	Special    bool `json:"engineer"`
	Objectives bool `json:"objectives"`
}

// CreateGameRequest describes a new game.
type CreateGameRequest struct {
	Players int          `json:"num_players"`
	Bot     string       `json:"bot_opponent,omitempty"`
	Rules   RulesRequest `json:"rules"`
}

// CreateGameResult is the server's answer to CreateGame.
type CreateGameResult struct {
	GameID string `json:"game_id"`
	Rules  Rules  `json:"rules"`
}

// JoinResult is the server's answer to JoinGame.
type JoinResult struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Rules    Rules  `json:"rules"`
}

// Placement is a tile placement request.
type Placement struct {
	HandIndex int           `json:"tile_idx"`
	X         int           `json:"x"`
	Y         int           `json:"y"`
	Rotation  tile.Rotation `json:"rotation"`
}

// PlaceResult is the server's answer to an accepted placement.
type PlaceResult struct {
	TokenOptions []TokenOption `json:"meeple_options"`
	Game         *GameState    `json:"game"`
}

// ActionResult is the server's answer to token, skip and special actions.
type ActionResult struct {
	ScoreEvents []ScoreEvent `json:"score_events"`
	Game        *GameState   `json:"game"`
}

// BotTurnResult is the server's answer to a bot turn trigger.
type BotTurnResult struct {
	Actions int        `json:"bot_actions"`
	Game    *GameState `json:"game"`
}
