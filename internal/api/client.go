package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClientIDHeader identifies one client process across requests.
const ClientIDHeader = "X-Client-ID"

// Client calls the game server's HTTP/JSON routes. It is safe for concurrent
// use; it holds no game state.
type Client struct {
	base     string
	http     *http.Client
	log      *zap.Logger
	clientID string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithClientID fixes the X-Client-ID value instead of a random one.
func WithClientID(id string) Option {
	return func(c *Client) { c.clientID = id }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:     strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      zap.NewNop(),
		clientID: uuid.NewString(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ClientID returns the value sent in the X-Client-ID header.
func (c *Client) ClientID() string { return c.clientID }

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.base }

func gamePath(gameID string, parts ...string) string {
	p := "/api/games/" + url.PathEscape(gameID)
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

func withPlayer(path, playerID string) string {
	if playerID == "" {
		return path
	}
	return path + "?player_id=" + url.QueryEscape(playerID)
}

// do sends one request and decodes a 2xx body into out. Non-2xx bodies are
// decoded as {"error": "..."} into a RejectedError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(ClientIDHeader, c.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("route", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("request",
		zap.String("method", method),
		zap.String("route", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		reason := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			reason = e.Error
		}
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &RejectedError{Route: path, Status: resp.StatusCode, Reason: reason}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}

// CreateGame starts a new game on the server.
func (c *Client) CreateGame(ctx context.Context, req CreateGameRequest) (CreateGameResult, error) {
	if req.Players <= 0 {
		req.Players = 2
	}
	var out CreateGameResult
	err := c.do(ctx, http.MethodPost, "/api/games", req, &out)
	return out, err
}

// JoinGame adds a named player to a game.
func (c *Client) JoinGame(ctx context.Context, gameID, name string) (JoinResult, error) {
	var out JoinResult
	err := c.do(ctx, http.MethodPost, gamePath(gameID, "join"), map[string]string{"name": name}, &out)
	return out, err
}

// State fetches the full snapshot as seen by playerID. An empty playerID
// observes the game without a hand.
func (c *Client) State(ctx context.Context, gameID, playerID string) (*GameState, error) {
	var out GameState
	if err := c.do(ctx, http.MethodGet, withPlayer(gamePath(gameID), playerID), nil, &out); err != nil {
		return nil, err
	}
	if bad := out.Malformed(); len(bad) > 0 {
		c.log.Warn("dropped malformed snapshot parts", zap.String("game_id", gameID), zap.Strings("parts", bad))
	}
	return &out, nil
}

// LegalMoves fetches every legal (hand index, x, y, rotation) for playerID.
func (c *Client) LegalMoves(ctx context.Context, gameID, playerID string) ([]LegalMove, error) {
	var out struct {
		Moves []LegalMove `json:"moves"`
	}
	err := c.do(ctx, http.MethodGet, withPlayer(gamePath(gameID, "moves"), playerID), nil, &out)
	return out.Moves, err
}

// TokenOptions fetches where playerID may put a token on the tile just placed.
func (c *Client) TokenOptions(ctx context.Context, gameID, playerID string) ([]TokenOption, error) {
	var out struct {
		Options []TokenOption `json:"options"`
	}
	err := c.do(ctx, http.MethodGet, withPlayer(gamePath(gameID, "meeple_options"), playerID), nil, &out)
	return out.Options, err
}

// PlaceTile commits a tile placement.
func (c *Client) PlaceTile(ctx context.Context, gameID, playerID string, p Placement) (*PlaceResult, error) {
	body := struct {
		PlayerID string `json:"player_id"`
		Placement
	}{playerID, p}
	var out PlaceResult
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "place"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlaceToken puts a token at pos on the tile just placed.
func (c *Client) PlaceToken(ctx context.Context, gameID, playerID string, pos Position) (*ActionResult, error) {
	body := map[string]string{"player_id": playerID, "position": string(pos)}
	var out ActionResult
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "meeple"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SkipToken ends the token sub-phase without placing.
func (c *Client) SkipToken(ctx context.Context, gameID, playerID string) (*ActionResult, error) {
	var out ActionResult
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "skip_meeple"), map[string]string{"player_id": playerID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerBotTurn asks the server to play the current bot's turn.
func (c *Client) TriggerBotTurn(ctx context.Context, gameID string) (*BotTurnResult, error) {
	var out BotTurnResult
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "bot_turn"), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics fetches the advisory analytics snapshot.
func (c *Client) Analytics(ctx context.Context, gameID string) (*Analytics, error) {
	var out Analytics
	if err := c.do(ctx, http.MethodGet, gamePath(gameID, "analytics"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SpecialTargets lists the placed tiles the special ability may rotate.
func (c *Client) SpecialTargets(ctx context.Context, gameID, playerID string) ([]SpecialTarget, error) {
	var out struct {
		Targets []SpecialTarget `json:"targets"`
	}
	err := c.do(ctx, http.MethodGet, withPlayer(gamePath(gameID, "engineer_targets"), playerID), nil, &out)
	return out.Targets, err
}

// UseSpecial applies the special ability to the tile at target.
func (c *Client) UseSpecial(ctx context.Context, gameID, playerID string, target Coord) (*ActionResult, error) {
	body := struct {
		PlayerID string `json:"player_id"`
		X        int    `json:"x"`
		Y        int    `json:"y"`
	}{playerID, target.X, target.Y}
	var out ActionResult
	if err := c.do(ctx, http.MethodPost, gamePath(gameID, "engineer"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
