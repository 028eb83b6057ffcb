package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/api/apitest"
	"github.com/Garsondee/Tile-Board/internal/game"
	"github.com/Garsondee/Tile-Board/internal/tile"
)

type transition struct {
	poll    int
	key     string
	current string
	deck    int
	tiles   int
}

type runStats struct {
	gameID   string
	playerID string
	polls    int

	transitions  []transition
	moveCounts   []int
	tokenOffers  int
	analyticsN   int
	cleared      int
	placed       int
	skipped      int
	rejections   []string
	final        *api.GameState
	lastAnalysis *api.Analytics
}

// observer records what the sync loop delivers and, with autoplay, answers
// each turn with the first legal move and a skipped token.
type observer struct {
	stats    *runStats
	srv      game.Server
	loop     *game.SyncLoop
	poll     int
	autoplay bool
	timeout  time.Duration
}

func (o *observer) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func (o *observer) ApplyState(st *api.GameState) {
	cur := st.CurrentPlayer
	if p, ok := st.Current(); ok {
		cur = p.Name
	}
	o.stats.transitions = append(o.stats.transitions, transition{
		poll:    o.poll,
		key:     st.Key(),
		current: cur,
		deck:    st.DeckRemaining,
		tiles:   len(st.Board.Tiles),
	})
	o.stats.final = st
}

func (o *observer) ApplyMoves(moves []api.LegalMove) {
	o.stats.moveCounts = append(o.stats.moveCounts, len(moves))
	if !o.autoplay {
		return
	}
	m, ok := o.firstFree(moves)
	if !ok {
		return
	}
	ctx, cancel := o.ctx()
	defer cancel()
	_, err := o.srv.PlaceTile(ctx, o.stats.gameID, o.stats.playerID, api.Placement{
		HandIndex: m.HandIndex, X: m.X, Y: m.Y, Rotation: m.Rotation,
	})
	if err != nil {
		o.reject("place", err)
		return
	}
	o.stats.placed++
	o.loop.ForceRefresh()
}

// firstFree returns the first move onto an empty cell.
func (o *observer) firstFree(moves []api.LegalMove) (api.LegalMove, bool) {
	for _, m := range moves {
		if o.stats.final != nil {
			if _, taken := o.stats.final.Board.TileAt(m.At()); taken {
				continue
			}
		}
		return m, true
	}
	return api.LegalMove{}, false
}

func (o *observer) ApplyTokenOptions(opts []api.TokenOption) {
	o.stats.tokenOffers++
	if !o.autoplay {
		return
	}
	ctx, cancel := o.ctx()
	defer cancel()
	if _, err := o.srv.SkipToken(ctx, o.stats.gameID, o.stats.playerID); err != nil {
		o.reject("skip", err)
		return
	}
	o.stats.skipped++
	o.loop.ForceRefresh()
}

func (o *observer) ApplyAnalytics(a *api.Analytics) {
	o.stats.analyticsN++
	o.stats.lastAnalysis = a
}

func (o *observer) ClearMoves() { o.stats.cleared++ }

func (o *observer) reject(action string, err error) {
	reason, ok := api.Rejection(err)
	if !ok {
		reason = err.Error()
	}
	o.stats.rejections = append(o.stats.rejections, action+": "+reason)
}

type runConfig struct {
	polls    int
	interval time.Duration
	timeout  time.Duration
	autoplay bool
}

// run drives the sync loop for cfg.polls polls on one goroutine. Bot turns
// fire on the next drain instead of after the usual delay.
func run(srv game.Server, gameID, playerID string, cfg runConfig, log *zap.Logger) runStats {
	stats := runStats{gameID: gameID, playerID: playerID}
	q := game.NewQueueWithRunner(func(task func()) { task() })
	obs := &observer{stats: &stats, srv: srv, autoplay: cfg.autoplay, timeout: cfg.timeout}

	syncCfg := game.DefaultSyncConfig()
	syncCfg.RequestTimeout = cfg.timeout
	loop := game.NewSyncLoop(srv, q, obs, syncCfg, log)
	loop.SetAfter(func(_ time.Duration, f func()) { q.Post(f) })
	obs.loop = loop

	loop.Bind(gameID, playerID)
	for i := 0; i < cfg.polls; i++ {
		obs.poll = i + 1
		loop.Poll()
		q.Drain()
		if cfg.interval > 0 && i < cfg.polls-1 {
			time.Sleep(cfg.interval)
		}
	}
	stats.polls = loop.Polls()
	return stats
}

func printRun(w io.Writer, rs runStats) {
	fmt.Fprintf(w, "=== Headless Game Report ===\n")
	fmt.Fprintf(w, "game=%s player=%s polls=%d transitions=%d distinct_keys=%d\n\n",
		rs.gameID, orNone(rs.playerID), rs.polls, len(rs.transitions), len(distinctKeys(rs.transitions)))

	fmt.Fprintln(w, "--- Transitions ---")
	for _, t := range rs.transitions {
		fmt.Fprintf(w, "  poll=%d key=%s current=%s deck=%d tiles=%d\n", t.poll, t.key, orNone(t.current), t.deck, t.tiles)
	}

	fmt.Fprintln(w, "\n--- Side Fetches ---")
	fmt.Fprintf(w, "legal_move_sets=%d counts=[%s] avg=%.1f\n", len(rs.moveCounts), joinInts(rs.moveCounts), avgInts(rs.moveCounts))
	fmt.Fprintf(w, "token_offers=%d analytics=%d cleared=%d\n", rs.tokenOffers, rs.analyticsN, rs.cleared)
	if rs.placed+rs.skipped > 0 || len(rs.rejections) > 0 {
		fmt.Fprintf(w, "autoplay: placed=%d skipped=%d rejected=%d\n", rs.placed, rs.skipped, len(rs.rejections))
		for _, r := range rs.rejections {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}

	if rs.final != nil {
		fmt.Fprintln(w, "\n--- Players ---")
		for i, p := range rs.final.Players {
			role := "human"
			if p.IsBot {
				role = "bot:" + p.BotType
			}
			fmt.Fprintf(w, "  %d %-16s %-14s score=%d tokens=%d\n", i+1, p.Name, role, p.Score, p.TokensAvailable)
		}
		fmt.Fprintf(w, "status: %s\n", game.StatusLine(rs.final, rs.playerID))
	}
	if lines := game.MetricLines(rs.lastAnalysis, rs.final); len(lines) > 0 {
		fmt.Fprintln(w)
		for _, l := range lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
}

func writePNG(path string, s *game.RasterSurface) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := s.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// startDemo serves an in-process fake game against a greedy bot and joins it.
func startDemo(ctx context.Context) (*api.Client, string, string, func(), error) {
	fake := apitest.NewServer()
	ts := apitest.Start(fake)
	c := api.New(ts.URL)
	created, err := c.CreateGame(ctx, api.CreateGameRequest{Players: 2, Bot: "greedy"})
	if err != nil {
		ts.Close()
		return nil, "", "", nil, err
	}
	joined, err := c.JoinGame(ctx, created.GameID, "Observer")
	if err != nil {
		ts.Close()
		return nil, "", "", nil, err
	}
	fake.Update(created.GameID, func(g *apitest.Game) {
		for _, slot := range g.State.OpenSlots {
			g.Moves = append(g.Moves, api.LegalMove{HandIndex: 0, X: slot.X, Y: slot.Y, Rotation: tile.R0})
		}
		g.TokenOptions = []api.TokenOption{{Position: api.PosCenter, FeatureType: 1, FeatureSize: 1}}
		g.Analytics = &api.Analytics{
			Heatmap: &api.Heatmap{Cells: map[string]float64{"1,0": 0.6, "0,1": 0.2}, MaxProb: 0.6},
			Entropy: &api.Entropy{Normalized: 0.5, OpenSlots: len(g.State.OpenSlots)},
		}
	})
	return c, created.GameID, joined.PlayerID, ts.Close, nil
}

func main() {
	_ = godotenv.Load()

	var server, gameID, playerID, pngPath, sheetPath string
	var polls int
	var interval, timeout time.Duration
	var autoplay, demo, dev bool
	var tileSize float64

	flag.StringVar(&server, "server", os.Getenv("TILEBOARD_SERVER"), "game server base URL")
	flag.StringVar(&gameID, "game", "", "game id to observe")
	flag.StringVar(&playerID, "player", "", "observe as this player id (empty for spectator)")
	flag.IntVar(&polls, "polls", 10, "number of state polls")
	flag.DurationVar(&interval, "interval", 1200*time.Millisecond, "delay between polls")
	flag.DurationVar(&timeout, "request-timeout", 5*time.Second, "per-request timeout")
	flag.BoolVar(&autoplay, "autoplay", false, "play the first legal move and skip tokens when it is the player's turn")
	flag.BoolVar(&demo, "demo", false, "run against an in-process fake server with a bot opponent")
	flag.StringVar(&pngPath, "png", "", "write the final board to this PNG file")
	flag.StringVar(&sheetPath, "sheet", "", "write a sheet of every tile at every rotation to this PNG file")
	flag.Float64Var(&tileSize, "tile-size", 48, "tile size in pixels for PNG output")
	flag.BoolVar(&dev, "dev", false, "development logging")
	flag.Parse()

	if polls <= 0 {
		fmt.Println("error: -polls must be > 0")
		return
	}

	log := zap.NewNop()
	if dev {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		log = l
		defer func() { _ = log.Sync() }()
	}

	if sheetPath != "" {
		if err := writePNG(sheetPath, game.RenderCatalog(tile.Catalog, tileSize)); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Printf("wrote tile sheet %s (%d tiles)\n", sheetPath, len(tile.Catalog))
	}

	var srv game.Server
	switch {
	case demo:
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		c, g, p, stop, err := startDemo(ctx)
		cancel()
		if err != nil {
			fmt.Printf("error: demo setup: %v\n", err)
			return
		}
		defer stop()
		srv, gameID, playerID = c, g, p
		interval = 0
	case server == "" || gameID == "":
		if sheetPath == "" {
			fmt.Println("error: -server and -game are required unless -demo is set")
		}
		return
	default:
		srv = api.New(server, api.WithLogger(log))
	}

	rs := run(srv, gameID, playerID, runConfig{polls: polls, interval: interval, timeout: timeout, autoplay: autoplay}, log)
	printRun(os.Stdout, rs)

	if pngPath != "" && rs.final != nil {
		if err := writePNG(pngPath, game.RenderBoard(rs.final, rs.lastAnalysis, tileSize)); err != nil {
			fmt.Printf("error: %v\n", err)
			return
		}
		fmt.Printf("\nwrote board %s\n", pngPath)
	}
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func avgInts(vals []int) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

// distinctKeys returns the transition keys seen, sorted.
func distinctKeys(ts []transition) []string {
	seen := map[string]struct{}{}
	for _, t := range ts {
		seen[t.key] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
