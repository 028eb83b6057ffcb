package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Garsondee/Tile-Board/internal/api"
	"github.com/Garsondee/Tile-Board/internal/game"
)

type options struct {
	server         string
	gameID         string
	name           string
	bot            string
	players        int
	special        bool
	objectives     bool
	poll           time.Duration
	requestTimeout time.Duration
	dev            bool
}

// envString returns the environment value for key, or def.
func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

func envBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("game", flag.ContinueOnError)
	fs.StringVar(&o.server, "server", envString("TILEBOARD_SERVER", "http://localhost:5000"), "game server base URL")
	fs.StringVar(&o.gameID, "game", envString("TILEBOARD_GAME", ""), "join this game id instead of creating one")
	fs.StringVar(&o.name, "name", envString("TILEBOARD_NAME", "Player"), "player name")
	fs.StringVar(&o.bot, "bot", envString("TILEBOARD_BOT", ""), "bot opponent type for a new game (empty for none)")
	fs.IntVar(&o.players, "players", envInt("TILEBOARD_PLAYERS", 2), "seats in a new game")
	fs.BoolVar(&o.special, "special", envBool("TILEBOARD_SPECIAL", false), "enable the engineer rule in a new game")
	fs.BoolVar(&o.objectives, "objectives", envBool("TILEBOARD_OBJECTIVES", false), "enable hidden objectives in a new game")
	fs.DurationVar(&o.poll, "poll", envDuration("TILEBOARD_POLL", 1200*time.Millisecond), "state poll interval")
	fs.DurationVar(&o.requestTimeout, "request-timeout", envDuration("TILEBOARD_REQUEST_TIMEOUT", 5*time.Second), "per-request timeout")
	fs.BoolVar(&o.dev, "dev", envBool("TILEBOARD_DEV", false), "development logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// joinOrCreate creates a game when no id is given, then joins it.
func joinOrCreate(ctx context.Context, c *api.Client, o options) (gameID, playerID string, err error) {
	gameID = o.gameID
	if gameID == "" {
		created, err := c.CreateGame(ctx, api.CreateGameRequest{
			Players: o.players,
			Bot:     o.bot,
			Rules:   api.RulesRequest{Special: o.special, Objectives: o.objectives},
		})
		if err != nil {
			return "", "", err
		}
		gameID = created.GameID
	}
	joined, err := c.JoinGame(ctx, gameID, o.name)
	if err != nil {
		return "", "", err
	}
	return gameID, joined.PlayerID, nil
}

func main() {
	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	o, err := parseOptions(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	log, err := newLogger(o.dev)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	client := api.New(o.server, api.WithLogger(log.Named("api")))
	ctx, cancel := context.WithTimeout(context.Background(), o.requestTimeout)
	gameID, playerID, err := joinOrCreate(ctx, client, o)
	cancel()
	if err != nil {
		log.Fatal("cannot start game", zap.String("server", o.server), zap.String("game_id", o.gameID), zap.Error(err))
	}
	log.Info("playing", zap.String("game_id", gameID), zap.String("player_id", playerID), zap.String("client_id", client.ClientID()))

	cfg := game.DefaultConfig()
	cfg.Sync.PollInterval = o.poll
	cfg.Sync.RequestTimeout = o.requestTimeout

	ebiten.SetWindowTitle("Tile Board")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	if err := ebiten.RunGame(game.New(client, gameID, playerID, cfg, log.Named("game"))); err != nil {
		log.Fatal("game loop", zap.Error(err))
	}
}
