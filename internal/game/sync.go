package game

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Garsondee/Tile-Board/internal/api"
)

// Server is the game server as the client uses it. *api.Client satisfies it.
type Server interface {
	State(ctx context.Context, gameID, playerID string) (*api.GameState, error)
	LegalMoves(ctx context.Context, gameID, playerID string) ([]api.LegalMove, error)
	TokenOptions(ctx context.Context, gameID, playerID string) ([]api.TokenOption, error)
	PlaceTile(ctx context.Context, gameID, playerID string, p api.Placement) (*api.PlaceResult, error)
	PlaceToken(ctx context.Context, gameID, playerID string, pos api.Position) (*api.ActionResult, error)
	SkipToken(ctx context.Context, gameID, playerID string) (*api.ActionResult, error)
	TriggerBotTurn(ctx context.Context, gameID string) (*api.BotTurnResult, error)
	Analytics(ctx context.Context, gameID string) (*api.Analytics, error)
	SpecialTargets(ctx context.Context, gameID, playerID string) ([]api.SpecialTarget, error)
	UseSpecial(ctx context.Context, gameID, playerID string, target api.Coord) (*api.ActionResult, error)
}

// Sink receives what the sync loop learns. Calls happen on the game loop.
type Sink interface {
	// ApplyState is called once per new transition key with the full snapshot.
	ApplyState(st *api.GameState)
	ApplyMoves(moves []api.LegalMove)
	ApplyTokenOptions(opts []api.TokenOption)
	ApplyAnalytics(a *api.Analytics)
	// ClearMoves drops any stale legal move set.
	ClearMoves()
}

// Ticket stamps a request with the session generation, a sequence number
// and the count of transitions applied when it was issued. Responses are
// applied only while their generation is current; side fetches also need
// their transition to still be the latest one.
type Ticket struct {
	Gen   uint64
	Seq   uint64
	Trans uint64
}

// fetchKind names a side fetch. Only the newest request of each kind may
// deliver.
type fetchKind int

const (
	fetchMoves fetchKind = iota
	fetchTokens
	fetchAnalytics
	numFetchKinds
)

// SyncConfig holds the loop's timing.
type SyncConfig struct {
	PollInterval   time.Duration
	BotDelay       time.Duration
	RequestTimeout time.Duration
	AnalyticsEvery int // fetch analytics when turn % AnalyticsEvery == 0
}

// DefaultSyncConfig returns the standard timing.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		PollInterval:   1200 * time.Millisecond,
		BotDelay:       500 * time.Millisecond,
		RequestTimeout: 5 * time.Second,
		AnalyticsEvery: 3,
	}
}

// SyncLoop polls the game state and fans out the side fetches each new
// transition needs.
type SyncLoop struct {
	srv  Server
	q    *Queue
	sink Sink
	log  *zap.Logger
	cfg  SyncConfig

	gameID   string
	playerID string

	gen     uint64
	seq     uint64
	applied uint64
	trans   uint64
	latest  [numFetchKinds]uint64
	key     string

	lastPoll time.Time
	polls    int

	// after schedules f on the game loop once d has elapsed.
	after func(d time.Duration, f func())
}

// NewSyncLoop returns a loop that is not yet bound to a game.
func NewSyncLoop(srv Server, q *Queue, sink Sink, cfg SyncConfig, log *zap.Logger) *SyncLoop {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.AnalyticsEvery <= 0 {
		cfg.AnalyticsEvery = 3
	}
	return &SyncLoop{srv: srv, q: q, sink: sink, cfg: cfg, log: log, after: q.After}
}

// SetAfter replaces the delay scheduler.
func (l *SyncLoop) SetAfter(after func(d time.Duration, f func())) { l.after = after }

// Bind starts a new session generation for gameID as playerID. Responses
// to requests issued under earlier generations are discarded.
func (l *SyncLoop) Bind(gameID, playerID string) {
	l.gen++
	l.gameID, l.playerID = gameID, playerID
	l.key = ""
	l.applied = 0
	l.lastPoll = time.Time{}
}

// Leave ends the session; everything in flight is dropped on arrival.
func (l *SyncLoop) Leave() {
	l.gen++
	l.gameID, l.playerID = "", ""
	l.key = ""
}

// Active reports whether the loop is bound to a game.
func (l *SyncLoop) Active() bool { return l.gameID != "" }

// Key returns the last applied transition key.
func (l *SyncLoop) Key() string { return l.key }

// Generation returns the current session generation.
func (l *SyncLoop) Generation() uint64 { return l.gen }

// Polls returns how many state requests have been issued.
func (l *SyncLoop) Polls() int { return l.polls }

func (l *SyncLoop) ticket() Ticket {
	l.seq++
	return Ticket{Gen: l.gen, Seq: l.seq, Trans: l.trans}
}

func (l *SyncLoop) current(t Ticket) bool { return t.Gen == l.gen }

// issue stamps a side fetch of kind k, superseding earlier ones.
func (l *SyncLoop) issue(k fetchKind) Ticket {
	t := l.ticket()
	l.latest[k] = t.Seq
	return t
}

// fresh reports whether a side fetch response may still be applied.
func (l *SyncLoop) fresh(k fetchKind, t Ticket) bool {
	return l.current(t) && t.Trans == l.trans && t.Seq == l.latest[k]
}

func (l *SyncLoop) ctx() (context.Context, context.CancelFunc) {
	if l.cfg.RequestTimeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), l.cfg.RequestTimeout)
}

// Tick polls when the interval has elapsed since the last poll.
func (l *SyncLoop) Tick(now time.Time) {
	if !l.Active() {
		return
	}
	if !l.lastPoll.IsZero() && now.Sub(l.lastPoll) < l.cfg.PollInterval {
		return
	}
	l.lastPoll = now
	l.Poll()
}

// ForceRefresh resets the transition key so the next snapshot is treated as
// new, and polls immediately.
func (l *SyncLoop) ForceRefresh() {
	l.key = ""
	l.Poll()
}

// Poll requests the state once.
func (l *SyncLoop) Poll() {
	if !l.Active() {
		return
	}
	t := l.ticket()
	gameID, playerID := l.gameID, l.playerID
	l.polls++
	l.q.Go(func() func() {
		ctx, cancel := l.ctx()
		defer cancel()
		st, err := l.srv.State(ctx, gameID, playerID)
		return func() { l.applyState(t, st, err) }
	})
}

// applyState runs on the game loop.
func (l *SyncLoop) applyState(t Ticket, st *api.GameState, err error) {
	if !l.current(t) {
		l.log.Debug("dropping state from old session", zap.Uint64("epoch", t.Gen), zap.Uint64("seq", t.Seq))
		return
	}
	if t.Seq <= l.applied {
		l.log.Debug("dropping out-of-order state", zap.Uint64("seq", t.Seq), zap.Uint64("applied", l.applied))
		return
	}
	if err != nil {
		if _, rejected := api.Rejection(err); rejected {
			l.log.Warn("state poll rejected", zap.String("game_id", l.gameID), zap.Error(err))
		} else {
			l.log.Debug("state poll failed", zap.String("game_id", l.gameID), zap.Error(err))
		}
		return
	}
	if st == nil {
		return
	}
	l.applied = t.Seq
	key := st.Key()
	if key == l.key {
		return
	}
	l.log.Debug("state transition", zap.String("game_id", l.gameID), zap.String("from", l.key), zap.String("key", key))
	l.key = key
	l.trans++
	l.sink.ApplyState(st)
	l.sideFetches(st)
}

func (l *SyncLoop) sideFetches(st *api.GameState) {
	mine := st.IsTurnOf(l.playerID)
	switch {
	case mine && st.TurnPhase == api.TurnPlaceToken:
		l.fetchTokenOptions()
	case mine && st.TurnPhase == api.TurnPlaceTile:
		l.FetchMoves()
	default:
		l.sink.ClearMoves()
		if st.Phase == api.PhasePlaying {
			if cur, ok := st.Current(); ok && cur.IsBot {
				l.scheduleBotTurn()
			}
		}
	}
	if (st.Turn > 0 && st.Turn%l.cfg.AnalyticsEvery == 0) || st.Phase == api.PhaseFinished {
		l.FetchAnalytics()
	}
}

// FetchMoves requests the legal move set. A response arriving after a newer
// transition, or after a newer moves request, is dropped.
func (l *SyncLoop) FetchMoves() {
	t := l.issue(fetchMoves)
	gameID, playerID := l.gameID, l.playerID
	l.q.Go(func() func() {
		ctx, cancel := l.ctx()
		defer cancel()
		moves, err := l.srv.LegalMoves(ctx, gameID, playerID)
		return func() {
			if !l.fresh(fetchMoves, t) {
				l.log.Debug("dropping superseded legal moves", zap.Uint64("seq", t.Seq))
				return
			}
			if err != nil {
				l.log.Debug("legal moves fetch failed", zap.Error(err))
				return
			}
			l.sink.ApplyMoves(moves)
		}
	})
}

func (l *SyncLoop) fetchTokenOptions() {
	t := l.issue(fetchTokens)
	gameID, playerID := l.gameID, l.playerID
	l.q.Go(func() func() {
		ctx, cancel := l.ctx()
		defer cancel()
		opts, err := l.srv.TokenOptions(ctx, gameID, playerID)
		return func() {
			if !l.fresh(fetchTokens, t) {
				return
			}
			if err != nil {
				l.log.Debug("token options fetch failed", zap.Error(err))
				return
			}
			l.sink.ApplyTokenOptions(opts)
		}
	})
}

// FetchAnalytics requests the analytics snapshot.
func (l *SyncLoop) FetchAnalytics() {
	t := l.issue(fetchAnalytics)
	gameID := l.gameID
	l.q.Go(func() func() {
		ctx, cancel := l.ctx()
		defer cancel()
		a, err := l.srv.Analytics(ctx, gameID)
		return func() {
			if !l.fresh(fetchAnalytics, t) {
				return
			}
			if err != nil {
				l.log.Debug("analytics fetch failed", zap.Error(err))
				return
			}
			l.sink.ApplyAnalytics(a)
		}
	})
}

// scheduleBotTurn triggers the bot after the configured delay and forces a
// re-poll once the server has played it.
func (l *SyncLoop) scheduleBotTurn() {
	gen, gameID := l.gen, l.gameID
	l.after(l.cfg.BotDelay, func() {
		if gen != l.gen {
			return
		}
		t := l.ticket()
		l.q.Go(func() func() {
			ctx, cancel := l.ctx()
			defer cancel()
			res, err := l.srv.TriggerBotTurn(ctx, gameID)
			return func() {
				if !l.current(t) {
					return
				}
				if err != nil {
					l.log.Debug("bot turn trigger failed", zap.String("game_id", gameID), zap.Error(err))
					return
				}
				l.log.Debug("bot turn", zap.String("game_id", gameID), zap.Int("actions", res.Actions))
				l.ForceRefresh()
			}
		})
	})
}
