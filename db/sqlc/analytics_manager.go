package sqlc

import (
	"context"
	"database/sql"
	"errors"
	"net"

	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"
)

// AnalyticsManager counts server level events keyed by the server's
// own address. A nil *AnalyticsManager records nothing, which is how
// the server runs without a database.
type AnalyticsManager struct {
	queries  Querier
	serverIp pqtype.Inet
}

func NewAnalyticsManager(queries Querier, serverIpNet net.IPNet) *AnalyticsManager {
	return &AnalyticsManager{
		queries:  queries,
		serverIp: pqtype.Inet{IPNet: serverIpNet, Valid: true},
	}
}

func (a *AnalyticsManager) RecordGameCreated(ctx context.Context) {
	a.record(ctx, "games_created", func(ctx context.Context) error {
		return a.queries.IncrementGamesCreatedCount(ctx, a.serverIp)
	})
}

func (a *AnalyticsManager) RecordRematch(ctx context.Context) {
	a.record(ctx, "rematch_called", func(ctx context.Context) error {
		return a.queries.IncrementRematchCalledCount(ctx, a.serverIp)
	})
}

func (a *AnalyticsManager) RecordGameOver(ctx context.Context, playerWon bool) {
	if playerWon {
		a.record(ctx, "player_wins", func(ctx context.Context) error {
			return a.queries.IncrementPlayerWinsCount(ctx, a.serverIp)
		})
		return
	}
	a.record(ctx, "opponent_wins", func(ctx context.Context) error {
		return a.queries.IncrementOpponentWinsCount(ctx, a.serverIp)
	})
}

func (a *AnalyticsManager) GetServerAnalytics(ctx context.Context) (GameServerAnalytic, error) {
	ctx, cancel := context.WithTimeout(ctx, QuerierCtxTimeout)
	defer cancel()

	return a.queries.GetServerAnalytics(ctx, a.serverIp)
}

// LogSummary logs the counters this server has accumulated so far.
// A server with no row yet has simply not played a game.
func (a *AnalyticsManager) LogSummary(ctx context.Context) {
	if a == nil || a.queries == nil {
		return
	}

	analytics, err := a.GetServerAnalytics(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		log.Info().Str("server_ip", a.serverIp.IPNet.IP.String()).Msg("no analytics recorded yet")
	case err != nil:
		log.Error().Err(err).Msg("failed to fetch analytics")
	default:
		log.Info().
			Str("server_ip", a.serverIp.IPNet.IP.String()).
			Int64("games_created", analytics.GamesCreated).
			Int64("rematch_called", analytics.RematchCalled).
			Int64("player_wins", analytics.PlayerWins).
			Int64("opponent_wins", analytics.OpponentWins).
			Time("updated_at", analytics.UpdatedAt).
			Msg("server analytics")
	}
}

// Analytics never fail a game; errors are only logged.
func (a *AnalyticsManager) record(ctx context.Context, counter string, inc func(context.Context) error) {
	if a == nil || a.queries == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, QuerierCtxTimeout)
	defer cancel()

	if err := inc(ctx); err != nil {
		log.Error().Err(err).Str("counter", counter).Msg("failed to record analytics")
	}
}
