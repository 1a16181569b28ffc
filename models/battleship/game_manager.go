package battleship

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	cerr "github.com/saeidalz13/battleship-solo/internal/error"
)

type GameManager interface {
	CreateGame() *Game
	GetGame(gameUuid string) (*Game, error)
	TerminateGame(gameUuid string)
	CleanupPeriodically(stop <-chan struct{})
}

type BattleshipGameManager struct {
	games           map[string]*Game
	newRandomizer   func() Randomizer
	cleanupInterval time.Duration
	mu              sync.RWMutex
}

var _ GameManager = (*BattleshipGameManager)(nil)

type GameManagerOption func(*BattleshipGameManager)

// WithRandomizerFactory controls where every new game draws its
// randomness from.
func WithRandomizerFactory(f func() Randomizer) GameManagerOption {
	return func(bgm *BattleshipGameManager) {
		bgm.newRandomizer = f
	}
}

func WithCleanupInterval(d time.Duration) GameManagerOption {
	return func(bgm *BattleshipGameManager) {
		bgm.cleanupInterval = d
	}
}

func NewBattleshipGameManager(opts ...GameManagerOption) *BattleshipGameManager {
	bgm := &BattleshipGameManager{
		games:           make(map[string]*Game, 10),
		cleanupInterval: time.Minute * 30,
		newRandomizer: func() Randomizer {
			id := uuid.New()
			var seed1, seed2 uint64
			for i := 0; i < 8; i++ {
				seed1 = seed1<<8 | uint64(id[i])
				seed2 = seed2<<8 | uint64(id[i+8])
			}
			return NewRandomizer(seed1, seed2)
		},
	}
	for _, opt := range opts {
		opt(bgm)
	}
	return bgm
}

func (bgm *BattleshipGameManager) CreateGame() *Game {
	gameUuid := uuid.NewString()[:6]
	game := NewGame(gameUuid, bgm.newRandomizer())

	bgm.mu.Lock()
	bgm.games[gameUuid] = game
	bgm.mu.Unlock()

	return game
}

func (bgm *BattleshipGameManager) GetGame(gameUuid string) (*Game, error) {
	bgm.mu.RLock()
	game, prs := bgm.games[gameUuid]
	bgm.mu.RUnlock()
	if !prs {
		return nil, cerr.ErrGameNotExists(gameUuid)
	}
	if game == nil {
		return nil, cerr.ErrGameIsNil(gameUuid)
	}

	return game, nil
}

func (bgm *BattleshipGameManager) TerminateGame(gameUuid string) {
	bgm.mu.Lock()
	delete(bgm.games, gameUuid)
	bgm.mu.Unlock()
}

func (bgm *BattleshipGameManager) CountGames() int {
	bgm.mu.RLock()
	defer bgm.mu.RUnlock()
	return len(bgm.games)
}

// Games idle for longer than the cleanup interval are dropped so
// abandoned sessions don't pile up.
func (bgm *BattleshipGameManager) CleanupPeriodically(stop <-chan struct{}) {
	ticker := time.NewTicker(bgm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			bgm.cleanupStale(time.Now())
		}
	}
}

func (bgm *BattleshipGameManager) cleanupStale(now time.Time) []string {
	bgm.mu.Lock()
	defer bgm.mu.Unlock()

	removed := make([]string, 0)
	for gameUuid, game := range bgm.games {
		if now.Sub(game.LastActivity()) > bgm.cleanupInterval {
			delete(bgm.games, gameUuid)
			removed = append(removed, gameUuid)
			log.Info().Str("game", gameUuid).Dur("age", now.Sub(game.CreatedAt())).Msg("stale game removed")
		}
	}
	return removed
}
