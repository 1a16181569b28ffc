package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/saeidalz13/battleship-solo/db/sqlc"
	"github.com/saeidalz13/battleship-solo/internal/config"
	mb "github.com/saeidalz13/battleship-solo/models/battleship"
	mc "github.com/saeidalz13/battleship-solo/models/connection"
)

const (
	defaultPort          = 8000
	defaultOpponentDelay = time.Second
	shutdownTimeout      = time.Second * 10
)

type Server struct {
	port          int
	stage         string
	opponentDelay time.Duration
	analytics     *sqlc.AnalyticsManager

	sessionManager mc.SessionManager
	gameManager    mb.GameManager
}

type Option func(*Server) error

func NewServer(sessionManager mc.SessionManager, gameManager mb.GameManager, optFuncs ...Option) (*Server, error) {
	server := &Server{
		port:           defaultPort,
		stage:          config.StageDev,
		opponentDelay:  defaultOpponentDelay,
		sessionManager: sessionManager,
		gameManager:    gameManager,
	}
	for _, opt := range optFuncs {
		if err := opt(server); err != nil {
			return nil, err
		}
	}
	return server, nil
}

func WithPort(port int) Option {
	return func(s *Server) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port: %d", port)
		}
		s.port = port
		return nil
	}
}

func WithStage(stage string) Option {
	return func(s *Server) error {
		if stage != config.StageProd && stage != config.StageDev {
			return fmt.Errorf("invalid type of development stage: %s", stage)
		}
		s.stage = stage
		return nil
	}
}

// WithOpponentDelay sets the pause between the player's shot and the
// opponent's reply.
func WithOpponentDelay(d time.Duration) Option {
	return func(s *Server) error {
		if d < 0 {
			return fmt.Errorf("opponent delay cannot be negative: %s", d)
		}
		s.opponentDelay = d
		return nil
	}
}

func WithAnalytics(analytics *sqlc.AnalyticsManager) Option {
	return func(s *Server) error {
		s.analytics = analytics
		return nil
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /battleship", NewRequestProcessor(s.sessionManager, s.gameManager, s.analytics, s.opponentDelay))
	return mux
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: time.Second * 5,
	}
	// Shutdown does not track hijacked websocket connections
	httpServer.RegisterOnShutdown(s.sessionManager.CloseAll)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", s.port).Str("stage", s.stage).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// ServerIpNet finds the first non-loopback IPv4 address of this host.
// Analytics rows are keyed by it; hosts without one fall back to
// 127.0.0.1/32.
func ServerIpNet() net.IPNet {
	loopback := net.IPNet{IP: net.IPv4(127, 0, 0, 1).To4(), Mask: net.CIDRMask(32, 32)}

	ifaces, err := net.Interfaces()
	if err != nil {
		log.Warn().Err(err).Msg("listing network interfaces failed; using loopback")
		return loopback
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if ip := ipnet.IP.To4(); ip != nil && !ip.IsLoopback() {
				return net.IPNet{IP: ip, Mask: net.CIDRMask(32, 32)}
			}
		}
	}

	log.Warn().Msg("no non-loopback ipv4 address found; using loopback")
	return loopback
}
