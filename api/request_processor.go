package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/saeidalz13/battleship-solo/db/sqlc"
	mb "github.com/saeidalz13/battleship-solo/models/battleship"
	mc "github.com/saeidalz13/battleship-solo/models/connection"
)

const (
	URLQuerySessionIDKeyword string = "sessionID"
)

var upgrader = websocket.Upgrader{
	// not a high-latency stream; a short handshake is enough
	HandshakeTimeout: time.Second * 5,
	ReadBufferSize:   2048,
	WriteBufferSize:  2048,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

type RequestProcessor struct {
	sessionManager mc.SessionManager
	gameManager    mb.GameManager
	analytics      *sqlc.AnalyticsManager
	opponentDelay  time.Duration
}

func NewRequestProcessor(
	sessionManager mc.SessionManager,
	gameManager mb.GameManager,
	analytics *sqlc.AnalyticsManager,
	opponentDelay time.Duration,
) RequestProcessor {
	return RequestProcessor{
		sessionManager: sessionManager,
		gameManager:    gameManager,
		analytics:      analytics,
		opponentDelay:  opponentDelay,
	}
}

func (rp RequestProcessor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client
		log.Warn().Err(err).Msg("could not open websocket connection")
		return
	}

	sessionIdQuery := r.URL.Query().Get(URLQuerySessionIDKeyword)
	if sessionIdQuery == "" {
		log.Info().Str("remote", conn.RemoteAddr().String()).Msg("new connection established")
		rp.processSessionRequests(rp.sessionManager.GenerateNewSession(conn))
		return
	}

	// The session loop that owns this id picks conn up and keeps
	// serving the same game on it
	if err := rp.sessionManager.ReconnectSession(sessionIdQuery, conn); err != nil {
		log.Warn().Err(err).Msg("reconnection refused")
		msg := mc.NewMessage[mc.NoPayload](mc.CodeReceivedInvalidSessionID)
		msg.AddError(err.Error(), "session expired; start a new game")
		_ = conn.WriteJSON(msg)
		_ = conn.Close()
	}
}

func (rp RequestProcessor) processSessionRequests(session *mc.Session) {
	var (
		sessionGame *mb.Game
		sessionId   = session.Id()
		ctx         = context.Background()
	)

	defer func() {
		if sessionGame != nil {
			rp.gameManager.TerminateGame(sessionGame.Uuid())
		}
		// closes whichever connection the session ended up on
		rp.sessionManager.TerminateSession(sessionId)
		log.Info().Str("session", sessionId).Msg("session closed")
	}()

	write := func(msg interface{}) bool {
		return rp.sessionManager.WriteToSessionConn(session, msg) == nil
	}

	resp := mc.NewMessage[mc.RespSessionId](mc.CodeSessionID)
	resp.AddPayload(mc.RespSessionId{SessionID: sessionId})
	if !write(resp) {
		return
	}

sessionLoop:
	for {
		_, payload, err := rp.sessionManager.ReadFromSessionConn(session)
		if err != nil {
			// retries and the grace period are already spent
			break sessionLoop
		}

		code, err := mc.FetchCodeFromMsg(payload)
		if err != nil {
			msg := mc.NewMessage[mc.NoPayload](mc.CodeSignalAbsent)
			msg.AddError(err.Error(), "incoming req payload must contain 'code' field")
			if !write(msg) {
				break sessionLoop
			}
			continue sessionLoop
		}

		req := NewRequest(payload)

		switch code {
		case mc.CodeCreateGame:
			if sessionGame != nil {
				rp.gameManager.TerminateGame(sessionGame.Uuid())
			}

			game, respMsg := req.HandleCreateGame(rp.gameManager)
			sessionGame = game
			rp.analytics.RecordGameCreated(ctx)
			log.Info().Str("session", sessionId).Str("game", game.Uuid()).Msg("game created")

			if !write(respMsg) {
				break sessionLoop
			}

		case mc.CodeToggleOrientation:
			if !write(req.HandleToggleOrientation(sessionGame)) {
				break sessionLoop
			}

		case mc.CodePreviewPlacement:
			if !write(req.HandlePreviewPlacement(sessionGame)) {
				break sessionLoop
			}

		case mc.CodePlaceShip:
			if !write(req.HandlePlaceShip(sessionGame)) {
				break sessionLoop
			}

		case mc.CodeStartGame:
			if !write(req.HandleStartGame(sessionGame)) {
				break sessionLoop
			}

		// The player's shot is answered first; unless it ended the game
		// the opponent replies after the configured delay.
		case mc.CodeAttack:
			respMsg := req.HandleAttack(sessionGame)
			if !write(respMsg) {
				break sessionLoop
			}
			if respMsg.Error != nil {
				continue sessionLoop
			}

			if !sessionGame.IsFinished() {
				rp.waitOpponentDelay()

				opponentMsg := HandleOpponentTurn(sessionGame)
				if !write(opponentMsg) {
					break sessionLoop
				}
			}

			if sessionGame.IsFinished() {
				rp.analytics.RecordGameOver(ctx, sessionGame.Winner() == mb.SidePlayer)
				log.Info().Str("game", sessionGame.Uuid()).Stringer("winner", sessionGame.Winner()).Msg("game over")

				if !write(NewEndGameMessage(sessionGame)) {
					break sessionLoop
				}
			}

		case mc.CodeRematch:
			respMsg := req.HandleRematch(sessionGame)
			if respMsg.Error == nil {
				rp.analytics.RecordRematch(ctx)
			}
			if !write(respMsg) {
				break sessionLoop
			}

		default:
			respInvalidSignal := mc.NewMessage[mc.NoPayload](mc.CodeInvalidSignal)
			respInvalidSignal.AddError("", "invalid code in the incoming payload")
			if !write(respInvalidSignal) {
				break sessionLoop
			}
		}
	}
}

func (rp RequestProcessor) waitOpponentDelay() {
	if rp.opponentDelay <= 0 {
		return
	}
	timer := time.NewTimer(rp.opponentDelay)
	defer timer.Stop()
	<-timer.C
}
