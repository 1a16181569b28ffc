package connection

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	cerr "github.com/saeidalz13/battleship-solo/internal/error"
)

type SessionManager interface {
	GenerateNewSession(conn *websocket.Conn) *Session
	CleanupPeriodically(stop <-chan struct{})
	CloseAll()

	FindSession(sessionId string) (*Session, error)
	TerminateSession(sessionId string)
	ReconnectSession(sessionId string, conn *websocket.Conn) error
	HandleAbnormalClosureSession(session *Session, failed *websocket.Conn) error

	WriteToSessionConn(session *Session, msg interface{}) error
	ReadFromSessionConn(session *Session) (int, []byte, error)
}

type BattleshipSessionManager struct {
	cleanupInterval time.Duration
	gracePeriod     time.Duration
	sessions        map[string]*Session
	mu              sync.RWMutex
}

var _ SessionManager = (*BattleshipSessionManager)(nil)

type SessionManagerOption func(*BattleshipSessionManager)

// WithGracePeriod sets how long an abnormally closed session waits
// for the client to come back with its session id.
func WithGracePeriod(d time.Duration) SessionManagerOption {
	return func(bsm *BattleshipSessionManager) {
		bsm.gracePeriod = d
	}
}

func WithSessionCleanupInterval(d time.Duration) SessionManagerOption {
	return func(bsm *BattleshipSessionManager) {
		bsm.cleanupInterval = d
	}
}

func NewBattleshipSessionManager(opts ...SessionManagerOption) *BattleshipSessionManager {
	bsm := &BattleshipSessionManager{
		sessions:        make(map[string]*Session, 10),
		cleanupInterval: time.Minute * 30,
		gracePeriod:     time.Minute * 2,
	}
	for _, opt := range opts {
		opt(bsm)
	}
	return bsm
}

func (bsm *BattleshipSessionManager) GenerateNewSession(conn *websocket.Conn) *Session {
	sessionId := base64.RawURLEncoding.EncodeToString([]byte(uuid.NewString()))
	session := NewSession(sessionId, conn)

	bsm.mu.Lock()
	bsm.sessions[sessionId] = session
	bsm.mu.Unlock()

	return session
}

func (bsm *BattleshipSessionManager) FindSession(sessionId string) (*Session, error) {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()

	session, prs := bsm.sessions[sessionId]
	if !prs {
		return nil, cerr.ErrSessionNotFound(sessionId)
	}
	if session == nil {
		return nil, cerr.ErrSessionIsNil(sessionId)
	}

	return session, nil
}

// TerminateSession forgets the session and closes its connection. A
// reconnect racing with it is refused.
func (bsm *BattleshipSessionManager) TerminateSession(sessionId string) {
	bsm.mu.Lock()
	session, prs := bsm.sessions[sessionId]
	delete(bsm.sessions, sessionId)
	bsm.mu.Unlock()

	if prs && session != nil {
		session.close(websocket.CloseNormalClosure)
	}
}

// CloseAll tells every client the server is going away. Session loops
// then fail their next read and clean up after themselves.
func (bsm *BattleshipSessionManager) CloseAll() {
	bsm.mu.Lock()
	sessions := make([]*Session, 0, len(bsm.sessions))
	for _, session := range bsm.sessions {
		sessions = append(sessions, session)
	}
	bsm.sessions = make(map[string]*Session, 10)
	bsm.mu.Unlock()

	for _, session := range sessions {
		session.close(websocket.CloseGoingAway)
	}
	log.Info().Int("sessions", len(sessions)).Msg("closed all sessions")
}

func (bsm *BattleshipSessionManager) CountSessions() int {
	bsm.mu.RLock()
	defer bsm.mu.RUnlock()
	return len(bsm.sessions)
}

// ReconnectSession hands conn to a live session. The session loop that
// owns it picks the connection up once its grace period wait wakes.
func (bsm *BattleshipSessionManager) ReconnectSession(sessionId string, conn *websocket.Conn) error {
	session, err := bsm.FindSession(sessionId)
	if err != nil {
		return err
	}

	if err := session.reconnect(conn); err != nil {
		return err
	}
	log.Info().Str("session", sessionId).Msg("session reconnected")
	return nil
}

// Sessions idle for longer than the cleanup interval are assumed dangling.
func (bsm *BattleshipSessionManager) CleanupPeriodically(stop <-chan struct{}) {
	ticker := time.NewTicker(bsm.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			removed := bsm.cleanupStale(time.Now())
			log.Info().Strs("sessions", removed).Msg("cleaned up stale sessions")
		}
	}
}

func (bsm *BattleshipSessionManager) cleanupStale(now time.Time) []string {
	bsm.mu.Lock()
	removed := make([]string, 0)
	stale := make([]*Session, 0)
	for id, session := range bsm.sessions {
		if now.Sub(session.LastActivity()) > bsm.cleanupInterval {
			delete(bsm.sessions, id)
			removed = append(removed, id)
			stale = append(stale, session)
		}
	}
	bsm.mu.Unlock()

	for _, session := range stale {
		log.Info().Str("session", session.id).Dur("age", now.Sub(session.CreatedAt())).Msg("stale session closed")
		session.close(websocket.CloseGoingAway)
	}
	return removed
}

// HandleAbnormalClosureSession blocks until the client reconnects with
// its session id or the grace period runs out. failed is the connection
// that broke; if a reconnect already replaced it there is nothing to wait for.
func (bsm *BattleshipSessionManager) HandleAbnormalClosureSession(s *Session, failed *websocket.Conn) error {
	reconnected, already := s.reconnectedSince(failed)
	if already {
		log.Info().Str("session", s.id).Msg("player already reconnected")
		return nil
	}

	timer := time.NewTimer(bsm.gracePeriod)
	defer timer.Stop()

	select {
	case <-timer.C:
		log.Info().Str("session", s.id).Msg("grace period over; session terminated")
		return NewConnErr(ConnLoopBreak).AddDesc("grace period is over for session: " + s.id)

	case <-reconnected:
		log.Info().Str("session", s.id).Msg("player reconnected")
		return nil
	}
}

func (bsm *BattleshipSessionManager) WriteToSessionConn(session *Session, msg interface{}) error {
	for {
		conn := session.Conn()
		err := session.writeToConnWithRetry(conn, msg)
		if err == nil {
			return nil
		}

		// A reconnect swapped the socket mid-write; send on the new one
		if session.Conn() != conn {
			continue
		}

		var connErr ConnErr
		if !errors.As(err, &connErr) || connErr.Code() != ConnLoopAbnormalClosureRetry {
			return err
		}
		if err := bsm.HandleAbnormalClosureSession(session, conn); err != nil {
			return err
		}
	}
}

func (bsm *BattleshipSessionManager) ReadFromSessionConn(session *Session) (int, []byte, error) {
	var retries uint8

	for {
		conn := session.Conn()
		messageType, payload, err := conn.ReadMessage()
		if err == nil {
			session.touch()
			return messageType, payload, nil
		}

		// The old socket was closed under us by a reconnect
		if session.Conn() != conn {
			retries = 0
			continue
		}

		switch session.handleReadFromConnErr(err, retries) {
		case ConnLoopContinue:
			retries++

		case ConnLoopAbnormalClosureRetry:
			if err := bsm.HandleAbnormalClosureSession(session, conn); err != nil {
				return -1, nil, err
			}
			retries = 0

		default:
			return -1, nil, err
		}
	}
}

// FetchCodeFromMsg pulls the signal code out of a raw frame. A frame
// without a "code" field is reported as CodeSignalAbsent.
func FetchCodeFromMsg(payload []byte) (uint8, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return CodeSignalAbsent, err
	}
	if _, prs := raw["code"]; !prs {
		return CodeSignalAbsent, errors.New("incoming req payload must contain 'code' field")
	}

	var signal Signal
	if err := json.Unmarshal(payload, &signal); err != nil {
		return CodeSignalAbsent, err
	}
	return signal.Code, nil
}
