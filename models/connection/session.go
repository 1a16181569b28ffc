package connection

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	cerr "github.com/saeidalz13/battleship-solo/internal/error"
)

const (
	maxWriteWsRetries uint8         = 2
	backOffFactor     uint8         = 2
	closeFrameTimeout time.Duration = time.Second
)

type ConnectionHandler interface {
	reconnect(conn *websocket.Conn) error
	reconnectedSince(failed *websocket.Conn) (<-chan struct{}, bool)
	handleReadFromConnErr(err error, retries uint8) uint8
	writeToConnWithRetry(conn *websocket.Conn, msg interface{}) error
	onConnErr(err error) uint8
	close(closeCode int)
}

type Session struct {
	id                     string
	conn                   *websocket.Conn
	reconnectionSignalChan chan struct{}
	closed                 bool
	createdAt              time.Time
	lastActivity           atomic.Int64
	mu                     sync.Mutex
}

func NewSession(id string, conn *websocket.Conn) *Session {
	s := &Session{
		id:                     id,
		conn:                   conn,
		reconnectionSignalChan: make(chan struct{}),
		createdAt:              time.Now(),
	}
	s.touch()
	return s
}

func (s *Session) Id() string {
	return s.id
}

func (s *Session) Conn() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// LastActivity is the last time a frame was read or the client
// reconnected.
func (s *Session) LastActivity() time.Time {
	return time.Unix(0, s.lastActivity.Load())
}

func (s *Session) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

func (s *Session) remoteAddr() string {
	conn := s.Conn()
	if conn == nil {
		return ""
	}
	return conn.RemoteAddr().String()
}

func (s *Session) onConnErr(err error) uint8 {
	if errors.Is(err, net.ErrClosed) {
		log.Info().Err(err).Str("session", s.id).Msg("connection closed by server")
		return ConnLoopBreak
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Warn().Err(err).Str("session", s.id).Msg("timeout error")
		return ConnLoopRetry
	}

	if websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		log.Warn().Err(err).Str("session", s.id).Msg("high server load")
		return ConnLoopRetry
	}

	// Mobile browsers drop the socket when the tab is backgrounded
	if websocket.IsCloseError(err, websocket.CloseAbnormalClosure) {
		log.Warn().Err(err).Str("session", s.id).Msg("abnormal closure")
		return ConnLoopAbnormalClosureRetry
	}

	if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
		log.Info().Err(err).Str("session", s.id).Msg("connection closed")
		return ConnLoopBreak
	}

	if websocket.IsCloseError(err, websocket.CloseProtocolError, websocket.CloseInternalServerErr, websocket.CloseTLSHandshake, websocket.CloseMandatoryExtension) {
		log.Error().Err(err).Str("session", s.id).Msg("critical connection error")
		return ConnLoopBreak
	}

	// Clients sending binary or badly encoded frames are not ours
	if websocket.IsCloseError(err, websocket.CloseInvalidFramePayloadData, websocket.CloseUnsupportedData, websocket.CloseMessageTooBig, websocket.ClosePolicyViolation, websocket.CloseServiceRestart, websocket.CloseNoStatusReceived) {
		log.Warn().Err(err).Str("session", s.id).Msg("non-critical connection error")
		return ConnLoopBreak
	}

	log.Error().Err(err).Str("session", s.id).Msg("unexpected connection error")
	return ConnLoopBreak
}

// Writes msg as JSON to conn. Timeouts are retried with a linear
// backoff; anything else is mapped to a loop code.
func (s *Session) writeToConnWithRetry(conn *websocket.Conn, msg interface{}) error {
	var retries uint8

	for {
		err := conn.WriteJSON(msg)
		if err == nil {
			return nil
		}

		switch s.onConnErr(err) {
		case ConnLoopRetry:
			if retries >= maxWriteWsRetries {
				log.Error().Err(err).Str("remote", s.remoteAddr()).Msg("max retries reached writing to ws")
				return NewConnErr(ConnLoopBreak).AddDesc(err.Error())
			}
			retries++
			log.Warn().Str("remote", s.remoteAddr()).Uint8("retry", retries).Msg("writing to ws failed; retrying")
			time.Sleep(time.Duration(retries*backOffFactor) * time.Second)

		case ConnLoopAbnormalClosureRetry:
			return NewConnErr(ConnLoopAbnormalClosureRetry)

		default:
			return NewConnErr(ConnLoopBreak).AddDesc("breaking write loop due to: " + err.Error())
		}
	}
}

// Handles the errors that occur when reading from the ws connection.
// ConnLoopContinue means the caller should read again.
func (s *Session) handleReadFromConnErr(err error, retries uint8) uint8 {
	switch s.onConnErr(err) {
	case ConnLoopAbnormalClosureRetry:
		return ConnLoopAbnormalClosureRetry

	case ConnLoopRetry:
		if retries >= maxWriteWsRetries {
			return ConnLoopBreak
		}
		log.Warn().Str("remote", s.remoteAddr()).Uint8("retry", retries).Msg("reading from ws failed; retrying")
		time.Sleep(time.Duration(retries*backOffFactor) * time.Second)
		return ConnLoopContinue

	default:
		log.Info().Err(err).Str("remote", s.remoteAddr()).Msg("breaking ws conn loop")
		return ConnLoopBreak
	}
}

// reconnect swaps in the new connection, closes the old one and wakes
// up whoever is waiting out the grace period. A closed session refuses.
func (s *Session) reconnect(conn *websocket.Conn) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cerr.ErrSessionClosed(s.id)
	}
	old := s.conn
	s.conn = conn
	signal := s.reconnectionSignalChan
	s.reconnectionSignalChan = make(chan struct{})
	s.mu.Unlock()

	s.touch()
	if old != nil && old != conn {
		_ = old.Close()
	}
	close(signal)
	return nil
}

// reconnectedSince reports true when the session no longer uses
// failed. Otherwise it returns the channel closed by the next reconnect.
// Both are read under one lock so a reconnect cannot slip in between.
func (s *Session) reconnectedSince(failed *websocket.Conn) (<-chan struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != failed {
		return nil, true
	}
	return s.reconnectionSignalChan, false
}

// close sends a close frame and drops the connection. WriteControl may
// run concurrently with the session loop's own writes.
func (s *Session) close(closeCode int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, ""), time.Now().Add(closeFrameTimeout))
	_ = conn.Close()
}

var _ ConnectionHandler = (*Session)(nil)
