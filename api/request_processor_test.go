package api

import (
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saeidalz13/battleship-solo/db/sqlc"
	mb "github.com/saeidalz13/battleship-solo/models/battleship"
	mc "github.com/saeidalz13/battleship-solo/models/connection"
)

const (
	testSeed1 uint64 = 42
	testSeed2 uint64 = 7
)

var (
	testIpNet = net.IPNet{IP: net.IPv4(127, 0, 0, 1).To4(), Mask: net.CIDRMask(32, 32)}
	dialer    = websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	// one ship per even row, all starting at column 0
	rowOrigins = []mc.ReqCoordinates{{Row: 0}, {Row: 2}, {Row: 4}, {Row: 6}, {Row: 8}}
)

type testEnv struct {
	wsUrl          string
	mock           sqlmock.Sqlmock
	sessionManager *mc.BattleshipSessionManager
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gameManager := mb.NewBattleshipGameManager(mb.WithRandomizerFactory(func() mb.Randomizer {
		return mb.NewRandomizer(testSeed1, testSeed2)
	}))
	sessionManager := mc.NewBattleshipSessionManager(mc.WithGracePeriod(50 * time.Millisecond))

	server, err := NewServer(sessionManager, gameManager,
		WithOpponentDelay(0),
		WithAnalytics(sqlc.NewAnalyticsManager(sqlc.New(db), testIpNet)),
	)
	require.NoError(t, err)

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(httpServer.Close)

	return testEnv{
		wsUrl:          "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/battleship",
		mock:           mock,
		sessionManager: sessionManager,
	}
}

func (env testEnv) dial(t *testing.T) (*websocket.Conn, string) {
	t.Helper()

	conn, _, err := dialer.Dial(env.wsUrl, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})

	var resp mc.Message[mc.RespSessionId]
	require.NoError(t, conn.ReadJSON(&resp))
	require.Equal(t, mc.CodeSessionID, resp.Code)
	require.NotEmpty(t, resp.Payload.SessionID)

	return conn, resp.Payload.SessionID
}

func (env testEnv) expectCounter(counter string) {
	env.mock.ExpectExec(`INSERT INTO game_server_analytics \(server_ip, ` + counter + `\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func roundTrip[T any](t *testing.T, conn *websocket.Conn, req interface{}) mc.Message[T] {
	t.Helper()

	require.NoError(t, conn.WriteJSON(req))
	var resp mc.Message[T]
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func readMessage[T any](t *testing.T, conn *websocket.Conn) mc.Message[T] {
	t.Helper()

	var resp mc.Message[T]
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func withCoordinates(code uint8, row, col int) mc.Message[mc.ReqCoordinates] {
	return mc.Message[mc.ReqCoordinates]{Code: code, Payload: mc.ReqCoordinates{Row: row, Col: col}}
}

// shadowOpponentFleet replays the draws the server's game makes with
// the same seeds to learn where the opponent's ships are.
func shadowOpponentFleet(t *testing.T) mb.Fleet {
	t.Helper()

	shadow := mb.NewGame("shadow", mb.NewRandomizer(testSeed1, testSeed2))
	for _, origin := range rowOrigins {
		_, err := shadow.PlaceShip(mb.NewCoordinates(origin.Row, origin.Col))
		require.NoError(t, err)
	}
	require.NoError(t, shadow.Start())
	return shadow.OpponentFleet()
}

func TestInvalidSignals(t *testing.T) {
	env := newTestEnv(t)
	conn, _ := env.dial(t)

	tests := []struct {
		name         string
		req          interface{}
		expectedCode uint8
	}{
		{name: "unknown code", req: mc.NewMessage[mc.NoPayload](255), expectedCode: mc.CodeInvalidSignal},
		{name: "missing code", req: map[string]string{"payload": "x"}, expectedCode: mc.CodeSignalAbsent},
		{name: "attack before create", req: withCoordinates(mc.CodeAttack, 0, 0), expectedCode: mc.CodeAttack},
		{name: "start before create", req: mc.NewMessage[mc.NoPayload](mc.CodeStartGame), expectedCode: mc.CodeStartGame},
		{name: "rematch before create", req: mc.NewMessage[mc.NoPayload](mc.CodeRematch), expectedCode: mc.CodeRematch},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp := roundTrip[json.RawMessage](t, conn, test.req)
			assert.Equal(t, test.expectedCode, resp.Code)
			assert.NotNil(t, resp.Error)
		})
	}
}

func TestReconnectWithUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	conn, _, err := dialer.Dial(env.wsUrl+"?"+URLQuerySessionIDKeyword+"=bogus", nil)
	require.NoError(t, err)
	defer conn.Close()

	resp := readMessage[mc.NoPayload](t, conn)
	assert.Equal(t, mc.CodeReceivedInvalidSessionID, resp.Code)
	require.NotNil(t, resp.Error)
}

func TestReconnectResumesSession(t *testing.T) {
	env := newTestEnv(t)
	conn, sessionId := env.dial(t)

	env.expectCounter("games_created")
	created := roundTrip[mc.RespCreateGame](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeCreateGame))
	require.Nil(t, created.Error)
	placed := roundTrip[mc.RespPlaceShip](t, conn, withCoordinates(mc.CodePlaceShip, 0, 0))
	require.Nil(t, placed.Error)

	// the server is still blocked reading the first socket
	reconn, _, err := dialer.Dial(env.wsUrl+"?"+URLQuerySessionIDKeyword+"="+sessionId, nil)
	require.NoError(t, err)
	defer reconn.Close()

	_, _, err = conn.ReadMessage()
	require.Error(t, err, "the replaced socket should be dropped")

	placed = roundTrip[mc.RespPlaceShip](t, reconn, withCoordinates(mc.CodePlaceShip, 2, 0))
	require.Nil(t, placed.Error)
	assert.Equal(t, 1, placed.Payload.Ship.Id)
	assert.Equal(t, 4, placed.Payload.Ship.Size)

	_, err = env.sessionManager.FindSession(sessionId)
	assert.NoError(t, err)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCloseAllEndsSessions(t *testing.T) {
	env := newTestEnv(t)
	conn, sessionId := env.dial(t)

	env.sessionManager.CloseAll()

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	reconn, _, err := dialer.Dial(env.wsUrl+"?"+URLQuerySessionIDKeyword+"="+sessionId, nil)
	require.NoError(t, err)
	defer reconn.Close()

	resp := readMessage[mc.NoPayload](t, reconn)
	assert.Equal(t, mc.CodeReceivedInvalidSessionID, resp.Code)
}

func TestSetupFlow(t *testing.T) {
	env := newTestEnv(t)
	conn, _ := env.dial(t)

	env.expectCounter("games_created")
	created := roundTrip[mc.RespCreateGame](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeCreateGame))
	require.Nil(t, created.Error)
	assert.Equal(t, mc.CodeCreateGame, created.Code)
	assert.Len(t, created.Payload.GameUuid, 6)
	assert.NotEmpty(t, created.Payload.OpponentName)
	assert.Equal(t, mb.DefaultShipSizes, created.Payload.ShipsToPlace)
	assert.Equal(t, "horizontal", created.Payload.Orientation)
	assert.NoError(t, env.mock.ExpectationsWereMet())

	toggled := roundTrip[mc.RespToggleOrientation](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeToggleOrientation))
	assert.Equal(t, "vertical", toggled.Payload.Orientation)
	toggled = roundTrip[mc.RespToggleOrientation](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeToggleOrientation))
	assert.Equal(t, "horizontal", toggled.Payload.Orientation)

	// the carrier hanging off the right edge is pulled back in
	preview := roundTrip[mc.RespPreviewPlacement](t, conn, withCoordinates(mc.CodePreviewPlacement, 0, 8))
	require.Nil(t, preview.Error)
	assert.True(t, preview.Payload.Valid)
	assert.Equal(t, []mb.Coordinates{
		mb.NewCoordinates(0, 5), mb.NewCoordinates(0, 6), mb.NewCoordinates(0, 7),
		mb.NewCoordinates(0, 8), mb.NewCoordinates(0, 9),
	}, preview.Payload.Positions)

	started := roundTrip[mc.RespStartGame](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeStartGame))
	assert.NotNil(t, started.Error, "cannot start with an empty fleet")

	for i, origin := range rowOrigins {
		placed := roundTrip[mc.RespPlaceShip](t, conn, withCoordinates(mc.CodePlaceShip, origin.Row, origin.Col))
		require.Nil(t, placed.Error, "ship %d", i)
		assert.Equal(t, i, placed.Payload.Ship.Id)
		assert.Equal(t, mb.DefaultShipSizes[i], placed.Payload.Ship.Size)
		assert.Equal(t, i == len(rowOrigins)-1, placed.Payload.AllPlaced)

		if i == 0 {
			// touching the carrier diagonally
			rejected := roundTrip[mc.RespPlaceShip](t, conn, withCoordinates(mc.CodePlaceShip, 1, 5))
			require.NotNil(t, rejected.Error)
			assert.Contains(t, rejected.Error.Message, "1-cell gap")
		}
	}

	started = roundTrip[mc.RespStartGame](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeStartGame))
	require.Nil(t, started.Error)
	assert.True(t, started.Payload.IsTurn)
}

func TestPlayThroughToVictoryAndRematch(t *testing.T) {
	env := newTestEnv(t)
	conn, _ := env.dial(t)

	env.expectCounter("games_created")
	created := roundTrip[mc.RespCreateGame](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeCreateGame))
	require.Nil(t, created.Error)

	for _, origin := range rowOrigins {
		placed := roundTrip[mc.RespPlaceShip](t, conn, withCoordinates(mc.CodePlaceShip, origin.Row, origin.Col))
		require.Nil(t, placed.Error)
	}
	started := roundTrip[mc.RespStartGame](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeStartGame))
	require.Nil(t, started.Error)

	var targets []mb.Coordinates
	for _, ship := range shadowOpponentFleet(t) {
		targets = append(targets, ship.Positions...)
	}
	require.Len(t, targets, 17)

	env.expectCounter("player_wins")
	for i, at := range targets {
		last := i == len(targets)-1

		attack := roundTrip[mc.RespAttack](t, conn, withCoordinates(mc.CodeAttack, at.Row, at.Col))
		require.Nil(t, attack.Error, "shot %d at %+v", i, at)
		require.True(t, attack.Payload.Hit, "shot %d at %+v", i, at)
		assert.False(t, attack.Payload.IsTurn)

		if last {
			break
		}

		reply := readMessage[mc.RespAttack](t, conn)
		require.Equal(t, mc.CodeOpponentAttack, reply.Code)
		require.Nil(t, reply.Error)
		assert.True(t, reply.Payload.IsTurn)
		assert.Contains(t, reply.Payload.Message, "Your turn!")

		// a repeat shot is refused and costs nothing
		if i == 0 {
			repeat := roundTrip[mc.RespAttack](t, conn, withCoordinates(mc.CodeAttack, at.Row, at.Col))
			require.NotNil(t, repeat.Error)
			assert.Contains(t, repeat.Error.Message, "already shot")
		}
	}

	end := readMessage[mc.RespEndGame](t, conn)
	assert.Equal(t, mc.CodeEndGame, end.Code)
	assert.Equal(t, "player", end.Payload.Winner)
	assert.Equal(t, "Congratulations! You won!", end.Payload.Message)
	assert.NoError(t, env.mock.ExpectationsWereMet())

	afterEnd := roundTrip[mc.RespAttack](t, conn, withCoordinates(mc.CodeAttack, 9, 9))
	assert.NotNil(t, afterEnd.Error)

	env.expectCounter("rematch_called")
	rematch := roundTrip[mc.RespCreateGame](t, conn, mc.NewMessage[mc.NoPayload](mc.CodeRematch))
	require.Nil(t, rematch.Error)
	assert.Equal(t, mc.CodeRematch, rematch.Code)
	assert.Equal(t, created.Payload.GameUuid, rematch.Payload.GameUuid)
	assert.Equal(t, mb.DefaultShipSizes, rematch.Payload.ShipsToPlace)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}
