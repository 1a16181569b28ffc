package api

import (
	"encoding/json"
	"errors"

	cerr "github.com/saeidalz13/battleship-solo/internal/error"
	mb "github.com/saeidalz13/battleship-solo/models/battleship"
	mc "github.com/saeidalz13/battleship-solo/models/connection"
)

type RequestHandler interface {
	HandleCreateGame(gm mb.GameManager) (*mb.Game, mc.Message[mc.RespCreateGame])
	HandleToggleOrientation(game *mb.Game) mc.Message[mc.RespToggleOrientation]
	HandlePreviewPlacement(game *mb.Game) mc.Message[mc.RespPreviewPlacement]
	HandlePlaceShip(game *mb.Game) mc.Message[mc.RespPlaceShip]
	HandleStartGame(game *mb.Game) mc.Message[mc.RespStartGame]
	HandleAttack(game *mb.Game) mc.Message[mc.RespAttack]
	HandleRematch(game *mb.Game) mc.Message[mc.RespCreateGame]
}

// Every incoming frame of a session is wrapped in a Request and
// dispatched on its signal code.
type Request struct {
	payload []byte
}

var _ RequestHandler = Request{}

func NewRequest(payload ...[]byte) Request {
	if len(payload) == 0 {
		return Request{}
	}
	return Request{payload: payload[0]}
}

func (r Request) coordinates() (mb.Coordinates, error) {
	var req mc.Message[mc.ReqCoordinates]
	if err := json.Unmarshal(r.payload, &req); err != nil {
		return mb.Coordinates{}, err
	}
	return mb.NewCoordinates(req.Payload.Row, req.Payload.Col), nil
}

func (r Request) HandleCreateGame(gm mb.GameManager) (*mb.Game, mc.Message[mc.RespCreateGame]) {
	game := gm.CreateGame()
	return game, newGameMessage(mc.CodeCreateGame, game)
}

func (r Request) HandleToggleOrientation(game *mb.Game) mc.Message[mc.RespToggleOrientation] {
	resp := mc.NewMessage[mc.RespToggleOrientation](mc.CodeToggleOrientation)
	if game == nil {
		resp.AddError(cerr.ErrGameIsNil("").Error(), "create a game first")
		return resp
	}

	resp.AddPayload(mc.RespToggleOrientation{Orientation: game.ToggleOrientation().String()})
	return resp
}

func (r Request) HandlePreviewPlacement(game *mb.Game) mc.Message[mc.RespPreviewPlacement] {
	resp := mc.NewMessage[mc.RespPreviewPlacement](mc.CodePreviewPlacement)
	if game == nil {
		resp.AddError(cerr.ErrGameIsNil("").Error(), "create a game first")
		return resp
	}

	origin, err := r.coordinates()
	if err != nil {
		resp.AddError(err.Error(), "invalid preview payload")
		return resp
	}

	positions, valid := game.PreviewPlacement(origin)
	resp.AddPayload(mc.RespPreviewPlacement{Positions: positions, Valid: valid})
	return resp
}

func (r Request) HandlePlaceShip(game *mb.Game) mc.Message[mc.RespPlaceShip] {
	resp := mc.NewMessage[mc.RespPlaceShip](mc.CodePlaceShip)
	if game == nil {
		resp.AddError(cerr.ErrGameIsNil("").Error(), cerr.ConstErrPlacementFailed)
		return resp
	}

	origin, err := r.coordinates()
	if err != nil {
		resp.AddError(err.Error(), cerr.ConstErrPlacementFailed)
		return resp
	}

	ship, err := game.PlaceShip(origin)
	if err != nil {
		resp.AddError(err.Error(), game.Message())
		return resp
	}

	resp.AddPayload(mc.RespPlaceShip{
		Ship:         ship,
		NextShipSize: game.NextShipSize(),
		AllPlaced:    game.AllShipsPlaced(),
		Message:      game.Message(),
	})
	return resp
}

func (r Request) HandleStartGame(game *mb.Game) mc.Message[mc.RespStartGame] {
	resp := mc.NewMessage[mc.RespStartGame](mc.CodeStartGame)
	if game == nil {
		resp.AddError(cerr.ErrGameIsNil("").Error(), "create a game first")
		return resp
	}

	if err := game.Start(); err != nil {
		resp.AddError(err.Error(), "game could not start")
		return resp
	}

	resp.AddPayload(mc.RespStartGame{IsTurn: game.Turn() == mb.SidePlayer, Message: game.Message()})
	return resp
}

func (r Request) HandleAttack(game *mb.Game) mc.Message[mc.RespAttack] {
	resp := mc.NewMessage[mc.RespAttack](mc.CodeAttack)
	if game == nil {
		resp.AddError(cerr.ErrGameIsNil("").Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	at, err := r.coordinates()
	if err != nil {
		resp.AddError(err.Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	outcome, err := game.FireAtOpponent(at)
	if err != nil {
		message := cerr.ConstErrAttackFailed
		if errors.Is(err, cerr.ErrCellAlreadyShot) {
			message = game.Message()
		}
		resp.AddError(err.Error(), message)
		return resp
	}

	resp.AddPayload(newRespAttack(game, outcome))
	return resp
}

// HandleOpponentTurn lets the automated opponent take its shot and
// reports it with CodeOpponentAttack.
func HandleOpponentTurn(game *mb.Game) mc.Message[mc.RespAttack] {
	resp := mc.NewMessage[mc.RespAttack](mc.CodeOpponentAttack)
	if game == nil {
		resp.AddError(cerr.ErrGameIsNil("").Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	outcome, err := game.PlayOpponentTurn()
	if err != nil {
		resp.AddError(err.Error(), cerr.ConstErrAttackFailed)
		return resp
	}

	resp.AddPayload(newRespAttack(game, outcome))
	return resp
}

func (r Request) HandleRematch(game *mb.Game) mc.Message[mc.RespCreateGame] {
	if game == nil {
		resp := mc.NewMessage[mc.RespCreateGame](mc.CodeRematch)
		resp.AddError(cerr.ErrGameIsNil("").Error(), "no game to restart")
		return resp
	}

	game.Reset()
	return newGameMessage(mc.CodeRematch, game)
}

func NewEndGameMessage(game *mb.Game) mc.Message[mc.RespEndGame] {
	resp := mc.NewMessage[mc.RespEndGame](mc.CodeEndGame)
	resp.AddPayload(mc.RespEndGame{Winner: game.Winner().String(), Message: game.Message()})
	return resp
}

func newGameMessage(code uint8, game *mb.Game) mc.Message[mc.RespCreateGame] {
	resp := mc.NewMessage[mc.RespCreateGame](code)
	resp.AddPayload(mc.RespCreateGame{
		GameUuid:     game.Uuid(),
		OpponentName: game.OpponentName(),
		ShipsToPlace: game.ShipsToPlace(),
		Orientation:  game.Orientation().String(),
		Message:      game.Message(),
	})
	return resp
}

func newRespAttack(game *mb.Game, outcome mb.TurnOutcome) mc.RespAttack {
	return mc.RespAttack{
		Row:                 outcome.At.Row,
		Col:                 outcome.At.Col,
		Hit:                 outcome.Hit,
		SunkShip:            mc.NewRespSunkShip(outcome.Sunk),
		IsTurn:              game.Turn() == mb.SidePlayer,
		SunkenShipsPlayer:   game.PlayerFleet().SunkenShips(),
		SunkenShipsOpponent: game.OpponentFleet().SunkenShips(),
		Message:             outcome.Message,
	}
}
