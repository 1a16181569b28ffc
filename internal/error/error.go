package error

import (
	"errors"
	"fmt"
)

const (
	ConstErrAttackFailed    = "attack operation failed"
	ConstErrPlacementFailed = "ship placement failed"
)

var (
	ErrInvalidPlacement   = errors.New("cannot place ship here; ships need a 1-cell gap between them")
	ErrPlacementExhausted = errors.New("random fleet placement exceeded max attempts")
	ErrAllShipsPlaced     = errors.New("all ships are already placed")
	ErrFleetIncomplete    = errors.New("all ships must be placed before starting the game")
	ErrNotPlayerTurn      = errors.New("it is not the player's turn")
	ErrNotOpponentTurn    = errors.New("it is not the opponent's turn")
	ErrCellAlreadyShot    = errors.New("cell already shot")
	ErrOutOfGridBound     = errors.New("coordinates are out of grid bound")
)

func ErrGameNotExists(gameUuid string) error {
	return fmt.Errorf("game with this uuid does not exist, uuid: %s", gameUuid)
}

func ErrGameIsNil(gameUuid string) error {
	return fmt.Errorf("game with this uuid is nil, uuid: %s", gameUuid)
}

func ErrSessionNotFound(sessionId string) error {
	return fmt.Errorf("session with this id does not exist, id: %s", sessionId)
}

func ErrSessionIsNil(sessionId string) error {
	return fmt.Errorf("session with this id is nil, id: %s", sessionId)
}

func ErrGameNotInPhase(expected, actual string) error {
	return fmt.Errorf("game must be in %s phase, current phase: %s", expected, actual)
}

func ErrXorYOutOfGridBound(row, col int) error {
	return fmt.Errorf("%w\trow: %d\tcol: %d", ErrOutOfGridBound, row, col)
}

func ErrAttackPositionAlreadyShot(row, col int) error {
	return fmt.Errorf("%w\trow: %d\tcol: %d", ErrCellAlreadyShot, row, col)
}

func ErrShipPlacement(size, row, col int) error {
	return fmt.Errorf("%w\tsize: %d\trow: %d\tcol: %d", ErrInvalidPlacement, size, row, col)
}

func ErrRandomPlacement(shipId, size, attempts int) error {
	return fmt.Errorf("%w\tship id: %d\tsize: %d\tattempts: %d", ErrPlacementExhausted, shipId, size, attempts)
}

func ErrSessionClosed(sessionId string) error {
	return fmt.Errorf("session with this id is already closed, id: %s", sessionId)
}
