package connection

import (
	mb "github.com/saeidalz13/battleship-solo/models/battleship"
)

type RespSessionId struct {
	SessionID string `json:"session_id"`
}

type RespCreateGame struct {
	GameUuid     string `json:"game_uuid"`
	OpponentName string `json:"opponent_name"`
	ShipsToPlace []int  `json:"ships_to_place"`
	Orientation  string `json:"orientation"`
	Message      string `json:"message"`
}

type RespToggleOrientation struct {
	Orientation string `json:"orientation"`
}

type RespPreviewPlacement struct {
	Positions []mb.Coordinates `json:"positions"`
	Valid     bool             `json:"valid"`
}

type RespPlaceShip struct {
	Ship         mb.Ship `json:"ship"`
	NextShipSize int     `json:"next_ship_size"`
	AllPlaced    bool    `json:"all_placed"`
	Message      string  `json:"message"`
}

type RespStartGame struct {
	IsTurn  bool   `json:"is_turn"`
	Message string `json:"message"`
}

type RespSunkShip struct {
	Id        int              `json:"id"`
	Size      int              `json:"size"`
	Class     string           `json:"class"`
	Positions []mb.Coordinates `json:"positions"`
}

type RespAttack struct {
	Row                 int           `json:"row"`
	Col                 int           `json:"col"`
	Hit                 bool          `json:"hit"`
	SunkShip            *RespSunkShip `json:"sunk_ship,omitempty"`
	IsTurn              bool          `json:"is_turn"`
	SunkenShipsPlayer   int           `json:"sunken_ships_player"`
	SunkenShipsOpponent int           `json:"sunken_ships_opponent"`
	Message             string        `json:"message"`
}

type RespEndGame struct {
	Winner  string `json:"winner"`
	Message string `json:"message"`
}

type RespErr struct {
	ErrorDetails string `json:"error_details,omitempty"`
	Message      string `json:"message,omitempty"`
}

func NewRespErr(errorDetails, message string) *RespErr {
	return &RespErr{
		ErrorDetails: errorDetails,
		Message:      message,
	}
}

func NewRespSunkShip(ship *mb.Ship) *RespSunkShip {
	if ship == nil {
		return nil
	}
	return &RespSunkShip{
		Id:        ship.Id,
		Size:      ship.Size,
		Class:     ship.ClassName(),
		Positions: ship.Positions,
	}
}
