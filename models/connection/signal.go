package connection

const (
	CodeSessionID uint8 = iota
	CodeReceivedInvalidSessionID
	CodeCreateGame
	CodeToggleOrientation
	CodePreviewPlacement
	CodePlaceShip
	CodeStartGame
	CodeAttack

	// Pushed by the server after the opponent has taken its turn
	CodeOpponentAttack
	CodeEndGame

	// Throws away the current game and starts a fresh setup
	CodeRematch
	CodeInvalidSignal

	// if the req msg does not contain "code" field
	CodeSignalAbsent
)

type Signal struct {
	Code uint8 `json:"code"`
}

func NewSignal(code uint8) Signal {
	return Signal{Code: code}
}
