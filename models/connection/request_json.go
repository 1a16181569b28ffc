package connection

type ReqCoordinates struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type ReqPreviewPlacement ReqCoordinates

type ReqPlaceShip ReqCoordinates

type ReqAttack ReqCoordinates
