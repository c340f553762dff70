package tracker

// Broker carries the messages between the control surface (the model/UI
// side) and the Player goroutine. Communication is one channel per
// recipient; all sends from the player side are non-blocking so the driver
// can never deadlock on a slow or absent consumer.
type Broker struct {
	ToPlayer chan any
	ToModel  chan MsgToModel
}

// MsgToModel reports the player state back to the control surface. Data
// carries infrequent boxed messages such as Alerts. Alerts raised on voice
// goroutines arrive with the position fields zeroed, as those goroutines
// never read the player position.
type MsgToModel struct {
	Playing bool
	Row     int
	Loops   int
	Data    any
}

func NewBroker() *Broker {
	return &Broker{
		ToPlayer: make(chan any, 1024),
		ToModel:  make(chan MsgToModel, 1024),
	}
}

// TrySend sends a value to a channel if it is not full. It is guaranteed to
// be non-blocking. Returns true if the value was sent.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}
