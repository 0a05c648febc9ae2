package board

// Board is the source of sensor frames (real MCU or simulation).
type Board interface {
	Connect() error
	Close() error
	Frames() <-chan Frame
	SetLED(on bool) error
	IsConnected() bool
}

// Ensure Serial implements Board.
var _ Board = (*Serial)(nil)

// Ensure Mock implements Board.
var _ Board = (*Mock)(nil)
