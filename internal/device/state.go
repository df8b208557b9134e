package device

// State is the lifecycle position of a Session.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateConnecting
	StateSubscribed
	StateReceiving
	StateDisconnected
	StateError
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateScanning:     "scanning",
	StateConnecting:   "connecting",
	StateSubscribed:   "subscribed",
	StateReceiving:    "receiving",
	StateDisconnected: "disconnected",
	StateError:        "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText lets the state appear by name in JSON and logs.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
