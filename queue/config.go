package queue

// TimeFunc returns the current monotonic millisecond clock reading. Tests
// supply a counter that increments on each read so arrival order is total
// and reproducible.
type TimeFunc func() int64

// Config collects everything a Coordinator needs to construct, with no
// defaults baked in at this layer — callers (cmd/matchqueued, tests) are
// expected to supply a complete Config.
type Config struct {
	Storage    Storage
	Policy     Policy
	PolicyOpts map[string]any

	TimeFn TimeFunc

	// MaxMatchHistory bounds the Coordinator's match history ring buffer.
	// Zero disables history retention entirely.
	MaxMatchHistory int

	Publisher Publisher

	// Observer is optional telemetry; nil disables event emission.
	Observer Observer

	// Logger is optional; nil disables all Coordinator logging.
	Logger Logger
}
