package pubsub

import "errors"

// ErrBusClosed is returned by Publish and Subscribe once the Bus has been
// closed.
var ErrBusClosed = errors.New("pubsub: bus closed")
