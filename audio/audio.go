// Package audio implements the decoder the playback engine drives: a beep
// speaker backend on desktop hosts, a clocked backend that tracks position
// without producing sound, and a silent stub on microcontrollers.
package audio

import "errors"

// ErrUnsupported is returned for files no decoder understands.
var ErrUnsupported = errors.New("audio: unsupported format")
