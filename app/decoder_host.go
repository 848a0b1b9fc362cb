//go:build !tinygo

package app

import "baer/audio"

func defaultDecoder(onEnd func()) (Decoder, error) {
	return audio.NewClocked(onEnd), nil
}
