//go:build tinygo

package app

import "baer/audio"

func defaultDecoder(func()) (Decoder, error) {
	return audio.NewSilent(), nil
}
