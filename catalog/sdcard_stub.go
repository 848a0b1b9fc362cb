//go:build !(tinygo && baremetal && sdcard)

package catalog

import (
	"errors"
	"log/slog"

	"baer/player"
)

// SDAvailable reports whether this build can read the media card.
const SDAvailable = false

// ErrNoCard is returned by LoadSD on builds without a card driver.
var ErrNoCard = errors.New("catalog: no media card support in this build")

// LoadSD returns ErrNoCard. Host builds read the media tree with Load.
func LoadSD(SDPins, []string, *slog.Logger) (player.Catalog, error) {
	return nil, ErrNoCard
}
