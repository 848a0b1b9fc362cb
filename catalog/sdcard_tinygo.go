//go:build tinygo && baremetal && sdcard

package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"

	"machine"

	"baer/player"

	"github.com/samber/lo"
	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs/fatfs"
)

// SDAvailable reports whether this build can read the media card.
const SDAvailable = true

// LoadSD mounts the media card on the SPI bus and scans the slot
// directories from its root. Removable media is never formatted.
func LoadSD(pins SDPins, slots []string, log *slog.Logger) (player.Catalog, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("module", "SDCARD")

	sd := sdcard.New(machine.SPI0, machine.Pin(pins.SCK), machine.Pin(pins.SDO), machine.Pin(pins.SDI), machine.Pin(pins.CS))
	if err := sd.Configure(); err != nil {
		return nil, fmt.Errorf("sdcard: configure: %w", err)
	}
	fat := fatfs.New(&sd).Configure(&fatfs.Config{SectorSize: fatfs.SectorSize})
	if err := fat.Mount(); err != nil {
		return nil, fmt.Errorf("sdcard: mount: %w", err)
	}

	exts := DefaultExtensions
	cat := make(player.Catalog, len(slots))
	for i, dir := range slots {
		cat[i].Dir = dir
		tracks, err := scanFATDir(fat, path.Join("/", dir), exts, log)
		if err != nil {
			log.Warn("slot unreadable", "slot", i, "dir", dir, "err", err)
			continue
		}
		cat[i].Tracks = tracks
		log.Debug("slot scanned", "slot", i, "dir", dir, "tracks", len(tracks))
	}
	return cat, nil
}

func scanFATDir(fat *fatfs.FATFS, dir string, exts []string, log *slog.Logger) ([]player.Track, error) {
	d, err := fat.OpenFile(dir, os.O_RDONLY)
	if err != nil {
		return nil, mapFatErr(err)
	}
	defer d.Close()

	infos, err := d.Readdir(0)
	if err != nil {
		return nil, mapFatErr(err)
	}
	names := lo.FilterMap(infos, func(fi os.FileInfo, _ int) (string, bool) {
		return fi.Name(), !fi.IsDir() && fi.Name() != "." && fi.Name() != ".."
	})
	return lo.Map(pickAudio(names, exts), func(name string, _ int) player.Track {
		p := path.Join(dir, name)
		f, err := fat.OpenFile(p, os.O_RDONLY)
		if err != nil {
			log.Warn("open failed", "path", p, "err", err)
			return fileTrack(p)
		}
		defer f.Close()
		return taggedTrack(p, f, log)
	}), nil
}

func mapFatErr(err error) error {
	var fr fatfs.FileResult
	if errors.As(err, &fr) && (fr == fatfs.FileResultNoFile || fr == fatfs.FileResultNoPath) {
		return fmt.Errorf("%w: %v", os.ErrNotExist, err)
	}
	return err
}
