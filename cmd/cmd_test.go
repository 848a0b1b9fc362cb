//go:build !tinygo

package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"baer/config"
	"baer/player"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		cfgFile = ""
	})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baer.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigShow(t *testing.T) {
	path := writeConfig(t, "name: Testbaer\naudio:\n  max_volume: 180\n")
	out := execute(t, "--config", path, "config", "show")
	for _, want := range []string{"name: Testbaer", "max_volume: 180", "media_root: media"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yaml")
	out := execute(t, "config", "init", path)
	if !strings.Contains(out, "wrote "+path) {
		t.Fatalf("unexpected output %q", out)
	}
	got, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != config.Default().Name {
		t.Fatalf("name=%q", got.Name)
	}
}

func TestVersion(t *testing.T) {
	out := execute(t, "version")
	if !strings.HasPrefix(out, "baer dev") {
		t.Fatalf("version output %q", out)
	}
}

func TestCatalogCommand(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"PAW01/one.mp3", "PAW01/two.mp3", "PAW03/three.wav"} {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := writeConfig(t, "media_root: "+root+"\n")

	out := execute(t, "--config", path, "catalog", "--rescan")
	for _, want := range []string{"one", "two", "three", "/PAW02"} {
		if !strings.Contains(out, want) {
			t.Fatalf("catalog output missing %q:\n%s", want, out)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "_metaCache.json")); err != nil {
		t.Fatalf("meta cache not written: %v", err)
	}
}

func TestRenderCatalog(t *testing.T) {
	var out bytes.Buffer
	renderCatalog(&out, player.Catalog{
		{Dir: "/PAW01", Tracks: []player.Track{{Path: "a.mp3", Title: "Morning Song", Artist: "The Bears"}}},
		{Dir: "/PAW02"},
	})
	s := out.String()
	for _, want := range []string{"Morning Song", "The Bears", "/PAW01", "/PAW02"} {
		if !strings.Contains(s, want) {
			t.Fatalf("table missing %q:\n%s", want, s)
		}
	}
}

func TestRunHeadless(t *testing.T) {
	c := config.Default()
	c.MediaRoot = t.TempDir()
	c.Timing.PeripheralStartup = 0

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := runDevice(ctx, c, runOptions{
		headless:     true,
		hz:           200,
		ticks:        20,
		batteryVolts: 3.9,
		batteryPct:   80,
		autoplay:     -1,
	}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err != nil {
		t.Fatalf("runDevice: %v", err)
	}
}

func TestRunHeadlessLowBattery(t *testing.T) {
	c := config.Default()
	c.MediaRoot = t.TempDir()
	c.Timing.PeripheralStartup = 0

	err := runDevice(context.Background(), c, runOptions{
		headless:     true,
		hz:           200,
		ticks:        20,
		batteryVolts: 2.9,
		batteryPct:   1,
		autoplay:     -1,
	}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	if err == nil || !strings.Contains(err.Error(), "powered off") {
		t.Fatalf("runDevice err=%v, want powered off", err)
	}
}
