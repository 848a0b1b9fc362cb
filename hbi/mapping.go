package hbi

import (
	"fmt"
	"strconv"
	"strings"
)

// Lines is the number of physical button/LED lines.
const Lines = 24

// LinesPerGroup is the number of lines served by one LED driver and one
// input expander.
const LinesPerGroup = 8

// Action is what pressing a line does.
type Action uint8

// The numeric values match the legacy config encoding.
const (
	ActionNone Action = iota
	ActionPlaySlot
	ActionPlay
	ActionPause
	ActionStop
	ActionNext
	ActionPrev
)

var actionNames = [...]string{"none", "play_slot", "play", "pause", "stop", "next", "prev"}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "action(" + strconv.Itoa(int(a)) + ")"
}

// ParseAction accepts an action name ("play_slot", "PLAY-SLOT") or its
// legacy number ("1", "0x01").
func ParseAction(s string) (Action, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.ReplaceAll(name, "-", "_")
	if name == "" {
		return ActionNone, nil
	}
	for i, n := range actionNames {
		if name == n {
			return Action(i), nil
		}
	}
	if n, err := strconv.ParseUint(name, 0, 8); err == nil && int(n) < len(actionNames) {
		return Action(n), nil
	}
	return ActionNone, fmt.Errorf("hbi: unknown action %q", s)
}

// Mapping binds one line to an action. Payload optionally names the slot
// directory of a PlaySlot line. PowerLED lights the line whenever the
// device is ready to play.
type Mapping struct {
	Action   Action
	Payload  string
	PowerLED bool
}

// DefaultMappings is the factory layout: four slot buttons on lines 0-3
// and the transport buttons on lines 19-23.
func DefaultMappings() [Lines]Mapping {
	var m [Lines]Mapping
	for i := 0; i < 4; i++ {
		m[i].Action = ActionPlaySlot
	}
	m[19].Action = ActionStop
	m[20].Action = ActionPlay
	m[21].Action = ActionPause
	m[22].Action = ActionNext
	m[23].Action = ActionPrev
	return m
}

// lineTable is the mapping with slot lookups precomputed in both
// directions.
type lineTable struct {
	entries   [Lines]Mapping
	slotOf    [Lines]int // -1 for lines that are not PlaySlot
	lineOf    []int      // slot -> first line bound to it
	powerMask uint32
}

// newLineTable resolves each PlaySlot line to a slot index. A payload naming
// one of slotDirs selects that slot; otherwise the index is the number of
// PlaySlot lines before it.
func newLineTable(m [Lines]Mapping, slotDirs []string) lineTable {
	t := lineTable{entries: m}
	implicit := 0
	maxSlot := -1
	for line, e := range m {
		t.slotOf[line] = -1
		if e.PowerLED {
			t.powerMask |= 1 << line
		}
		if e.Action != ActionPlaySlot {
			continue
		}
		slot := implicit
		if e.Payload != "" {
			if i := slotIndex(slotDirs, e.Payload); i >= 0 {
				slot = i
			}
		}
		implicit++
		t.slotOf[line] = slot
		if slot > maxSlot {
			maxSlot = slot
		}
	}

	t.lineOf = make([]int, maxSlot+1)
	for i := range t.lineOf {
		t.lineOf[i] = -1
	}
	for line, slot := range t.slotOf {
		if slot >= 0 && t.lineOf[slot] < 0 {
			t.lineOf[slot] = line
		}
	}
	return t
}

func slotIndex(dirs []string, payload string) int {
	want := strings.Trim(payload, "/")
	for i, d := range dirs {
		if strings.EqualFold(strings.Trim(d, "/"), want) {
			return i
		}
	}
	return -1
}

// lineForSlot returns the line bound to slot, or -1.
func (t *lineTable) lineForSlot(slot int) int {
	if slot < 0 || slot >= len(t.lineOf) {
		return -1
	}
	return t.lineOf[slot]
}

// slotLines lists the lines bound to slots, in slot order.
func (t *lineTable) slotLines() []int {
	out := make([]int, 0, len(t.lineOf))
	for _, line := range t.lineOf {
		if line >= 0 {
			out = append(out, line)
		}
	}
	return out
}
