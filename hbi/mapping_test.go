package hbi

import "testing"

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
		err  bool
	}{
		{"", ActionNone, false},
		{"none", ActionNone, false},
		{"play_slot", ActionPlaySlot, false},
		{"PLAY-SLOT", ActionPlaySlot, false},
		{"next", ActionNext, false},
		{"0x06", ActionPrev, false},
		{"4", ActionStop, false},
		{"7", ActionNone, true},
		{"shuffle", ActionNone, true},
	}
	for _, tc := range cases {
		got, err := ParseAction(tc.in)
		if (err != nil) != tc.err {
			t.Fatalf("ParseAction(%q) err = %v, want error %v", tc.in, err, tc.err)
		}
		if got != tc.want {
			t.Fatalf("ParseAction(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if ActionPause.String() != "pause" || Action(42).String() != "action(42)" {
		t.Fatalf("String() = %q, %q", ActionPause, Action(42))
	}
}

func TestLineTableImplicitSlots(t *testing.T) {
	m := DefaultMappings()
	tbl := newLineTable(m, []string{"/PAW01", "/PAW02", "/PAW03", "/PAW04"})

	for line := 0; line < 4; line++ {
		if got := tbl.slotOf[line]; got != line {
			t.Fatalf("slotOf[%d] = %d, want %d", line, got, line)
		}
		if got := tbl.lineForSlot(line); got != line {
			t.Fatalf("lineForSlot(%d) = %d, want %d", line, got, line)
		}
	}
	if tbl.slotOf[20] != -1 {
		t.Fatalf("slotOf[20] = %d, want -1", tbl.slotOf[20])
	}
	if tbl.lineForSlot(4) != -1 || tbl.lineForSlot(-1) != -1 {
		t.Fatal("out of range lineForSlot should be -1")
	}
}

func TestLineTablePayloadAndPowerLED(t *testing.T) {
	var m [Lines]Mapping
	m[2] = Mapping{Action: ActionPlaySlot}
	m[5] = Mapping{Action: ActionPlaySlot, Payload: "PAW03"}
	m[9] = Mapping{Action: ActionPlaySlot, Payload: "/missing"}
	m[12] = Mapping{Action: ActionNone, PowerLED: true}
	m[13] = Mapping{Action: ActionStop, PowerLED: true}

	tbl := newLineTable(m, []string{"/PAW01", "/PAW02", "/PAW03"})

	if tbl.slotOf[2] != 0 {
		t.Fatalf("slotOf[2] = %d, want 0", tbl.slotOf[2])
	}
	if tbl.slotOf[5] != 2 {
		t.Fatalf("slotOf[5] = %d, want 2 from payload", tbl.slotOf[5])
	}
	if tbl.slotOf[9] != 2 {
		t.Fatalf("slotOf[9] = %d, want implicit 2", tbl.slotOf[9])
	}
	if got := tbl.lineForSlot(2); got != 5 {
		t.Fatalf("lineForSlot(2) = %d, want first bound line 5", got)
	}
	if tbl.lineForSlot(1) != -1 {
		t.Fatalf("lineForSlot(1) = %d, want -1", tbl.lineForSlot(1))
	}
	if want := uint32(1<<12 | 1<<13); tbl.powerMask != want {
		t.Fatalf("powerMask = %#x, want %#x", tbl.powerMask, want)
	}
	if lines := tbl.slotLines(); len(lines) != 2 || lines[0] != 2 || lines[1] != 5 {
		t.Fatalf("slotLines() = %v, want [2 5]", lines)
	}
}
