package note

import (
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"C0", 0},
		{"C4", 48},
		{"C#4", 49},
		{"Db4", 49},
		{"A4", 57},
		{"B7", 95},
		{"B9", 119},
		{"bb5", 70}, // lowercase letter, flat
	}
	for _, c := range cases {
		got, err := Parse(c.name)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.name, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, name := range []string{"", "C", "H4", "C#", "C##4", "Cx", "C-1"} {
		if _, err := Parse(name); err == nil {
			t.Errorf("Parse(%q): expected error", name)
		}
	}
}

// Every semitone must survive a format/parse round trip unchanged.
func TestFormatParseRoundTrip(t *testing.T) {
	for n := 0; n <= 119; n++ {
		name := Format(n)
		got, err := Parse(name)
		if err != nil {
			t.Fatalf("Parse(Format(%d) = %q): %v", n, name, err)
		}
		if got != n {
			t.Errorf("Parse(Format(%d) = %q) = %d", n, name, got)
		}
	}
}

func TestXMCodes(t *testing.T) {
	code, err := ToXM("C4")
	if err != nil {
		t.Fatalf("ToXM(C4): %v", err)
	}
	if code != 49 {
		t.Errorf("ToXM(C4) = %d, want 49", code)
	}

	// C0 is the lowest XM note, B7 the highest.
	if code, _ := ToXM("C0"); code != 1 {
		t.Errorf("ToXM(C0) = %d, want 1", code)
	}
	if code, _ := ToXM("B7"); code != 96 {
		t.Errorf("ToXM(B7) = %d, want 96", code)
	}
	if _, err := ToXM("C8"); err == nil {
		t.Error("ToXM(C8): expected range error")
	}

	name, err := FromXM(49)
	if err != nil {
		t.Fatalf("FromXM(49): %v", err)
	}
	if name != "C4" {
		t.Errorf("FromXM(49) = %q, want C4", name)
	}
	if _, err := FromXM(0); err == nil {
		t.Error("FromXM(0): expected range error")
	}
	if _, err := FromXM(97); err == nil {
		t.Error("FromXM(97): expected range error")
	}
}

func TestITCodes(t *testing.T) {
	code, err := ToIT("C4")
	if err != nil {
		t.Fatalf("ToIT(C4): %v", err)
	}
	if code != 48 {
		t.Errorf("ToIT(C4) = %d, want 48", code)
	}
	if code, _ := ToIT("B9"); code != 119 {
		t.Errorf("ToIT(B9) = %d, want 119", code)
	}

	name, err := FromIT(60)
	if err != nil {
		t.Fatalf("FromIT(60): %v", err)
	}
	if name != "C5" {
		t.Errorf("FromIT(60) = %q, want C5", name)
	}
	if _, err := FromIT(120); err == nil {
		t.Error("FromIT(120): expected range error")
	}
}

func TestFrequency(t *testing.T) {
	if f := Frequency(57); f != 440.0 {
		t.Errorf("Frequency(A4) = %v, want 440", f)
	}
	// Octave shifts are exact doublings.
	if f := Frequency(57 + 12); f != 880.0 {
		t.Errorf("Frequency(A5) = %v, want 880", f)
	}
	if f := Frequency(57 - 12); f != 220.0 {
		t.Errorf("Frequency(A3) = %v, want 220", f)
	}
	f, err := FrequencyOf("A4")
	if err != nil {
		t.Fatalf("FrequencyOf(A4): %v", err)
	}
	if f != 440.0 {
		t.Errorf("FrequencyOf(A4) = %v, want 440", f)
	}
}
