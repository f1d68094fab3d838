package synth

import (
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	for _, s := range []string{"sine", "square", "triangle", "saw", "noise", "fm"} {
		a, err := ParseAlgorithm(s)
		if err != nil {
			t.Errorf("ParseAlgorithm(%q): %v", s, err)
			continue
		}
		if a.String() != s {
			t.Errorf("ParseAlgorithm(%q).String() = %q", s, a.String())
		}
	}
	if _, err := ParseAlgorithm("theremin"); err == nil {
		t.Error("ParseAlgorithm(theremin): expected error")
	}
}

func TestRenderSquare(t *testing.T) {
	var e Engine
	// One period of a square at 441 Hz is 100 samples; default duty is 0.5.
	buf, rate, err := e.Render(Params{Algorithm: Square}, 441, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rate != NativeRate {
		t.Errorf("rate = %d, want %d", rate, NativeRate)
	}
	if len(buf) != 100 {
		t.Fatalf("len = %d, want 100", len(buf))
	}
	for i := 0; i < 50; i++ {
		if buf[i] != 1 {
			t.Fatalf("sample %d = %v, want 1 (high half)", i, buf[i])
		}
	}
	for i := 50; i < 100; i++ {
		if buf[i] != -1 {
			t.Fatalf("sample %d = %v, want -1 (low half)", i, buf[i])
		}
	}
}

func TestRenderDuration(t *testing.T) {
	var e Engine
	buf, _, err := e.Render(Params{Algorithm: Sine, Duration: 0.5}, 440, 0)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(buf) != NativeRate/2 {
		t.Errorf("len = %d, want %d", len(buf), NativeRate/2)
	}
}

func TestRenderRange(t *testing.T) {
	var e Engine
	for _, a := range []Algorithm{Sine, Square, Triangle, Saw, Noise, FM} {
		buf, _, err := e.Render(Params{Algorithm: a, Duration: 0.01}, 440, 7)
		if err != nil {
			t.Fatalf("Render(%s): %v", a, err)
		}
		for i, s := range buf {
			if s < -1 || s > 1 {
				t.Fatalf("%s sample %d = %v, outside -1..1", a, i, s)
			}
		}
	}
}

func TestRenderNoiseSeeded(t *testing.T) {
	var e Engine
	p := Params{Algorithm: Noise, Duration: 0.01}

	a, _, err := e.Render(p, 440, 12345)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, _, err := e.Render(p, 440, 12345)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs between identical seeds", i)
		}
	}

	c, _, err := e.Render(p, 440, 54321)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical noise")
	}
}

func TestRenderInvalidFreq(t *testing.T) {
	var e Engine
	if _, _, err := e.Render(Params{Algorithm: Sine}, 0, 0); err == nil {
		t.Error("Render(freq 0): expected error")
	}
}
