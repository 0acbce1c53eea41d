package scan

import "testing"

func TestDebounceAgreementRearmsLatch(t *testing.T) {
	active, latch, transitioned := debounce(false, false, 1, 4)
	if transitioned {
		t.Error("agreeing sample must not transition")
	}
	if active {
		t.Error("active changed on agreeing sample")
	}
	if latch != 4 {
		t.Errorf("latch: got %d, want rearmed to 4", latch)
	}
}

func TestDebounceDisagreementBurnsLatch(t *testing.T) {
	active, latch, transitioned := debounce(true, false, 3, 3)
	if transitioned {
		t.Error("must not transition while latch > 0")
	}
	if active {
		t.Error("active changed while latch > 0")
	}
	if latch != 2 {
		t.Errorf("latch: got %d, want 2", latch)
	}
}

func TestDebounceConfirmsWhenLatchSpent(t *testing.T) {
	active, latch, transitioned := debounce(true, false, 0, 3)
	if !transitioned {
		t.Fatal("expected transition with spent latch")
	}
	if !active {
		t.Error("active: got false, want true")
	}
	if latch != 3 {
		t.Errorf("latch: got %d, want rearmed to 3", latch)
	}
}

// A flip with threshold T needs T+1 consecutive disagreeing samples.
func TestDebounceConsecutiveSampleCount(t *testing.T) {
	const threshold = 5

	active := false
	latch := uint8(threshold)

	for i := 0; i < threshold; i++ {
		var transitioned bool
		active, latch, transitioned = debounce(true, active, latch, threshold)
		if transitioned {
			t.Fatalf("sample %d: transitioned early", i+1)
		}
	}

	active, latch, transitioned := debounce(true, active, latch, threshold)
	if !transitioned {
		t.Fatalf("sample %d: expected transition", threshold+1)
	}
	if !active {
		t.Error("active: got false, want true")
	}
	if latch != threshold {
		t.Errorf("latch after confirm: got %d, want %d", latch, threshold)
	}
}

// A single agreeing sample anywhere in the run restarts the count.
func TestDebounceGlitchRestartsCount(t *testing.T) {
	const threshold = 3

	active := false
	latch := uint8(threshold)

	// Two disagreeing samples, then one agreeing one.
	active, latch, _ = debounce(true, active, latch, threshold)
	active, latch, _ = debounce(true, active, latch, threshold)
	active, latch, _ = debounce(false, active, latch, threshold)

	if latch != threshold {
		t.Fatalf("latch after glitch: got %d, want %d", latch, threshold)
	}

	// The full run is needed again.
	for i := 0; i < threshold; i++ {
		var transitioned bool
		active, latch, transitioned = debounce(true, active, latch, threshold)
		if transitioned {
			t.Fatalf("sample %d after glitch: transitioned early", i+1)
		}
	}
	if _, _, transitioned := debounce(true, active, latch, threshold); !transitioned {
		t.Error("expected transition after full run of disagreeing samples")
	}
}
