package plugins

import "testing"

func TestMinXPAtLevel(t *testing.T) {
	if minXPAtLevel(0) != 0 {
		t.Fatalf("minXPAtLevel(0) = %d", minXPAtLevel(0))
	}
	if minXPAtLevel(1) != 100 {
		t.Fatalf("minXPAtLevel(1) = %d, expected 100", minXPAtLevel(1))
	}

	// the curve has to grow strictly
	for level := int64(1); level <= 200; level++ {
		if minXPAtLevel(level) <= minXPAtLevel(level-1) {
			t.Fatalf("minXPAtLevel() is not strictly increasing at level %d", level)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	if levelForXP(0) != 0 {
		t.Fatalf("levelForXP(0) = %d", levelForXP(0))
	}
	if levelForXP(99) != 0 {
		t.Fatalf("levelForXP(99) = %d, one XP short of level 1", levelForXP(99))
	}
	if levelForXP(100) != 1 {
		t.Fatalf("levelForXP(100) = %d, expected 1", levelForXP(100))
	}

	// levelForXP has to invert minXPAtLevel at the boundaries
	for level := int64(1); level <= 100; level++ {
		threshold := minXPAtLevel(level)
		if levelForXP(threshold) != level {
			t.Fatalf("levelForXP(minXPAtLevel(%d)) = %d", level, levelForXP(threshold))
		}
		if levelForXP(threshold-1) != level-1 {
			t.Fatalf("levelForXP(minXPAtLevel(%d)-1) = %d", level, levelForXP(threshold-1))
		}
	}
}

func TestIsCommandMessage(t *testing.T) {
	if !isCommandMessage("?rank", "?") {
		t.Fatal("expected a command invocation to be recognised")
	}
	if isCommandMessage("hello there", "?") {
		t.Fatal("expected a plain message to earn xp")
	}
	// a lone prefix is not a command
	if isCommandMessage("?", "?") {
		t.Fatal("expected a bare prefix to earn xp")
	}
	if isCommandMessage("?rank", "") {
		t.Fatal("expected no matches without a prefix")
	}
}
