package lifecycle

import "testing"

func TestShuttingDownFlag(t *testing.T) {
	t.Cleanup(func() { SetShuttingDown(false) })

	if IsShuttingDown() {
		t.Fatal("IsShuttingDown() = true before SetShuttingDown")
	}

	SetShuttingDown(true)
	if !IsShuttingDown() {
		t.Fatal("IsShuttingDown() = false after SetShuttingDown(true)")
	}

	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Fatal("IsShuttingDown() = true after SetShuttingDown(false)")
	}
}
