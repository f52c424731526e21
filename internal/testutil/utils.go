package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger tagged with the test name. Output goes to
// stdout so that goroutines outliving the test can still log safely.
func TestLogger(t testing.TB) *log.Logger {
	return log.New(os.Stdout, "["+t.Name()+"] ", log.LstdFlags|log.Lmsgprefix)
}
