package testing

import (
	"os"
	"path/filepath"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("CINECONNECT_TEST_MODE", "1")
		if os.Getenv("REPORT_STORAGE_DIR") == "" {
			_ = os.Setenv("REPORT_STORAGE_DIR", filepath.Join(os.TempDir(), "cineconnect-test-reports"))
		}
	})
}

func init() {
	ensureTestMode()
}

// TestMain runs m with the binaries in test mode.
func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
