// Package guard switches the binaries into test mode when imported for its
// side effects.
package guard

import (
	"os"
	"sync"
)

// TestModeEnv is the variable checked by app.InTestMode.
const TestModeEnv = "CINECONNECT_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(TestModeEnv) == "" {
			_ = os.Setenv(TestModeEnv, "1")
		}
	})
}
