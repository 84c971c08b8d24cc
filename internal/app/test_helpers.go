package app

import (
	"io"
	"os"
	"testing"

	"github.com/specialistvlad/taskloop/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Its log output
// is captured and dumped when TASKLOOP_TEST_LOGS=true.
func SetupAppTest(t *testing.T, cfg *Config, inR io.Reader, modules ...Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"
	testApp := NewApp(logBuffer, inR, cfg, modules...)

	t.Cleanup(func() {
		if os.Getenv("TASKLOOP_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
