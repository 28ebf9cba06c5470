package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain ensures GO_ENV is set to "test" so config tests never pick up a
// development .env file and touch a real database.
func TestMain(m *testing.M) {
	if env := os.Getenv("GO_ENV"); env != "test" {
		fmt.Fprintf(os.Stderr, "refusing to run tests with GO_ENV=%q; use GO_ENV=test go test ./...\n", env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
