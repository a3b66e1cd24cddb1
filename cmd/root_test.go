package cmd

import "testing"

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"apply":    false,
		"status":   false,
		"generate": false,
		"plan":     false,
		"validate": false,
		"init":     false,
		"version":  false,
	}

	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestGetVersion(t *testing.T) {
	// Build info is unavailable under `go test` in some environments;
	// the function must still return without panicking.
	_ = getVersion()
}
