package app

import "testing"

func TestParseCommand_EmptyArgs_ReturnsServe(t *testing.T) {
	if got := ParseCommand(nil); got != CommandServe {
		t.Errorf("ParseCommand(nil) = %s, want serve", got)
	}
	if got := ParseCommand([]string{}); got != CommandServe {
		t.Errorf("ParseCommand([]) = %s, want serve", got)
	}
}

func TestParseCommand_KnownCommands(t *testing.T) {
	tests := []struct {
		arg  string
		want Command
	}{
		{"serve", CommandServe},
		{"cleanup", CommandCleanup},
		{"migrate", CommandMigrate},
		{"healthcheck", CommandHealthcheck},
	}

	for _, tt := range tests {
		if got := ParseCommand([]string{tt.arg}); got != tt.want {
			t.Errorf("ParseCommand(%q) = %s, want %s", tt.arg, got, tt.want)
		}
	}
}

func TestParseCommand_UnknownCommand_DefaultsToServe(t *testing.T) {
	if got := ParseCommand([]string{"unknown"}); got != CommandServe {
		t.Errorf("ParseCommand(unknown) = %s, want serve", got)
	}
}

func TestParseCommand_IgnoresExtraArgs(t *testing.T) {
	if got := ParseCommand([]string{"cleanup", "--verbose"}); got != CommandCleanup {
		t.Errorf("ParseCommand with extra args = %s, want cleanup", got)
	}
}
