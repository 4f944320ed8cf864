package cli

import (
	"os"
	"testing"
)

func TestExecute_Help(t *testing.T) {
	tempDir := t.TempDir()
	old, _ := os.Getwd()
	defer func() { _ = os.Chdir(old) }()
	_ = os.Chdir(tempDir)

	os.Args = []string{"missionforge", "--help"}
	if err := Execute(); err != nil {
		t.Errorf("Execute failed: %v", err)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	if RootCmd.Flags().Lookup("host") == nil {
		t.Error("missing --host flag")
	}
	if RootCmd.Flags().Lookup("port") == nil {
		t.Error("missing --port flag")
	}
	if RootCmd.HasSubCommands() {
		t.Error("the editor binary should not grow subcommands")
	}
}
