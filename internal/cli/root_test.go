package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "crmsync", cmd.Use)
	assert.Contains(t, cmd.Long, "master")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"sync", "import-contacts", "consolidate", "audiences", "remarketing", "report", "job"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
}

func TestAudiencesCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	audCmd, _, err := cmd.Find([]string{"audiences"})
	require.NoError(t, err)

	exportFlag := audCmd.Flags().Lookup("export")
	require.NotNil(t, exportFlag)
	assert.Equal(t, "false", exportFlag.DefValue)
}

func TestRemarketingCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	rmCmd, _, err := cmd.Find([]string{"remarketing"})
	require.NoError(t, err)

	limitFlag := rmCmd.Flags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "0", limitFlag.DefValue)
}

func TestImportContactsCommandArgs(t *testing.T) {
	cmd := NewRootCommand()
	impCmd, _, err := cmd.Find([]string{"import-contacts"})
	require.NoError(t, err)
	require.NotNil(t, impCmd.Args, "import-contacts requires a path argument")
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetArgs([]string{"--format", "invalid", "report"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
