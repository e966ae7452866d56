package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/assetvariant/internal/diag"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "assetvariant", cmd.Use)
	assert.Contains(t, cmd.Long, "persist only the fields they override")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"init", "scan", "create", "show", "set", "revert", "overrides", "diff", "import", "watch", "test"}

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

	dirFlag := cmd.PersistentFlags().Lookup("dir")
	require.NotNil(t, dirFlag)
	assert.Equal(t, "C", dirFlag.Shorthand)
	assert.Equal(t, ".", dirFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
}

func TestCreateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	createCmd, _, err := cmd.Find([]string{"create"})
	require.NoError(t, err)

	typeFlag := createCmd.Flags().Lookup("type")
	require.NotNil(t, typeFlag)
	assert.Equal(t, "", typeFlag.DefValue)
}

func TestDiffCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	diffCmd, _, err := cmd.Find([]string{"diff"})
	require.NoError(t, err)

	linesFlag := diffCmd.Flags().Lookup("lines")
	require.NotNil(t, linesFlag)
	assert.Equal(t, "false", linesFlag.DefValue)
}

func TestImportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	importCmd, _, err := cmd.Find([]string{"import"})
	require.NoError(t, err)

	require.NotNil(t, importCmd.Flags().Lookup("history"))
}

func TestWatchCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	watchCmd, _, err := cmd.Find([]string{"watch"})
	require.NoError(t, err)

	debounceFlag := watchCmd.Flags().Lookup("debounce")
	require.NotNil(t, debounceFlag)
	assert.Equal(t, "0s", debounceFlag.DefValue)
}

func TestTestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	testCmd, _, err := cmd.Find([]string{"test"})
	require.NoError(t, err)

	updateFlag := testCmd.Flags().Lookup("update")
	require.NotNil(t, updateFlag)
	assert.Equal(t, "false", updateFlag.DefValue)

	filterFlag := testCmd.Flags().Lookup("filter")
	require.NotNil(t, filterFlag)
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
	cmd.SetArgs([]string{"--format", "invalid", "scan"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestExecuteReportsErrorsOnStderr(t *testing.T) {
	dir := t.TempDir()
	require.Equal(t, ExitSuccess, Execute(context.Background(), []string{"init", dir}, &bytes.Buffer{}, &bytes.Buffer{}))

	t.Run("text", func(t *testing.T) {
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		code := Execute(context.Background(), []string{"-C", dir, "--no-color", "show", "nope"}, stdout, stderr)
		assert.Equal(t, ExitCommandError, code)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Error ["+ErrCodeNotFound+"]: asset not found: nope")
	})

	t.Run("json", func(t *testing.T) {
		stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
		code := Execute(context.Background(), []string{"-C", dir, "--format", "json", "show", "nope"}, stdout, stderr)
		assert.Equal(t, ExitCommandError, code)

		var resp CLIResponse
		require.NoError(t, json.Unmarshal(stderr.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("success", func(t *testing.T) {
		stdout := &bytes.Buffer{}
		code := Execute(context.Background(), []string{"-C", dir, "scan"}, stdout, &bytes.Buffer{})
		assert.Equal(t, ExitSuccess, code)
		assert.Contains(t, stdout.String(), "Indexed 0 assets and 0 variants")
	})
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeGeneric, ErrorCode(errors.New("plain")))
	assert.Equal(t, ErrCodeBadValue, ErrorCode(NewExitError(ExitCommandError, "x").WithCode(ErrCodeBadValue)))
	assert.Equal(t, string(diag.CodeUnresolvedOrigin),
		ErrorCode(WrapExitError(ExitFailure, "x", diag.Unresolved("g-1", "origin missing", nil))))
}
