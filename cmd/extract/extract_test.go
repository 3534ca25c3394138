package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ABQ_STORAGE", "memory")

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var demoArgs = []string{"--demo", "--codes", "000001", "--start", "2024-01-02", "--end", "2024-01-02"}

func TestSchemaCmd(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 12)
	assert.Equal(t, "open\tfloat64", lines[0])
	assert.Equal(t, "code\tstring", lines[7])
}

func TestSeriesCmd_Raw(t *testing.T) {
	out, err := run(t, append([]string{"series"}, append(demoArgs, "open", "type")...)...)
	require.NoError(t, err)
	assert.Equal(t,
		"open: 10 10.01 10.02 10.03 10.04\n"+
			"type: 1min 1min 1min 1min 1min\n", out)
}

func TestSeriesCmd_Adjusted(t *testing.T) {
	out, err := run(t, append([]string{"series", "--adj", "qfq"}, append(demoArgs, "open")...)...)
	require.NoError(t, err)
	// 0.5 forward ratio before the split, rounded to 2 places
	assert.Equal(t, "open: 5 5.01 5.01 5.02 5.02\n", out)
}

func TestSeriesCmd_UnknownColumn(t *testing.T) {
	out, err := run(t, append([]string{"series"}, append(demoArgs, "bogus")...)...)
	require.NoError(t, err)
	assert.Equal(t, "bogus: \n", out)

	_, err = run(t, append([]string{"series", "--strict"}, append(demoArgs, "bogus")...)...)
	assert.ErrorContains(t, err, "unknown column")
}

func TestDumpCmd(t *testing.T) {
	out, err := run(t, append([]string{"dump"}, demoArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "[open, close, high, low, vol, amount, datetime, code, date, date_stamp, time_stamp, type]")
}

func TestExportCmd(t *testing.T) {
	out, err := run(t, append([]string{"export"}, demoArgs...)...)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 6)

	path := filepath.Join(t.TempDir(), "bars.parquet")
	_, err = run(t, append([]string{"export", "--format", "parquet", "--out", path}, demoArgs...)...)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = run(t, append([]string{"export", "--format", "parquet"}, demoArgs...)...)
	assert.Error(t, err)
}

func TestReportCmd(t *testing.T) {
	out, err := run(t, append([]string{"report", "--format", "csv"}, demoArgs...)...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "code,bars,"))
	assert.Contains(t, out, "000001,5,")
}

func TestInvalidRequest(t *testing.T) {
	_, err := run(t, "series", "--demo", "--start", "2024-01-02", "--end", "2024-01-02", "open")
	assert.ErrorContains(t, err, "invalid request")
}
