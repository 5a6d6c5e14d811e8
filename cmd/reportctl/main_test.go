package main

import (
	"bytes"
	"strings"
	"testing"

	"dwhreports/internal/reports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	out, err := execute("list")
	require.NoError(t, err)

	names := strings.Fields(out)
	assert.Len(t, names, 13)
	assert.Equal(t, reports.TotalOrders, names[0])
	assert.Contains(t, names, reports.WorstRoutes)
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	_, err := execute("run", reports.PeakHours, "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}

func TestRunRequiresReportName(t *testing.T) {
	_, err := execute("run")
	assert.Error(t, err)
}
