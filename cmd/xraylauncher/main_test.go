package main

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/e1732a364fed/xray_launcher/artifact"
	"github.com/e1732a364fed/xray_launcher/machine"
	"github.com/e1732a364fed/xray_launcher/panel"
	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitStatus(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	live := context.Background()

	notDetected := utils.ErrInErr{ErrDesc: "required variables missing", ErrDetail: panel.ErrNotDetected}
	downloadFailed := utils.ErrInErr{ErrDesc: "download", ErrDetail: artifact.ErrDownloadFailed}

	for _, c := range []struct {
		name    string
		ctx     context.Context
		err     error
		code    int
		cleanup bool
	}{
		{"signal", cancelled, nil, 0, true},
		{"signal during download", cancelled, context.Canceled, 0, true},
		{"signal before detection finished", cancelled, notDetected, 0, true},
		{"child exited", live, machine.ErrChildExited, 0, true},
		{"not in panel", live, notDetected, 1, false},
		{"bad port", live, panel.ErrBadPort, 1, false},
		{"download failed", live, downloadFailed, 1, true},
		{"other", live, errors.New("disk full"), 1, true},
	} {
		t.Run(c.name, func(t *testing.T) {
			code, cleanup := exitStatus(c.ctx, c.err)
			assert.Equal(t, c.code, code)
			assert.Equal(t, c.cleanup, cleanup)
		})
	}
}

// A stop request that arrives before anything was created still ends in a
// clean exit with status 0.
func TestExitStatusSignalBeforeAnything(t *testing.T) {
	conf := machine.DefaultConf()
	conf.App.WorkDir = t.TempDir()
	m, err := machine.New(conf)
	require.NoError(t, err)
	m.Lookup = panel.MapLookup(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runErr := m.Run(ctx)

	code, cleanup := exitStatus(ctx, runErr)
	assert.Equal(t, 0, code)
	require.True(t, cleanup)
	require.NoError(t, m.Cleanup())
	assert.Equal(t, machine.StateTerminated, m.State())

	entries, err := os.ReadDir(conf.App.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
