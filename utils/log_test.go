package utils

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestZaplog(t *testing.T) {
	defer func(ll int, lf string) {
		LogLevel, LogOutFileName = ll, lf
		ZapLogger = zap.NewNop()
	}(LogLevel, LogOutFileName)

	LogLevel = Log_info
	LogOutFileName = filepath.Join(t.TempDir(), "launcher.log")
	InitLog("test started")

	require.Nil(t, CanLogDebug("test1"))

	if ce := CanLogInfo("test2"); ce != nil {
		ce.Write(
			zap.Uint32("uid", 32),
			zap.Error(errors.New("asdfdsf")),
		)
	} else {
		t.Fatal("info should be enabled at Log_info")
	}
	require.FileExists(t, LogOutFileName)
}

func TestLogLevelStr(t *testing.T) {
	require.Equal(t, "debug", LogLevelStr(Log_debug))
	require.Equal(t, "error", LogLevelStr(Log_error))
}
