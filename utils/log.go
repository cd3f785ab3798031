package utils

import (
	"os"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	Log_debug = iota
	Log_info
	Log_warning
	Log_error //error一般用于输出一些 下载失败或者子进程异常退出之类的, 但不致命
	Log_fatal

	DefaultLL = Log_info
)

// LogLevel 值越小越唠叨, 废话越多，值越大打印的越少，见log_开头的常量;
// 默认是 info级别.
var (
	LogLevel       int = DefaultLL
	LogOutFileName string
	ZapLogger      *zap.Logger = zap.NewNop()
)

func LogLevelStr(lvl int) string {
	return zapcore.Level(lvl - 1).String()
}

func newLogEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		TimeKey:     "time",
		FunctionKey: "func",
		EncodeLevel: zapcore.CapitalColorLevelEncoder,
		EncodeTime:  zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000"),
		EncodeName:  zapcore.FullNameEncoder,
		LineEnding:  zapcore.DefaultLineEnding,
	})
}

// InitLog builds ZapLogger from LogLevel and LogOutFileName. The log file, if
// given, is rotated by lumberjack so a long running container never fills its disk.
func InitLog(firstMsg string) {
	//我们的loglevel就是zap的loglevel+1
	atomicLevel := zap.NewAtomicLevel()
	atomicLevel.SetLevel(zapcore.Level(LogLevel - 1))

	writes := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}

	if LogOutFileName != "" {
		writes = append(writes, zapcore.AddSync(&lumberjack.Logger{
			Filename:   LogOutFileName,
			MaxSize:    1, // megabytes
			MaxBackups: 2,
			MaxAge:     7, // days
		}))
	}

	core := zapcore.NewCore(newLogEncoder(), zapcore.NewMultiWriteSyncer(writes...), atomicLevel)

	ZapLogger = zap.New(core)
	if firstMsg != "" {
		ZapLogger.Info(firstMsg)
	}
}

func canLogLevel(l zapcore.Level, msg string) *zapcore.CheckedEntry {
	return ZapLogger.Check(l, msg)
}

func CanLogErr(msg string) *zapcore.CheckedEntry {
	return canLogLevel(zap.ErrorLevel, msg)
}

func CanLogInfo(msg string) *zapcore.CheckedEntry {
	return canLogLevel(zap.InfoLevel, msg)
}

func CanLogWarn(msg string) *zapcore.CheckedEntry {
	return canLogLevel(zap.WarnLevel, msg)
}

func CanLogDebug(msg string) *zapcore.CheckedEntry {
	return canLogLevel(zap.DebugLevel, msg)
}

func Info(msg string) {
	if ce := CanLogInfo(msg); ce != nil {
		ce.Write()
	}
}

