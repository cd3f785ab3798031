package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"runtime/debug"

	"github.com/e1732a364fed/xray_launcher/machine"
	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

var (
	configFileName string
	startMProf     bool
	metricsAddr    string
)

const (
	defaultConfFn = "launcher.toml"

	notDetectedStr = "Pterodactyl environment not detected, exiting."
	failedStartStr = "Failed to start the service."
)

func init() {
	flag.StringVar(&configFileName, "c", defaultConfFn, "config file name")
	flag.BoolVar(&startMProf, "mp", false, "memory pprof")
	flag.StringVar(&metricsAddr, "metrics", "", "if given, serve /metrics and /api/state on this address")

	flag.IntVar(&utils.LogLevel, "ll", utils.DefaultLL, "log level,0=debug, 1=info, 2=warning, 3=error, 4=fatal")
	flag.StringVar(&utils.LogOutFileName, "lf", "", "output file for log; If empty, no log file will be used.")
}

func main() {
	os.Exit(mainFunc())
}

func mainFunc() (result int) {
	var m *machine.M

	defer func() {
		if r := recover(); r != nil {
			stackStr := string(debug.Stack())
			if ce := utils.CanLogErr("Captured panic!"); ce != nil {
				ce.Write(
					zap.Any("err:", r),
					zap.String("stacktrace", stackStr),
				)
			}
			log.Println(stackStr) //zap 会转义多行字符串里的换行符, 所以单独打印一次

			if m != nil {
				m.Cleanup()
			}
			result = 1
		}
	}()

	utils.ParseFlags()

	if runExitCommands() {
		return
	}
	printVersion(os.Stdout)

	if interactiveMode {
		if err := interactivelyGenerateConf(configFileName); err != nil {
			log.Println("generate config failed:", err)
			return 1
		}
		return
	}

	if startMProf {
		//若不使用 NoShutdownHook, 则 我们ctrl+c退出时不会产生 pprof文件
		p := profile.Start(profile.MemProfile, profile.MemProfileRate(1), profile.NoShutdownHook)
		defer p.Stop()
	}

	conf, loadConfErr := loadConf(configFileName, os.LookupEnv)

	utils.InitLog("Program started")
	defer utils.Info("Program exited")

	if ce := utils.CanLogDebug("All Given Flags"); ce != nil {
		ce.Write(zap.Any("flags", utils.GivenFlagKVs()))
	}

	if loadConfErr != nil {
		if ce := utils.CanLogErr("load config failed"); ce != nil {
			ce.Write(zap.Error(loadConfErr))
		}
		return 1
	}

	var err error
	m, err = machine.New(conf)
	if err != nil {
		if ce := utils.CanLogErr("invalid config"); ce != nil {
			ce.Write(zap.Error(err))
		}
		return 1
	}
	if ce := utils.CanLogInfo("Options"); ce != nil {
		ce.Write(
			zap.String("Log Level", utils.LogLevelStr(utils.LogLevel)),
			zap.Stringer("conf", conf),
		)
	}

	if conf.ApiServer.Enable {
		pm := machine.NewPrometheusMetrics("")
		m.Metrics = pm
		srv, err := m.TryRunApiServer(pm.Registry)
		if err != nil {
			if ce := utils.CanLogWarn("api server not started"); ce != nil {
				ce.Write(zap.Error(err))
			}
		} else {
			defer srv.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	osSignals := utils.GetSystemKillChan()
	go func() {
		select {
		case <-osSignals:
			utils.Info("Program got close signal.")
			cancel()
		case <-ctx.Done():
		}
	}()

	err = m.Run(ctx)

	result, cleanup := exitStatus(ctx, err)
	switch {
	case !cleanup:
		if ce := utils.CanLogErr(notDetectedStr); ce != nil {
			ce.Write(zap.Error(err))
		}
	case result != 0:
		if ce := utils.CanLogErr(failedStartStr); ce != nil {
			ce.Write(zap.Error(err), zap.Stringer("state", m.State()))
		}
	}

	if cleanup {
		if err := m.Cleanup(); err != nil {
			if ce := utils.CanLogWarn("cleanup incomplete"); ce != nil {
				ce.Write(zap.Error(err))
			}
		}
	}
	return
}

// exitStatus maps what Run returned to the process exit code, and tells
// whether the generated files must be removed. A stop request (ctx done) or
// the child exiting by itself is a normal shutdown. Outside a panel container
// nothing was created and the work dir may hold files that are not ours.
func exitStatus(ctx context.Context, err error) (code int, cleanup bool) {
	switch {
	case ctx.Err() != nil, err == nil, errors.Is(err, machine.ErrChildExited):
		return 0, true
	case machine.IsPreconditionErr(err):
		return 1, false
	default:
		return 1, true
	}
}
