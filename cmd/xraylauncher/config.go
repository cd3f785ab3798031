package main

import (
	"flag"

	"github.com/e1732a364fed/xray_launcher/machine"
	"github.com/e1732a364fed/xray_launcher/panel"
	"github.com/e1732a364fed/xray_launcher/utils"
)

// 这些命令行参数与 [app] 中同名的项对应; 给出了的参数优先于环境变量和配置文件
var (
	flagDomain  string
	flagUUID    string
	flagPort    int
	flagName    string
	flagWorkDir string

	flagQR    bool
	flagEdge  bool
	flagProbe bool
)

func init() {
	flag.StringVar(&flagDomain, "domain", machine.DefaultDomain, "domain the CDN serves, used as ws Host and tls sni")
	flag.StringVar(&flagUUID, "uuid", "", "vless uuid, random if empty")
	flag.IntVar(&flagPort, "port", 0, "listen port, SERVER_PORT if 0")
	flag.StringVar(&flagName, "name", machine.DefaultName, "node name prefix shown in clients")
	flag.StringVar(&flagWorkDir, "wd", "", "directory for the downloaded and generated files")

	flag.BoolVar(&flagQR, "qr", false, "print the share link as a qr code")
	flag.BoolVar(&flagEdge, "edge", false, "check that the domain resolves into the cloudflare edge")
	flag.BoolVar(&flagProbe, "probe", true, "probe the local ws listener after xray started")
}

// loadConf layers defaults, the toml file, XL_* env and the given flags, in
// that order. A missing file is fine unless -c was given explicitly.
func loadConf(fn string, lookup panel.LookupFunc) (conf machine.Conf, err error) {
	conf = machine.DefaultConf()

	if fn != "" && utils.FileExist(fn) {
		conf, err = machine.LoadConfFile(fn)
		if err != nil {
			return conf, utils.ErrInErr{ErrDesc: "parse config file failed", ErrDetail: err, Data: fn}
		}
	} else if utils.IsFlagGiven("c") {
		return conf, utils.ErrInErr{ErrDesc: "-c provided but file doesn't exist", ErrDetail: utils.ErrWrongParameter, Data: fn}
	}

	applyLogConf(conf.App)

	if err = conf.ApplyEnv(lookup); err != nil {
		return
	}
	applyFlags(&conf)
	return
}

func applyLogConf(ac machine.AppConf) {
	if ac.LogFile != nil && !utils.IsFlagGiven("lf") {
		utils.LogOutFileName = *ac.LogFile
	}
	if ac.LogLevel != nil && !utils.IsFlagGiven("ll") {
		utils.LogLevel = *ac.LogLevel
	}
}

func applyFlags(conf *machine.Conf) {
	app := &conf.App
	enableMetrics := func() {
		conf.ApiServer.Enable = true
		conf.ApiServer.Addr = metricsAddr
	}
	for name, apply := range map[string]func(){
		"domain":  func() { app.Domain = flagDomain },
		"uuid":    func() { app.UUID = flagUUID },
		"port":    func() { app.Port = flagPort },
		"name":    func() { app.Name = flagName },
		"wd":      func() { app.WorkDir = flagWorkDir },
		"qr":      func() { app.QRCode = flagQR },
		"edge":    func() { app.EdgeCheck = flagEdge },
		"probe":   func() { app.Probe = flagProbe },
		"metrics": enableMetrics,
	} {
		if utils.IsFlagGiven(name) {
			apply()
		}
	}
}
