package xray_launcher

var Version string = "[version_undefined]" //版本号可由 -ldflags "-X 'github.com/e1732a364fed/xray_launcher.Version=v1.x.x'" 指定
