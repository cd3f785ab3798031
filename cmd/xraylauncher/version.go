/*
Package main 是 launcher 的入口: 读取配置, 在翼龙面板容器中下载并运行 xray, 收到信号后清理所有生成的文件.

命令行参数请使用 --help / -h 查看详情，配置文件示例请参考 ../../examples/ .
*/
package main

import (
	"fmt"
	"io"
	"runtime"

	xl "github.com/e1732a364fed/xray_launcher"
)

const (
	desc      = "Download, configure and supervise xray inside a Pterodactyl panel container\n"
	delimiter = "===============================\n"
)

func versionStr() string {
	return fmt.Sprintf("xraylauncher %s, %s %s %s\n", xl.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func printVersion_simple(w io.StringWriter) {
	w.WriteString(versionStr())
}

func printVersion(w io.StringWriter) {
	w.WriteString(delimiter)
	printVersion_simple(w)
	w.WriteString(delimiter)
	w.WriteString(desc)
	w.WriteString(delimiter)
}
