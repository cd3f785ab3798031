package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/mdp/qrterminal/v3"
)

//本文件下所有命令的输出统一使用 fmt 而不是 log

var (
	interactiveMode bool
	cmdPrintVer     bool
	cmdGenUUID      bool
	cmdQR           string
)

func init() {
	flag.BoolVar(&interactiveMode, "i", false, "interactively generate a config file (written to -c) then exit")
	flag.BoolVar(&cmdPrintVer, "v", false, "print the version string then exit")
	flag.BoolVar(&cmdGenUUID, "gu", false, "automatically generate a uuid for you then exit")
	flag.StringVar(&cmdQR, "qrs", "", "show qrcode in terminal for given string then exit")
}

// runExitCommands 运行那些运行完就退出的命令
func runExitCommands() (atLeastOneCalled bool) {
	if cmdPrintVer {
		atLeastOneCalled = true
		printVersion_simple(os.Stdout)
	}
	if cmdGenUUID {
		atLeastOneCalled = true
		generateAndPrintUUID()
	}
	if cmdQR != "" {
		atLeastOneCalled = true
		printQR(cmdQR)
	}
	return
}

func generateAndPrintUUID() {
	fmt.Printf("New random uuid : %s\n", utils.GenerateUUIDStr())
}

func printQR(str string) {
	qrterminal.GenerateWithConfig(str, qrterminal.Config{ //与直接调用 GenerateHalfBlock 的区别是, 取消了QuiteZone
		HalfBlocks:     true,
		Level:          qrterminal.M,
		Writer:         os.Stdout,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
	})
}
