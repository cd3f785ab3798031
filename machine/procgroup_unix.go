//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package machine

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// 子进程单独成组, 这样 xray 若再派生进程也会被一起结束
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func signalGroup(p *os.Process, sig unix.Signal) error {
	err := unix.Kill(-p.Pid, sig)
	if err == unix.ESRCH {
		return nil
	}
	return err
}

func terminate(p *os.Process) error { return signalGroup(p, unix.SIGTERM) }
func kill(p *os.Process) error      { return signalGroup(p, unix.SIGKILL) }
