//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package machine

import (
	"os"
	"os/exec"
)

func setProcessGroup(*exec.Cmd) {}

// no SIGTERM here, so terminate is a hard kill too
func terminate(p *os.Process) error { return p.Kill() }
func kill(p *os.Process) error      { return p.Kill() }
