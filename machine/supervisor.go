package machine

import (
	"bufio"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/e1732a364fed/xray_launcher/utils"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

var (
	ErrAlreadyStarted = errors.New("child already started")
	ErrStopTimeout    = errors.New("child did not exit after SIGKILL")
)

const stderrChunk = 64 << 10

// Supervisor runs one child process in its own process group and relays
// its stderr to the log. There is no restart.
type Supervisor struct {
	Bin    string
	Params []string //不含 Bin 本身
	Env    []string //附加在 os.Environ() 之后
	Dir    string

	// OnExit is called once, after the child has been reaped. stopping
	// reports whether Stop had been called before the exit.
	OnExit func(code int, stopping bool)

	mu       sync.Mutex
	cmd      *exec.Cmd
	done     chan struct{}
	exitCode int
	stopping atomic.Bool
}

// NewSupervisor prepares `bin run -config configPath`.
func NewSupervisor(bin, configPath string, env ...string) *Supervisor {
	return &Supervisor{
		Bin:    bin,
		Params: []string{"run", "-config", configPath},
		Env:    env,
		done:   make(chan struct{}),
	}
}

// Args is the full argv of the child, Bin first.
func (s *Supervisor) Args() []string {
	return append([]string{s.Bin}, s.Params...)
}

func (s *Supervisor) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return ErrAlreadyStarted
	}
	if s.done == nil {
		s.done = make(chan struct{})
	}

	cmd := exec.Command(s.Bin, s.Params...)
	cmd.Env = append(os.Environ(), s.Env...)
	cmd.Dir = s.Dir
	setProcessGroup(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return err
	}
	if err = cmd.Start(); err != nil {
		return utils.ErrInErr{ErrDesc: "start child failed", ErrDetail: err, Data: s.Bin}
	}
	s.cmd = cmd

	if ce := utils.CanLogInfo("child started"); ce != nil {
		ce.Write(zap.Int("pid", cmd.Process.Pid), zap.Strings("args", s.Args()))
	}

	go s.wait(stderr)
	return nil
}

// wait relays stderr until EOF and only then reaps the child, as
// exec.Cmd.Wait closes the pipe. Lines longer than stderrChunk are relayed
// in pieces, each but the last marked partial.
func (s *Supervisor) wait(stderr io.Reader) {
	br := bufio.NewReaderSize(stderr, stderrChunk)
	for {
		line, partial, err := br.ReadLine()
		if err != nil {
			if err != io.EOF {
				if ce := utils.CanLogWarn("xray stderr relay failed"); ce != nil {
					ce.Write(zap.Error(err))
				}
				io.Copy(io.Discard, stderr)
			}
			break
		}
		if ce := utils.CanLogWarn("xray stderr"); ce != nil {
			if partial {
				ce.Write(zap.String("line", string(line)), zap.Bool("partial", true))
			} else {
				ce.Write(zap.String("line", string(line)))
			}
		}
	}

	err := s.cmd.Wait()
	code := s.cmd.ProcessState.ExitCode()
	stopping := s.stopping.Load()

	switch {
	case stopping:
		if ce := utils.CanLogInfo("child stopped"); ce != nil {
			ce.Write(zap.Int("code", code))
		}
	case code != 0:
		if ce := utils.CanLogErr("xray process exited"); ce != nil {
			ce.Write(zap.Int("code", code), zap.Error(err))
		}
	default:
		utils.Info("xray process exited with code 0")
	}

	s.mu.Lock()
	s.exitCode = code
	s.mu.Unlock()

	if s.OnExit != nil {
		s.OnExit(code, stopping)
	}
	close(s.done)
}

// Done is closed after the child exited. Never closed if Start was not
// called or failed.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		s.done = make(chan struct{})
	}
	return s.done
}

// ExitCode is valid after Done is closed; -1 means killed by a signal.
func (s *Supervisor) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

func (s *Supervisor) Running() bool {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Stop sends SIGTERM to the child's process group, and SIGKILL if it is
// still alive after grace. A never started or already exited child is a no-op.
func (s *Supervisor) Stop(grace time.Duration) error {
	if !s.Running() {
		return nil
	}
	s.stopping.Store(true)
	p := s.cmd.Process

	if err := terminate(p); err != nil {
		if ce := utils.CanLogWarn("SIGTERM child failed"); ce != nil {
			ce.Write(zap.Error(err))
		}
	}

	t := time.NewTimer(grace)
	select {
	case <-s.done:
		t.Stop()
		return nil
	case <-t.C:
	}

	if ce := utils.CanLogWarn("child ignored SIGTERM, killing"); ce != nil {
		ce.Write(zap.Int("pid", p.Pid), zap.Duration("grace", grace))
	}
	if err := kill(p); err != nil {
		return utils.ErrInErr{ErrDesc: "SIGKILL child failed", ErrDetail: err}
	}

	t.Reset(DefaultStopGrace)
	select {
	case <-s.done:
		t.Stop()
		return nil
	case <-t.C:
		return ErrStopTimeout
	}
}
