/*
Package machine 定义一个 可以直接运行的有限状态机, 它把 launcher 的整个生命周期包装起来.

	Detecting → FetchingInfo → Downloading → Extracting → Configuring → Running → CleaningUp → Terminated

启动阶段严格按顺序执行; Running 之后 Run 阻塞, 直到 ctx 被取消(一般是收到信号)或者子进程自己退出.
Cleanup 可以在任意状态下调用, 只会执行一次.

关键点是不使用任何静态变量，所有变量都放在machine中。
*/
package machine

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/e1732a364fed/xray_launcher/advLayer/ws"
	"github.com/e1732a364fed/xray_launcher/artifact"
	"github.com/e1732a364fed/xray_launcher/configAdapter"
	"github.com/e1732a364fed/xray_launcher/configAdapter/xray"
	"github.com/e1732a364fed/xray_launcher/netLayer"
	"github.com/e1732a364fed/xray_launcher/panel"
	"github.com/e1732a364fed/xray_launcher/utils"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrChildExited = errors.New("xray exited on its own")
	ErrCleanedUp   = errors.New("machine already cleaned up")
)

// NetInfoFetcher never fails; it returns a placeholder label instead.
type NetInfoFetcher interface {
	Fetch(ctx context.Context) string
}

// ArtifactSource provides the xray executable.
type ArtifactSource interface {
	Download(ctx context.Context, dst string) error
	Extract(archive, dst string) error
}

type EdgeProber interface {
	Check(ctx context.Context, domain string) (netLayer.EdgeReport, error)
}

type ReadinessProber interface {
	Run(ctx context.Context) error
}

// Session is the identity a client uses; fixed for the lifetime of M.
type Session struct {
	UUID string
	Path string //以 / 开头
	Name string
}

// Binding is where the listener is reachable.
type Binding struct {
	Domain string
	Port   int
}

type M struct {
	Conf Conf

	// The collaborators below are set up by New from Conf; tests and
	// embedders may replace them before Run.

	Lookup   panel.LookupFunc
	Meta     NetInfoFetcher
	Source   ArtifactSource
	Edge     EdgeProber //nil 表示不检查
	NewProbe func(port int, host, path string) ReadinessProber
	Metrics  MetricsCollector
	Reporter *Reporter

	callbacks

	state   atomic.Int32
	session Session

	infoMu  sync.RWMutex
	env     panel.Env
	binding Binding
	isp     string
	link    string

	cleanupMu sync.Mutex
	cleaned   bool

	// sup is written once under cleanupMu and supMu; readers only need supMu,
	// so they are not held up by a Stop in progress.
	supMu sync.RWMutex
	sup   *Supervisor
}

// New validates conf and builds a machine with production collaborators.
func New(conf Conf) (*M, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	m := &M{
		Conf:    conf,
		Lookup:  os.LookupEnv,
		Metrics: NewNoopMetrics(),
		Reporter: &Reporter{
			LinksPath: conf.LinksPath(),
			QRCode:    conf.App.QRCode,
		},
	}

	m.session = Session{
		UUID: conf.App.UUID,
		Path: "/" + utils.GenerateRandomHex(4),
		Name: conf.App.Name,
	}
	if m.session.UUID == "" {
		m.session.UUID = utils.GenerateUUIDStr()
	}

	client, err := utils.NewHTTPClient(conf.Network.DownloadProxy, 0)
	if err != nil {
		return nil, err
	}
	fetcher := artifact.NewFetcher(artifact.DownloadURL(conf.Xray.ReleaseBase, conf.Xray.Arch), client, conf.DownloadPolicy())
	fetcher.UserAgent = conf.Network.UserAgent
	fetcher.MaxRedirects = conf.Network.MaxRedirects
	fetcher.OnAttempt = func() { m.Metrics.DownloadAttempt() }
	if conf.Network.ShowProgress {
		fetcher.Progress = os.Stdout
	}
	release := artifact.NewRelease(fetcher)
	release.ExecutableName = conf.Xray.ExecutableName
	m.Source = release

	meta := netLayer.NewMetaClient(conf.Network.MetaURL, conf.MetaPolicy())
	meta.OnAttempt = func() { m.Metrics.MetaAttempt() }
	m.Meta = meta

	if conf.App.EdgeCheck {
		m.Edge = netLayer.NewEdgeChecker(conf.Network.Resolver, 0)
	}
	if conf.App.Probe {
		m.NewProbe = func(port int, host, path string) ReadinessProber {
			return ws.NewProbe(port, host, path)
		}
	}
	return m, nil
}

func (m *M) State() State {
	return State(m.state.Load())
}

func (m *M) setState(s State) {
	from := State(m.state.Swap(int32(s)))
	if from == s {
		return
	}
	if ce := utils.CanLogDebug("state changed"); ce != nil {
		ce.Write(zap.Stringer("from", from), zap.Stringer("to", s))
	}
	m.Metrics.StateChanged(s)
	m.callStateCallbacks(from, s)
}

func (m *M) Session() Session { return m.session }

func (m *M) Binding() Binding {
	m.infoMu.RLock()
	defer m.infoMu.RUnlock()
	return m.binding
}

func (m *M) Env() panel.Env {
	m.infoMu.RLock()
	defer m.infoMu.RUnlock()
	return m.env
}

func (m *M) ISP() string {
	m.infoMu.RLock()
	defer m.infoMu.RUnlock()
	return m.isp
}

// Link is the share url, empty before Configuring is done.
func (m *M) Link() string {
	m.infoMu.RLock()
	defer m.infoMu.RUnlock()
	return m.link
}

// Supervisor returns the child handle, nil before Running.
func (m *M) Supervisor() *Supervisor {
	m.supMu.RLock()
	defer m.supMu.RUnlock()
	return m.sup
}

// IsPreconditionErr reports whether err means we are not in a panel
// container; nothing has been created on disk in that case.
func IsPreconditionErr(err error) bool {
	return errors.Is(err, panel.ErrNotDetected) || errors.Is(err, panel.ErrBadPort)
}

// Run performs the startup stages and then blocks until ctx is done, in
// which case it returns nil, or until the child exits, returning
// ErrChildExited. Any startup failure is returned as is; ctx being
// cancelled during startup returns ctx.Err().
func (m *M) Run(ctx context.Context) error {
	m.setState(StateDetecting)
	env, err := panel.Detect(m.Lookup)
	if err != nil {
		return err
	}

	b := Binding{Domain: m.Conf.App.Domain, Port: m.Conf.App.Port}
	if b.Port <= 0 {
		b.Port = env.ServerPort
	}
	m.infoMu.Lock()
	m.env = env
	m.binding = b
	m.infoMu.Unlock()

	m.setState(StateFetchingInfo)
	isp := m.Meta.Fetch(ctx)
	m.infoMu.Lock()
	m.isp = isp
	m.infoMu.Unlock()
	if err = ctx.Err(); err != nil {
		return err
	}

	m.setState(StateDownloading)
	if err = m.Source.Download(ctx, m.Conf.ArchivePath()); err != nil {
		return err
	}

	m.setState(StateExtracting)
	if err = m.Source.Extract(m.Conf.ArchivePath(), m.Conf.BinaryPath()); err != nil {
		return err
	}

	m.setState(StateConfiguring)
	if err = m.configure(ctx, b, isp); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}

	sup, err := m.startChild()
	if err != nil {
		return err
	}
	m.setState(StateRunning)

	if m.NewProbe != nil {
		p := m.NewProbe(b.Port, b.Domain, m.session.Path)
		go func() {
			if err := p.Run(ctx); err != nil && ctx.Err() == nil {
				if ce := utils.CanLogWarn("listener not ready"); ce != nil {
					ce.Write(zap.Error(err))
				}
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case <-sup.Done():
		return ErrChildExited
	}
}

func (m *M) configure(ctx context.Context, b Binding, isp string) error {
	bs, err := xray.Synthesize(xray.ListenerParams{
		UUID:       m.session.UUID,
		Path:       m.session.Path,
		Domain:     b.Domain,
		Port:       b.Port,
		LogLevel:   m.Conf.Xray.LogLevel,
		BufferSize: m.Conf.Xray.BufferSize,
		ConnIdle:   m.Conf.Xray.ConnIdle,
	})
	if err != nil {
		return err
	}
	if err = xray.WriteFile(m.Conf.ConfigPath(), bs); err != nil {
		return utils.ErrInErr{ErrDesc: "write xray config failed", ErrDetail: err, Data: m.Conf.ConfigPath()}
	}
	if ce := utils.CanLogInfo("xray config written"); ce != nil {
		ce.Write(zap.String("path", m.Conf.ConfigPath()), zap.Int("port", b.Port))
	}

	link := configAdapter.ToVlessShareURL(configAdapter.ShareConf{
		UUID:   m.session.UUID,
		Domain: b.Domain,
		Path:   m.session.Path,
		Tag:    m.session.Name + "-" + isp,
	})
	m.infoMu.Lock()
	m.link = link
	m.infoMu.Unlock()

	if err = m.Reporter.WriteLinks(link); err != nil {
		return err
	}

	var edge *netLayer.EdgeReport
	if m.Edge != nil {
		rep, err := m.Edge.Check(ctx, b.Domain)
		if err != nil {
			if ce := utils.CanLogWarn("edge check failed"); ce != nil {
				ce.Write(zap.String("domain", b.Domain), zap.Error(err))
			}
		} else {
			edge = &rep
		}
	}
	m.Reporter.Print(link, b.Domain, b.Port, edge)
	return nil
}

func (m *M) childEnv() (env []string) {
	if v := m.Conf.Xray.GoMemLimit; v != "" {
		env = append(env, "GOMEMLIMIT="+v)
	}
	if v := m.Conf.Xray.GoGC; v != "" {
		env = append(env, "GOGC="+v)
	}
	return
}

// startChild holds the cleanup lock so a child is never started after Cleanup.
func (m *M) startChild() (*Supervisor, error) {
	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()

	if m.cleaned {
		return nil, ErrCleanedUp
	}

	sup := NewSupervisor(m.Conf.BinaryPath(), m.Conf.ConfigPath(), m.childEnv()...)
	sup.OnExit = func(code int, stopping bool) {
		if !stopping {
			m.Metrics.ChildExited(code)
		}
	}
	if err := sup.Start(); err != nil {
		return nil, err
	}
	m.supMu.Lock()
	m.sup = sup
	m.supMu.Unlock()
	return sup, nil
}

// Cleanup stops the child and removes every generated file. Each step is
// attempted even if an earlier one failed; the failures are combined.
// Only the first call does anything.
func (m *M) Cleanup() (err error) {
	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()

	if m.cleaned {
		return nil
	}
	m.cleaned = true
	m.setState(StateCleaningUp)
	utils.Info("Stopping service...")

	fail := func(desc, path string, e error) {
		if ce := utils.CanLogErr(desc); ce != nil {
			ce.Write(zap.String("path", path), zap.Error(e))
		}
		m.Metrics.CleanupFailure()
		err = multierr.Append(err, utils.ErrInErr{ErrDesc: desc, ErrDetail: e, Data: path})
	}

	if m.sup != nil {
		if e := m.sup.Stop(m.Conf.StopGrace()); e != nil {
			fail("stop child failed", m.Conf.BinaryPath(), e)
		}
	}

	for _, p := range []string{m.Conf.ArchivePath(), m.Conf.ConfigPath(), m.Conf.LinksPath()} {
		removed, e := utils.RemoveIfExist(p)
		if e != nil {
			fail("Failed to clean up", p, e)
			continue
		}
		if removed {
			if ce := utils.CanLogInfo("Cleaned up"); ce != nil {
				ce.Write(zap.String("path", p))
			}
		}
	}

	if e := os.RemoveAll(m.Conf.BinDirPath()); e != nil {
		fail("Failed to clean up xray folder", m.Conf.BinDirPath(), e)
	}

	m.setState(StateTerminated)
	return
}
