package machine

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

/*
curl http://127.0.0.1:48345/api/state
curl http://127.0.0.1:48345/metrics
*/

const (
	DefaultApiServerAddr = "127.0.0.1:48345"
	DefaultApiPathPrefix = "/api"
)

type ApiServerConf struct {
	Enable     bool   `toml:"enable"`
	Addr       string `toml:"addr"`
	PathPrefix string `toml:"prefix"`
	AdminPass  string `toml:"admin_pass"` //为空则不验证
}

// StateReport is what /api/state returns.
type StateReport struct {
	State  string `json:"state"`
	Domain string `json:"domain,omitempty"`
	Port   int    `json:"port,omitempty"`
	ISP    string `json:"isp,omitempty"`
	Link   string `json:"link,omitempty"`

	ChildRunning bool `json:"child_running"`
}

func (m *M) Report() StateReport {
	b := m.Binding()
	sup := m.Supervisor()
	return StateReport{
		State:        m.State().String(),
		Domain:       b.Domain,
		Port:         b.Port,
		ISP:          m.ISP(),
		Link:         m.Link(),
		ChildRunning: sup != nil && sup.Running(),
	}
}

// ApiHandler serves the state under PathPrefix and, when gatherer is not
// nil, prometheus metrics on /metrics.
func (m *M) ApiHandler(gatherer prometheus.Gatherer) http.Handler {
	asc := m.Conf.ApiServer
	prefix := asc.PathPrefix
	if prefix == "" {
		prefix = DefaultApiPathPrefix
	}
	ser := newApiServer("admin", asc.AdminPass)
	ser.PathPrefix = strings.TrimSuffix(prefix, "/")

	mux := http.NewServeMux()

	ser.addServerHandle(mux, "state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(m.Report())
	})

	if gatherer != nil {
		mux.Handle("/metrics", ser.basicAuth(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP))
	}
	return mux
}

// TryRunApiServer 非阻塞地在 Conf.ApiServer.Addr 上运行; 返回的 server 由调用者 Close.
func (m *M) TryRunApiServer(gatherer prometheus.Gatherer) (*http.Server, error) {
	addr := m.Conf.ApiServer.Addr
	if addr == "" {
		addr = DefaultApiServerAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, utils.ErrInErr{ErrDesc: "api server listen failed", ErrDetail: err, Data: addr}
	}

	srv := &http.Server{
		Handler:      m.ApiHandler(gatherer),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	utils.Info("Start Api Server at http://" + ln.Addr().String())

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if ce := utils.CanLogErr("api server stopped"); ce != nil {
				ce.Write(zap.Error(err))
			}
		}
	}()
	return srv, nil
}

type auth struct {
	expectedUsernameHash [32]byte
	expectedPasswordHash [32]byte
}

type apiServer struct {
	admin_auth auth
	nopass     bool
	PathPrefix string
}

func newApiServer(user, pass string) *apiServer {
	s := new(apiServer)

	if pass != "" {
		s.admin_auth.expectedUsernameHash = sha256.Sum256([]byte(user))
		s.admin_auth.expectedPasswordHash = sha256.Sum256([]byte(pass))
	} else {
		s.nopass = true
	}
	return s
}

func (ser *apiServer) addServerHandle(mux *http.ServeMux, name string, f func(w http.ResponseWriter, r *http.Request)) {
	mux.HandleFunc(ser.PathPrefix+"/"+name, ser.basicAuth(f))
}

func (ser *apiServer) basicAuth(realfunc http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ce := utils.CanLogDebug("api server got new request"); ce != nil {
			ce.Write(
				zap.String("method", r.Method),
				zap.String("requestURL", r.RequestURI),
			)
		}

		if ser.nopass {
			realfunc(w, r)
			return
		}

		thisun, thispass, ok := r.BasicAuth()
		if ok {
			usernameHash := sha256.Sum256([]byte(thisun))
			passwordHash := sha256.Sum256([]byte(thispass))

			usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], ser.admin_auth.expectedUsernameHash[:]) == 1
			passwordMatch := subtle.ConstantTimeCompare(passwordHash[:], ser.admin_auth.expectedPasswordHash[:]) == 1

			if usernameMatch && passwordMatch {
				realfunc(w, r)
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
}
