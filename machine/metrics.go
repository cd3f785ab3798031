package machine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector receives the few events worth counting in a launcher run.
type MetricsCollector interface {
	StateChanged(to State)
	DownloadAttempt()
	MetaAttempt()
	ChildExited(code int)
	CleanupFailure()
}

type noopMetrics struct{}

func (noopMetrics) StateChanged(State) {}
func (noopMetrics) DownloadAttempt()   {}
func (noopMetrics) MetaAttempt()       {}
func (noopMetrics) ChildExited(int)    {}
func (noopMetrics) CleanupFailure()    {}

func NewNoopMetrics() MetricsCollector { return noopMetrics{} }

// PrometheusMetrics implements MetricsCollector with its own registry.
type PrometheusMetrics struct {
	state            prometheus.Gauge
	downloadAttempts prometheus.Counter
	metaAttempts     prometheus.Counter
	childExits       *prometheus.CounterVec
	cleanupFailures  prometheus.Counter

	Registry *prometheus.Registry
}

func NewPrometheusMetrics(namespace string) *PrometheusMetrics {
	if namespace == "" {
		namespace = "xray"
	}
	pm := &PrometheusMetrics{
		Registry: prometheus.NewRegistry(),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "launcher_state",
			Help:      "Current launcher state, see machine.State",
		}),
		downloadAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_attempts_total",
			Help:      "Total number of release download attempts",
		}),
		metaAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "meta_attempts_total",
			Help:      "Total number of network metadata lookups",
		}),
		childExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "child_exits_total",
			Help:      "Exits of the xray child process by exit code",
		}, []string{"code"}),
		cleanupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_failures_total",
			Help:      "Artifacts that could not be removed during cleanup",
		}),
	}
	pm.Registry.MustRegister(pm.state, pm.downloadAttempts, pm.metaAttempts, pm.childExits, pm.cleanupFailures)
	return pm
}

func (pm *PrometheusMetrics) StateChanged(to State) { pm.state.Set(float64(to)) }
func (pm *PrometheusMetrics) DownloadAttempt()      { pm.downloadAttempts.Inc() }
func (pm *PrometheusMetrics) MetaAttempt()          { pm.metaAttempts.Inc() }
func (pm *PrometheusMetrics) CleanupFailure()       { pm.cleanupFailures.Inc() }

func (pm *PrometheusMetrics) ChildExited(code int) {
	pm.childExits.WithLabelValues(strconv.Itoa(code)).Inc()
}
