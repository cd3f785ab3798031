/*
Package panel detects the Pterodactyl game panel container the launcher is meant to run in.

The panel injects SERVER_IP and SERVER_PORT into every server container; their
presence is the only signal we rely on.
*/
package panel

import (
	"errors"
	"strconv"
	"strings"

	"github.com/e1732a364fed/xray_launcher/utils"
	"go.uber.org/zap"
)

const (
	EnvServerIP     = "SERVER_IP"
	EnvServerPort   = "SERVER_PORT"
	EnvServerMemory = "SERVER_MEMORY"
)

var (
	ErrNotDetected = errors.New("pterodactyl environment not detected")
	ErrBadPort     = errors.New("invalid SERVER_PORT")
)

// Env is what the panel tells us about the container.
type Env struct {
	ServerIP   string
	ServerPort int

	// Memory is SERVER_MEMORY verbatim (MiB), empty if the panel didn't set it.
	Memory string
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Detect reads the panel variables through lookup. Both SERVER_IP and
// SERVER_PORT must be present and non-empty.
func Detect(lookup LookupFunc) (env Env, err error) {
	ip, okIP := lookup(EnvServerIP)
	portStr, okPort := lookup(EnvServerPort)

	if !okIP || !okPort || ip == "" || portStr == "" {
		err = utils.ErrInErr{ErrDesc: "required variables missing", ErrDetail: ErrNotDetected, Data: []string{EnvServerIP, EnvServerPort}}
		return
	}

	port, e := strconv.Atoi(strings.TrimSpace(portStr))
	if e != nil || port <= 0 || port > 65535 {
		err = utils.ErrInErr{ErrDesc: "parse port failed", ErrDetail: ErrBadPort, Data: portStr}
		return
	}

	env.ServerIP = ip
	env.ServerPort = port
	env.Memory, _ = lookup(EnvServerMemory)

	if ce := utils.CanLogInfo("Pterodactyl environment detected"); ce != nil {
		ce.Write(
			zap.String(EnvServerIP, env.ServerIP),
			zap.Int(EnvServerPort, env.ServerPort),
			zap.String(EnvServerMemory, env.Memory),
		)
	}
	return
}

// MapLookup adapts a plain map to LookupFunc.
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}
