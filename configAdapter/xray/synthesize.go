package xray

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	DefaultLogLevel   = "error"
	DefaultBufferSize = 256
	DefaultConnIdle   = 120

	ListenAll = "0.0.0.0"
)

// ListenerParams fully determines the generated config.
type ListenerParams struct {
	UUID   string
	Path   string
	Domain string
	Port   int

	LogLevel   string
	BufferSize int
	ConnIdle   int
}

func (lp *ListenerParams) setDefaults() {
	if lp.LogLevel == "" {
		lp.LogLevel = DefaultLogLevel
	}
	if lp.BufferSize <= 0 {
		lp.BufferSize = DefaultBufferSize
	}
	if lp.ConnIdle <= 0 {
		lp.ConnIdle = DefaultConnIdle
	}
}

// NewVlessWS builds a single vless inbound on all interfaces, carried over
// plain websocket. TLS is terminated upstream at the CDN, so security is "none".
func NewVlessWS(lp ListenerParams) *Conf {
	lp.setDefaults()

	return &Conf{
		Log: LogObject{LogLevel: lp.LogLevel},
		Inbounds: []Inbound{{
			Port:     lp.Port,
			Listen:   ListenAll,
			Protocol: "vless",
			Settings: VlessSettings{
				Clients:    []VlessClient{{ID: lp.UUID, Level: 0}},
				Decryption: "none",
			},
			StreamSettings: &StreamObject{
				Network:  "ws",
				Security: "none",
				WSSettings: &WSSettings{
					Path:    lp.Path,
					Headers: map[string]string{"Host": lp.Domain},
				},
			},
		}},
		Outbounds: []Outbound{{Protocol: "freedom", Settings: map[string]any{}}},
		Policy: &PolicyObject{
			Levels: map[string]LevelPolicy{
				"0": {BufferSize: lp.BufferSize, ConnIdle: lp.ConnIdle},
			},
		},
	}
}

// Marshal is deterministic: struct fields keep declaration order and
// encoding/json sorts map keys.
func Marshal(c *Conf) ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Synthesize is NewVlessWS followed by Marshal.
func Synthesize(lp ListenerParams) ([]byte, error) {
	return Marshal(NewVlessWS(lp))
}

// WriteFile writes bs to a temp file in the same directory and renames it to
// path, so a reader sees either nothing or the whole file.
func WriteFile(path string, bs []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(bs); err != nil {
		return
	}
	if err = tmp.Sync(); err != nil {
		return
	}
	if err = tmp.Close(); err != nil {
		return
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return
	}
	return os.Rename(tmpName, path)
}
