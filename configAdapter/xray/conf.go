// Package xray supports the subset of the xray-core json config the launcher writes.
// See https://xtls.github.io/config/
package xray

type Conf struct {
	Log       LogObject     `json:"log"`
	Inbounds  []Inbound     `json:"inbounds"`
	Outbounds []Outbound    `json:"outbounds"`
	Policy    *PolicyObject `json:"policy,omitempty"`
}

type LogObject struct {
	LogLevel string `json:"loglevel"` //"debug" | "info" | "warning" | "error" | "none"
}

type Inbound struct {
	Port           int           `json:"port"`
	Listen         string        `json:"listen"`
	Protocol       string        `json:"protocol"`
	Settings       VlessSettings `json:"settings"`
	StreamSettings *StreamObject `json:"streamSettings,omitempty"`
}

type VlessSettings struct {
	Clients    []VlessClient `json:"clients"`
	Decryption string        `json:"decryption"`
}

type VlessClient struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

type StreamObject struct {
	Network    string      `json:"network"`
	Security   string      `json:"security"`
	WSSettings *WSSettings `json:"wsSettings,omitempty"`
}

type WSSettings struct {
	Path    string            `json:"path"`
	Headers map[string]string `json:"headers,omitempty"`
}

type Outbound struct {
	Protocol string         `json:"protocol"`
	Settings map[string]any `json:"settings"`
}

type PolicyObject struct {
	Levels map[string]LevelPolicy `json:"levels"`
}

type LevelPolicy struct {
	BufferSize int `json:"bufferSize"` //KiB
	ConnIdle   int `json:"connIdle"`   //seconds
}
