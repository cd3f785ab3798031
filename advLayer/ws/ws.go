/*
Package ws checks that the launched xray answers websocket upgrades on its listener.

Below is a real websocket handshake progress:

Request

	GET /1a2b3c4d HTTP/1.1
	    Host: cdn.example.com
	    Upgrade: websocket
	    Connection: Upgrade
	    Sec-WebSocket-Key: x3JJHMbDL1EzLkh9GBhXDw==
	    Sec-WebSocket-Version: 13

Response

	HTTP/1.1 101 Switching Protocols
	    Upgrade: websocket
	    Connection: Upgrade
	    Sec-WebSocket-Accept: HSmrc0sMlYUkAGmm5OPpG2HaGWk=

All in all gobwas/ws is the best package. We use gobwas/ws.
*/
package ws

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/gobwas/ws"
	"go.uber.org/zap"
)

const (
	DefaultProbeAttempts = 5
	DefaultProbeBackoff  = time.Second
	defaultProbeTimeout  = 3 * time.Second
)

// Probe performs a websocket handshake against a local listener while
// presenting the public Host, the way the CDN will reach it.
type Probe struct {
	Addr string //本地监听地址, 如 127.0.0.1:25565
	Host string
	Path string

	Timeout time.Duration
	Policy  utils.RetryPolicy
}

func NewProbe(port int, host, path string) *Probe {
	return &Probe{
		Addr:    net.JoinHostPort("127.0.0.1", strconv.Itoa(port)),
		Host:    host,
		Path:    path,
		Timeout: defaultProbeTimeout,
		Policy: utils.RetryPolicy{
			Name:     "readiness probe",
			Attempts: DefaultProbeAttempts,
			Backoff:  utils.FixedBackoff(DefaultProbeBackoff),
		},
	}
}

// Handshake does one upgrade and closes the connection right after.
func (p *Probe) Handshake(ctx context.Context) error {
	d := ws.Dialer{
		Timeout: p.Timeout,
		NetDial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var nd net.Dialer
			return nd.DialContext(ctx, network, p.Addr)
		},
	}

	conn, br, _, err := d.Dial(ctx, "ws://"+p.Host+p.Path)
	if err != nil {
		return err
	}
	if br != nil {
		ws.PutReader(br)
	}
	return conn.Close()
}

// Run retries Handshake according to Policy.
func (p *Probe) Run(ctx context.Context) error {
	err := utils.Retry(ctx, p.Policy, func(int) error {
		return p.Handshake(ctx)
	})
	if err != nil {
		return err
	}
	if ce := utils.CanLogInfo("listener ready"); ce != nil {
		ce.Write(zap.String("addr", p.Addr), zap.String("path", p.Path))
	}
	return nil
}
