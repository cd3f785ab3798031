package machine

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/e1732a364fed/xray_launcher/netLayer"
	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/mdp/qrterminal/v3"
	"go.uber.org/zap"
)

const linksHeader = "CDN node:\n"

// Reporter shows the operator how to reach the listener and persists the link.
type Reporter struct {
	Out       io.Writer //nil 则用 os.Stdout
	LinksPath string
	QRCode    bool
}

func (r *Reporter) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

// WriteLinks saves the descriptor file, a header line followed by link.
func (r *Reporter) WriteLinks(link string) error {
	err := os.WriteFile(r.LinksPath, []byte(linksHeader+link), 0o644)
	if err != nil {
		return utils.ErrInErr{ErrDesc: "write links file failed", ErrDetail: err, Data: r.LinksPath}
	}
	return nil
}

// Print writes the banner, the link and the CDN setup caveats. edge may be nil.
func (r *Reporter) Print(link, domain string, port int, edge *netLayer.EdgeReport) {
	w := r.out()
	line := strings.Repeat("=", 60)

	fmt.Fprintf(w, "\n%s\nVLESS Xray CDN-only service is now running\n%s\n", line, line)
	fmt.Fprintf(w, "\nCDN node link:\n%s\n", link)

	if r.QRCode {
		fmt.Fprintln(w)
		qrterminal.GenerateWithConfig(link, qrterminal.Config{
			HalfBlocks:     true,
			Level:          qrterminal.M,
			Writer:         w,
			BlackChar:      qrterminal.BLACK_BLACK,
			WhiteChar:      qrterminal.WHITE_WHITE,
			BlackWhiteChar: qrterminal.BLACK_WHITE,
			WhiteBlackChar: qrterminal.WHITE_BLACK,
		})
	}

	fmt.Fprintf(w, "\nLink saved to: %s\n", r.LinksPath)
	fmt.Fprintf(w, "\nImportant:\n")
	fmt.Fprintf(w, "1. This node only works through the CDN, make sure the domain (%s) is proxied (orange cloud) on Cloudflare.\n", domain)
	fmt.Fprintf(w, "2. Route the traffic to the listen port (%d) with a Cloudflare Origin Rule.\n", port)
	fmt.Fprintf(w, "3. Cloudflare SSL/TLS encryption mode must be Flexible.\n")

	if edge != nil && !edge.Proxied {
		fmt.Fprintf(w, "\nWarning: %s resolves to %v, which is not a Cloudflare edge address. Is the proxy enabled?\n", domain, edge.IPs)
		if ce := utils.CanLogWarn("domain not behind cloudflare"); ce != nil {
			ce.Write(zap.String("domain", domain), zap.Strings("ips", ipStrings(edge)))
		}
	}

	fmt.Fprintf(w, "\nService running (Ctrl+C to stop)\n")
}

func ipStrings(edge *netLayer.EdgeReport) []string {
	ss := make([]string, len(edge.IPs))
	for i, ip := range edge.IPs {
		ss[i] = ip.String()
	}
	return ss
}
