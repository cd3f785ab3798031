package netLayer

import (
	"context"
	"net"
	"time"

	"github.com/e1732a364fed/xray_launcher/utils"
	"github.com/miekg/dns"
	"github.com/yl2chen/cidranger"
	"go.uber.org/zap"
)

// https://www.cloudflare.com/ips/
var CloudflareRanges = []string{
	"173.245.48.0/20",
	"103.21.244.0/22",
	"103.22.200.0/22",
	"103.31.4.0/22",
	"141.101.64.0/18",
	"108.162.192.0/18",
	"190.93.240.0/20",
	"188.114.96.0/20",
	"197.234.240.0/22",
	"198.41.128.0/17",
	"162.158.0.0/15",
	"104.16.0.0/13",
	"104.24.0.0/14",
	"172.64.0.0/13",
	"131.0.72.0/22",
	"2400:cb00::/32",
	"2606:4700::/32",
	"2803:f800::/32",
	"2405:b500::/32",
	"2405:8100::/32",
	"2a06:98c0::/29",
	"2c0f:f248::/32",
}

// EdgeReport tells whether a domain currently resolves into the CDN edge.
type EdgeReport struct {
	Domain  string
	IPs     []net.IP
	Proxied bool //所有解析到的ip都在 cdn 的ip段里
}

// EdgeChecker resolves a domain and matches the answers against CDN ranges.
type EdgeChecker struct {
	Resolver string
	Timeout  time.Duration

	ranger cidranger.Ranger
}

func NewEdgeChecker(resolver string, timeout time.Duration) *EdgeChecker {
	if resolver == "" {
		resolver = DefaultResolver
	}
	if timeout <= 0 {
		timeout = DefaultEdgeTimeout
	}
	ec := &EdgeChecker{
		Resolver: resolver,
		Timeout:  timeout,
		ranger:   cidranger.NewPCTrieRanger(),
	}
	for _, r := range CloudflareRanges {
		if _, ipnet, err := net.ParseCIDR(r); err == nil {
			ec.ranger.Insert(cidranger.NewBasicRangerEntry(*ipnet))
		}
	}
	return ec
}

// InEdge reports whether ip belongs to one of the CDN ranges.
func (ec *EdgeChecker) InEdge(ip net.IP) bool {
	ok, err := ec.ranger.Contains(ip)
	return err == nil && ok
}

// Check queries A and AAAA records of domain. An empty answer is reported as not proxied.
func (ec *EdgeChecker) Check(ctx context.Context, domain string) (report EdgeReport, err error) {
	report.Domain = domain

	ctx, cancel := context.WithTimeout(ctx, ec.Timeout)
	defer cancel()

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		var ips []net.IP
		ips, err = ec.query(ctx, domain, qtype)
		if err != nil {
			return
		}
		report.IPs = append(report.IPs, ips...)
	}

	report.Proxied = len(report.IPs) > 0
	for _, ip := range report.IPs {
		if !ec.InEdge(ip) {
			report.Proxied = false
			break
		}
	}

	if ce := utils.CanLogDebug("edge check"); ce != nil {
		ce.Write(zap.String("domain", domain), zap.Any("ips", report.IPs), zap.Bool("proxied", report.Proxied))
	}
	return
}

func (ec *EdgeChecker) query(ctx context.Context, domain string, qtype uint16) (ips []net.IP, err error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(domain), qtype)

	c := &dns.Client{Timeout: ec.Timeout}
	r, _, err := c.ExchangeContext(ctx, m, ec.Resolver)
	if err != nil {
		return
	}
	if r.Rcode != dns.RcodeSuccess && r.Rcode != dns.RcodeNameError {
		err = utils.ErrInErr{ErrDesc: "dns query got bad rcode", ErrDetail: dns.ErrRcode, Data: dns.RcodeToString[r.Rcode]}
		return
	}

	//CNAME 记录由递归服务器展开, 这里只取最终的地址
	for _, a := range r.Answer {
		switch rr := a.(type) {
		case *dns.A:
			ips = append(ips, rr.A)
		case *dns.AAAA:
			ips = append(ips, rr.AAAA)
		}
	}
	return
}
