/*
Package configAdapter converts the launcher's listener settings to the formats
third party programs understand: the xray json config (see sub package xray)
and the share url that clients such as v2rayN import.
*/
package configAdapter

import (
	"net/url"
	"strconv"
	"strings"
)

const TLSPort = 443

// ShareConf is what a client needs to reach the listener through the CDN.
type ShareConf struct {
	UUID   string
	Domain string
	Path   string
	Tag    string //节点名称, 显示在客户端
}

// escape 与 js 的 encodeURIComponent 对关键字符的处理一致: 空格是 %20 而不是 +
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ToVlessShareURL generates the vless share url for a ws listener behind a TLS terminating CDN.
// See https://github.com/XTLS/Xray-core/discussions/716
//
// The port is always 443 since TLS ends at the CDN edge, whatever the listen port is.
// Query keys keep the conventional order instead of url.Values' sorted order.
func ToVlessShareURL(sc ShareConf) string {
	var sb strings.Builder

	sb.WriteString("vless://")
	sb.WriteString(sc.UUID)
	sb.WriteByte('@')
	sb.WriteString(sc.Domain)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(TLSPort))

	sb.WriteString("?encryption=none&security=tls&type=ws")
	sb.WriteString("&host=")
	sb.WriteString(escape(sc.Domain))
	sb.WriteString("&path=")
	sb.WriteString(escape(sc.Path))
	sb.WriteString("&sni=")
	sb.WriteString(escape(sc.Domain))

	sb.WriteByte('#')
	sb.WriteString(escape(sc.Tag))

	return sb.String()
}

// FromVlessShareURL is the reverse of ToVlessShareURL.
func FromVlessShareURL(s string) (sc ShareConf, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return
	}
	q := u.Query()

	sc.UUID = u.User.Username()
	sc.Domain = q.Get("host")
	sc.Path = q.Get("path")
	sc.Tag = u.Fragment
	return
}
