/*
Package netLayer contains the small amount of network lookups the launcher does itself.

本包有 meta (ISP 信息查询) 和 edge (域名是否开启了 CDN 代理) 两个功能, 都是尽力而为的,
失败了只打日志, 不会阻止启动。真正的代理流量全部由下载的 xray 处理.
*/
package netLayer

import (
	"net/http"
	"time"
)

const (
	DefaultMetaURL      = "https://speed.cloudflare.com/meta"
	DefaultMetaAttempts = 3
	DefaultMetaBackoff  = time.Second

	UnknownISP = "Unknown"

	DefaultResolver     = "1.1.1.1:53"
	DefaultEdgeTimeout  = 3 * time.Second
	defaultMetaTimeout  = 10 * time.Second
	defaultMetaBodySize = 64 << 10
)

var defaultMetaClient = &http.Client{Timeout: defaultMetaTimeout}
