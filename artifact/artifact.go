/*
Package artifact fetches and unpacks the prebuilt Xray release.

Download 把 release 压缩包流式写入本地文件(容器内存很小, 不能整个读进内存),
Extract 再从压缩包中找出 xray 可执行文件。
*/
package artifact

import (
	"errors"
	"runtime"
	"strings"
	"time"
)

const (
	DefaultReleaseBase = "https://github.com/XTLS/Xray-core/releases/latest/download/"

	ArchiveAMD64 = "Xray-linux-64.zip"
	ArchiveARM64 = "Xray-linux-arm64-v8a.zip"

	DefaultExecutableName = "xray"
	DefaultUserAgent      = "Mozilla/5.0"

	DefaultAttempts     = 3
	DefaultBackoff      = 2 * time.Second
	DefaultMaxRedirects = 32
)

var (
	ErrBadStatus          = errors.New("bad http status")
	ErrTooManyRedirects   = errors.New("too many redirects")
	ErrDownloadFailed     = errors.New("download failed")
	ErrEntryNotFound      = errors.New("executable not found in archive")
	ErrRedirectNoLocation = errors.New("redirect without location")
)

// ArchiveName maps a GOARCH value to the release archive name.
// Unknown architectures fall back to the amd64 build.
func ArchiveName(goarch string) string {
	switch goarch {
	case "arm64":
		return ArchiveARM64
	default:
		return ArchiveAMD64
	}
}

// DownloadURL joins base and the archive name for goarch. Empty goarch means runtime.GOARCH.
func DownloadURL(base, goarch string) string {
	if base == "" {
		base = DefaultReleaseBase
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + ArchiveName(goarch)
}
