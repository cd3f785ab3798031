package utils

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// NewHTTPClient returns a client that never follows redirects by itself.
// Callers get the 3xx response and decide what to do.
//
// If proxyUrl is empty, the client uses http.ProxyFromEnvironment, else a transport
// with proxy set to proxyUrl (http, https and socks5 schemes). Certificates are
// always verified, proxy or not.
func NewHTTPClient(proxyUrl string, timeout time.Duration) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()

	if proxyUrl != "" {
		url_proxy, err := url.Parse(proxyUrl)
		if err != nil {
			return nil, ErrInErr{ErrDesc: "invalid proxy url", ErrDetail: err, Data: proxyUrl}
		}
		tr.Proxy = http.ProxyURL(url_proxy)
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}, nil
}

// https://golangcode.com/download-a-file-with-progress/
type DownloadPrintCounter struct {
	Total uint64
	W     io.Writer //nil 则不打印
}

func (wc *DownloadPrintCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.Total += uint64(n)
	wc.PrintProgress()
	return n, nil
}

func (wc DownloadPrintCounter) PrintProgress() {
	if wc.W == nil {
		return
	}
	fmt.Fprintf(wc.W, "\r%s", strings.Repeat(" ", 35))

	fmt.Fprintf(wc.W, "\rDownloading... %s complete", humanize.Bytes(wc.Total))
}
