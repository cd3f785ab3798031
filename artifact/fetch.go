package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/e1732a364fed/xray_launcher/utils"
	"go.uber.org/zap"
)

// Fetcher downloads one URL to a file with bounded retry.
type Fetcher struct {
	URL          string
	UserAgent    string
	MaxRedirects int

	Client *http.Client
	Policy utils.RetryPolicy

	Progress  io.Writer //非nil时打印下载进度
	OnAttempt func()
}

func NewFetcher(downloadURL string, client *http.Client, policy utils.RetryPolicy) *Fetcher {
	if policy.Name == "" {
		policy.Name = "download"
	}
	if policy.Retryable == nil {
		policy.Retryable = func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}
	}
	return &Fetcher{
		URL:          downloadURL,
		UserAgent:    DefaultUserAgent,
		MaxRedirects: DefaultMaxRedirects,
		Client:       client,
		Policy:       policy,
	}
}

// Download retries the whole fetch, redirects included, up to Policy.Attempts times.
func (f *Fetcher) Download(ctx context.Context, dst string) error {
	err := utils.Retry(ctx, f.Policy, func(attempt int) error {
		if f.OnAttempt != nil {
			f.OnAttempt()
		}
		if ce := utils.CanLogInfo("Downloading"); ce != nil {
			ce.Write(zap.String("url", f.URL), zap.Int("attempt", attempt))
		}
		return f.downloadOnce(ctx, dst)
	})
	if err != nil {
		return fmt.Errorf("%w, %s: %w", ErrDownloadFailed, f.URL, err)
	}
	utils.Info("Download complete.")
	return nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	c, _ := utils.NewHTTPClient("", 0)
	f.Client = c
	return c
}

// get follows 3xx responses by hand, so every hop is logged and bounded.
func (f *Fetcher) get(ctx context.Context) (*http.Response, error) {
	target, err := url.Parse(f.URL)
	if err != nil {
		return nil, err
	}

	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", f.UserAgent)

		resp, err := f.client().Do(req)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			loc, lerr := resp.Location()
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()

			if lerr != nil {
				return nil, utils.ErrInErr{ErrDesc: "redirect failed", ErrDetail: ErrRedirectNoLocation, Data: resp.Status}
			}
			if hops >= f.MaxRedirects {
				return nil, utils.ErrInErr{ErrDesc: "redirect failed", ErrDetail: ErrTooManyRedirects, Data: hops}
			}
			if ce := utils.CanLogDebug("Redirecting"); ce != nil {
				ce.Write(zap.String("to", loc.String()))
			}
			target = loc

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil

		default:
			resp.Body.Close()
			return nil, utils.ErrInErr{ErrDesc: "download got bad status", ErrDetail: ErrBadStatus, Data: strconv.Itoa(resp.StatusCode)}
		}
	}
}

func (f *Fetcher) downloadOnce(ctx context.Context, dst string) (err error) {
	resp, err := f.get(ctx)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	out, err := os.Create(dst)
	if err != nil {
		return
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	var src io.Reader = resp.Body
	if f.Progress != nil {
		counter := &utils.DownloadPrintCounter{W: f.Progress}
		src = io.TeeReader(resp.Body, counter)
		defer io.WriteString(f.Progress, "\n")
	}

	_, err = io.Copy(out, src)
	return
}
