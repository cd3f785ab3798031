package netLayer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/biter777/countries"
	"github.com/e1732a364fed/xray_launcher/utils"
	"go.uber.org/zap"
)

// MetaInfo is the part of the metadata endpoint response we care about.
type MetaInfo struct {
	Country        string `json:"country"`
	AsOrganization string `json:"asOrganization"`
}

// Label returns "country-asOrganization" with spaces replaced by underscores.
// A country given as a full name is normalized to its ISO 3166 alpha-2 code;
// two letter values (XX, T1, EU, UK) are kept verbatim.
func (mi MetaInfo) Label() string {
	country := mi.Country
	if len(country) > 2 {
		if c := countries.ByName(country); c != countries.Unknown {
			country = c.Alpha2()
		}
	}
	return strings.ReplaceAll(country+"-"+mi.AsOrganization, " ", "_")
}

// MetaClient queries a metadata endpoint to classify the network we run in.
// The result is only used for display.
type MetaClient struct {
	URL    string
	Client *http.Client
	Policy utils.RetryPolicy

	OnAttempt func() //可为nil, 用于统计
}

func NewMetaClient(url string, policy utils.RetryPolicy) *MetaClient {
	if url == "" {
		url = DefaultMetaURL
	}
	if policy.Name == "" {
		policy.Name = "isp lookup"
	}
	return &MetaClient{
		URL:    url,
		Client: defaultMetaClient,
		Policy: policy,
	}
}

// Fetch never fails: after the retries are used up it returns UnknownISP.
func (mc *MetaClient) Fetch(ctx context.Context) string {
	var label string

	err := utils.Retry(ctx, mc.Policy, func(int) (err error) {
		if mc.OnAttempt != nil {
			mc.OnAttempt()
		}
		var mi MetaInfo
		mi, err = mc.fetchOnce(ctx)
		if err == nil {
			label = mi.Label()
		}
		return
	})

	if err != nil {
		if ce := utils.CanLogWarn("ISP lookup failed, using " + UnknownISP); ce != nil {
			ce.Write(zap.Error(err))
		}
		return UnknownISP
	}

	if ce := utils.CanLogInfo("ISP detected"); ce != nil {
		ce.Write(zap.String("isp", label))
	}
	return label
}

func (mc *MetaClient) fetchOnce(ctx context.Context) (mi MetaInfo, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mc.URL, nil)
	if err != nil {
		return
	}
	client := mc.Client
	if client == nil {
		client = defaultMetaClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = fmt.Errorf("metadata endpoint: %s", resp.Status)
		return
	}

	err = json.NewDecoder(io.LimitReader(resp.Body, defaultMetaBodySize)).Decode(&mi)
	return
}
