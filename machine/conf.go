package machine

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
	"github.com/e1732a364fed/xray_launcher/artifact"
	"github.com/e1732a364fed/xray_launcher/configAdapter/xray"
	"github.com/e1732a364fed/xray_launcher/netLayer"
	"github.com/e1732a364fed/xray_launcher/panel"
	"github.com/e1732a364fed/xray_launcher/utils"
	"go.uber.org/multierr"
)

const (
	DefaultDomain = "cloudflare.182682.xyz"
	DefaultName   = "Panel"

	DefaultGoMemLimit = "10MiB"
	DefaultGoGC       = "15"
	DefaultStopGrace  = 5 * time.Second

	DefaultArchiveFile = "xray.zip"
	DefaultBinDir      = "xray"
	DefaultConfigFile  = "config.json"
	DefaultLinksFile   = "vless_xray_links.txt"

	EnvDomain = "XL_DOMAIN"
	EnvUUID   = "XL_UUID"
	EnvPort   = "XL_PORT"
	EnvName   = "XL_NAME"

	EnvQR        = "XL_QR"
	EnvEdgeCheck = "XL_EDGE_CHECK"
	EnvProbe     = "XL_PROBE"
)

var ErrBadConf = errors.New("bad launcher config")

// Conf 标准toml文件格式 由 app, xray, network, apiServer 4部分组成
type Conf struct {
	App       AppConf       `toml:"app"`
	Xray      XrayConf      `toml:"xray"`
	Network   NetworkConf   `toml:"network"`
	ApiServer ApiServerConf `toml:"apiServer"`
}

// AppConf 配置App级别的配置
type AppConf struct {
	LogLevel *int    `toml:"loglevel"` //需要为指针, 否则无法判断0到底是未给出的默认值还是 显式声明的0
	LogFile  *string `toml:"logfile"`

	Domain  string `toml:"domain"`
	UUID    string `toml:"uuid"` //为空时每次启动随机生成
	Port    int    `toml:"port"` //为0时使用 SERVER_PORT
	Name    string `toml:"name"`
	WorkDir string `toml:"work_dir"`

	QRCode    bool `toml:"qr"`
	EdgeCheck bool `toml:"edge_check"`
	Probe     bool `toml:"probe"`
}

type XrayConf struct {
	ReleaseBase    string `toml:"release_base"`
	Arch           string `toml:"arch"` //为空时用 runtime.GOARCH
	ExecutableName string `toml:"executable"`

	ArchiveFile string `toml:"archive_file"`
	BinDir      string `toml:"bin_dir"`
	ConfigFile  string `toml:"config_file"`
	LinksFile   string `toml:"links_file"`

	GoMemLimit string `toml:"gomemlimit"`
	GoGC       string `toml:"gogc"`

	LogLevel   string `toml:"loglevel"`
	BufferSize int    `toml:"buffer_size"`
	ConnIdle   int    `toml:"conn_idle"`

	StopGraceSeconds int `toml:"stop_grace"`
}

type NetworkConf struct {
	MetaURL       string `toml:"meta_url"`
	MetaAttempts  int    `toml:"meta_attempts"`
	MetaBackoffMs int    `toml:"meta_backoff"`

	DownloadAttempts  int    `toml:"download_attempts"`
	DownloadBackoffMs int    `toml:"download_backoff"` //第n次失败后等待 n*download_backoff
	MaxRedirects      int    `toml:"max_redirects"`
	DownloadProxy     string `toml:"download_proxy"`
	UserAgent         string `toml:"user_agent"`
	ShowProgress      bool   `toml:"progress"`

	Resolver string `toml:"resolver"`
}

func DefaultConf() Conf {
	return Conf{
		App: AppConf{
			Domain: DefaultDomain,
			Name:   DefaultName,
			Probe:  true,
		},
		Xray: XrayConf{
			ReleaseBase:      artifact.DefaultReleaseBase,
			ExecutableName:   artifact.DefaultExecutableName,
			ArchiveFile:      DefaultArchiveFile,
			BinDir:           DefaultBinDir,
			ConfigFile:       DefaultConfigFile,
			LinksFile:        DefaultLinksFile,
			GoMemLimit:       DefaultGoMemLimit,
			GoGC:             DefaultGoGC,
			LogLevel:         xray.DefaultLogLevel,
			BufferSize:       xray.DefaultBufferSize,
			ConnIdle:         xray.DefaultConnIdle,
			StopGraceSeconds: int(DefaultStopGrace / time.Second),
		},
		Network: NetworkConf{
			MetaURL:           netLayer.DefaultMetaURL,
			MetaAttempts:      netLayer.DefaultMetaAttempts,
			MetaBackoffMs:     int(netLayer.DefaultMetaBackoff / time.Millisecond),
			DownloadAttempts:  artifact.DefaultAttempts,
			DownloadBackoffMs: int(artifact.DefaultBackoff / time.Millisecond),
			MaxRedirects:      artifact.DefaultMaxRedirects,
			UserAgent:         artifact.DefaultUserAgent,
			Resolver:          netLayer.DefaultResolver,
		},
		ApiServer: ApiServerConf{
			Addr:       DefaultApiServerAddr,
			PathPrefix: DefaultApiPathPrefix,
		},
	}
}

// LoadConfFromBs decodes toml on top of DefaultConf, so keys absent from bs keep their defaults.
func LoadConfFromBs(bs []byte) (c Conf, err error) {
	c = DefaultConf()
	err = toml.Unmarshal(bs, &c)
	return
}

func LoadConfFile(fn string) (c Conf, err error) {
	c = DefaultConf()
	_, err = toml.DecodeFile(fn, &c)
	return
}

// ApplyEnv overrides App fields with the XL_* variables found through lookup.
func (c *Conf) ApplyEnv(lookup panel.LookupFunc) (err error) {
	if v, ok := lookup(EnvDomain); ok && v != "" {
		c.App.Domain = v
	}
	if v, ok := lookup(EnvUUID); ok && v != "" {
		c.App.UUID = v
	}
	if v, ok := lookup(EnvName); ok && v != "" {
		c.App.Name = v
	}
	for key, dst := range map[string]*bool{
		EnvQR:        &c.App.QRCode,
		EnvEdgeCheck: &c.App.EdgeCheck,
		EnvProbe:     &c.App.Probe,
	} {
		if v, ok := lookup(key); ok && v != "" {
			switch {
			case utils.StrPositive(v):
				*dst = true
			case utils.StrNegative(v):
				*dst = false
			}
		}
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		p, e := strconv.Atoi(v)
		if e != nil {
			return utils.ErrInErr{ErrDesc: EnvPort + " not a number", ErrDetail: ErrBadConf, Data: v}
		}
		c.App.Port = p
	}
	return
}

// Validate reports every problem found, not only the first.
func (c *Conf) Validate() (err error) {
	bad := func(desc string, data any) {
		err = multierr.Append(err, utils.ErrInErr{ErrDesc: desc, ErrDetail: ErrBadConf, Data: data})
	}

	if !govalidator.IsDNSName(c.App.Domain) {
		bad("domain is not a valid dns name", c.App.Domain)
	}
	if c.App.UUID != "" && !govalidator.IsUUID(c.App.UUID) {
		bad("uuid is not valid", c.App.UUID)
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		bad("port out of range", c.App.Port)
	}
	if c.App.Name == "" {
		bad("name is empty", nil)
	}
	if c.Network.MetaAttempts < 1 {
		bad("meta_attempts must be at least 1", c.Network.MetaAttempts)
	}
	if c.Network.DownloadAttempts < 1 {
		bad("download_attempts must be at least 1", c.Network.DownloadAttempts)
	}
	if c.Network.MaxRedirects < 0 {
		bad("max_redirects is negative", c.Network.MaxRedirects)
	}
	if c.Xray.StopGraceSeconds < 0 {
		bad("stop_grace is negative", c.Xray.StopGraceSeconds)
	}
	for _, fn := range []string{c.Xray.ArchiveFile, c.Xray.BinDir, c.Xray.ConfigFile, c.Xray.LinksFile, c.Xray.ExecutableName} {
		if fn == "" {
			bad("file names must not be empty", nil)
			break
		}
	}
	if c.Network.DownloadProxy != "" && !govalidator.IsURL(c.Network.DownloadProxy) {
		bad("download_proxy is not an url", c.Network.DownloadProxy)
	}
	return
}

// 所有生成的文件都相对于 work_dir

func (c *Conf) path(name string) string {
	return filepath.Join(c.App.WorkDir, name)
}

func (c *Conf) ArchivePath() string { return c.path(c.Xray.ArchiveFile) }
func (c *Conf) BinDirPath() string  { return c.path(c.Xray.BinDir) }
func (c *Conf) ConfigPath() string  { return c.path(c.Xray.ConfigFile) }
func (c *Conf) LinksPath() string   { return c.path(c.Xray.LinksFile) }

func (c *Conf) BinaryPath() string {
	return filepath.Join(c.BinDirPath(), c.Xray.ExecutableName)
}

func (c *Conf) StopGrace() time.Duration {
	return time.Duration(c.Xray.StopGraceSeconds) * time.Second
}

func (c *Conf) MetaPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		Name:     "isp lookup",
		Attempts: c.Network.MetaAttempts,
		Backoff:  utils.FixedBackoff(time.Duration(c.Network.MetaBackoffMs) * time.Millisecond),
	}
}

func (c *Conf) DownloadPolicy() utils.RetryPolicy {
	return utils.RetryPolicy{
		Name:     "download",
		Attempts: c.Network.DownloadAttempts,
		Backoff:  utils.LinearBackoff(time.Duration(c.Network.DownloadBackoffMs) * time.Millisecond),
	}
}

func (c Conf) String() string {
	return fmt.Sprintf("domain=%s port=%d name=%s work_dir=%q", c.App.Domain, c.App.Port, c.App.Name, c.App.WorkDir)
}
