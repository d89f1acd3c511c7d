// Package config loads persistent ctecompat settings from the XDG config
// file and CTECOMPAT_* environment variables.
package config

import (
	"io/fs"
	"time"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Setting keys, as written in config.yaml. The environment variable for a
// key is CTECOMPAT_ followed by the upper-cased key.
const (
	KeyMatrixURL        = "matrix_url"
	KeyHTMLURL          = "html_url"
	KeyStatusLocation   = "status_location"
	KeyRepoInfoURL      = "repo_info_url"
	KeyRepoBase         = "repo_base"
	KeyCachePath        = "cache_path"
	KeyDownloadDir      = "download_dir"
	KeyManagementServer = "cm_host"
	KeyTimeout          = "timeout"
	KeyPortTimeout      = "port_timeout"
	KeyRetries          = "retries"
	KeyEncryptPaths     = "encrypt_paths"
	KeyGuardCommand     = "guard_command"
	KeyModuleNames      = "module_names"
	KeyReloadCommand    = "reload_command"
)

// Defaults.
const (
	DefaultMatrixURL      = "https://packages.vormetric.com/pub/cte_compatibility_matrix.json"
	DefaultStatusLocation = "./data/cte_release_status.pdf"
	DefaultRepoInfoURL    = "https://raw.githubusercontent.com/Nera-Project/enrolling_thales_cte/main/main_package.info"
	DefaultDownloadDir    = "/tmp/cte_download"
	DefaultTimeout        = 15 * time.Second
	DefaultPortTimeout    = 3 * time.Second
	DefaultRetries        = 2
)

// DefaultEncryptPaths are the directories the encrypt workflow considers.
var DefaultEncryptPaths = []string{"/data", "/var/lib/mysql", "/backup"}

// DefaultModuleNames are the agent kernel module names.
var DefaultModuleNames = []string{"secfs2", "vee"}

// Config is the resolved configuration.
type Config struct {
	MatrixURL        string
	HTMLURL          string
	StatusLocation   string
	RepoInfoURL      string
	RepoBase         string
	CachePath        string
	DownloadDir      string
	ManagementServer string
	Timeout          time.Duration
	// PortTimeout bounds the management server TCP 443 check.
	PortTimeout      time.Duration
	Retries          int
	EncryptPaths     []string
	GuardCommand     string
	ModuleNames      []string
	ReloadCommand    string

	// File is the config file that was read, empty when none existed.
	File string
}

// DefaultPath returns the XDG location of config.yaml.
func DefaultPath() (string, error) {
	return xdg.ConfigFile("ctecompat/config.yaml")
}

// DefaultCachePath returns the XDG location of the document cache.
func DefaultCachePath() (string, error) {
	return xdg.CacheFile("ctecompat/documents.db")
}

// Load reads path (the XDG default when empty) and the environment.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, errors.Wrap(err, "config path")
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CTECOMPAT")
	v.AutomaticEnv()
	setDefaults(v)

	file := path
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "unable to read config file %s", path)
		}
		file = ""
	}

	cfg := &Config{
		MatrixURL:        v.GetString(KeyMatrixURL),
		HTMLURL:          v.GetString(KeyHTMLURL),
		StatusLocation:   v.GetString(KeyStatusLocation),
		RepoInfoURL:      v.GetString(KeyRepoInfoURL),
		RepoBase:         v.GetString(KeyRepoBase),
		CachePath:        v.GetString(KeyCachePath),
		DownloadDir:      v.GetString(KeyDownloadDir),
		ManagementServer: v.GetString(KeyManagementServer),
		Timeout:          v.GetDuration(KeyTimeout),
		PortTimeout:      v.GetDuration(KeyPortTimeout),
		Retries:          v.GetInt(KeyRetries),
		EncryptPaths:     v.GetStringSlice(KeyEncryptPaths),
		GuardCommand:     v.GetString(KeyGuardCommand),
		ModuleNames:      v.GetStringSlice(KeyModuleNames),
		ReloadCommand:    v.GetString(KeyReloadCommand),
		File:             file,
	}
	if cfg.CachePath == "" {
		p, err := DefaultCachePath()
		if err != nil {
			return nil, errors.Wrap(err, "cache path")
		}
		cfg.CachePath = p
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyMatrixURL, DefaultMatrixURL)
	v.SetDefault(KeyHTMLURL, "")
	v.SetDefault(KeyStatusLocation, DefaultStatusLocation)
	v.SetDefault(KeyRepoInfoURL, DefaultRepoInfoURL)
	v.SetDefault(KeyRepoBase, "")
	v.SetDefault(KeyCachePath, "")
	v.SetDefault(KeyDownloadDir, DefaultDownloadDir)
	v.SetDefault(KeyManagementServer, "")
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyPortTimeout, DefaultPortTimeout)
	v.SetDefault(KeyRetries, DefaultRetries)
	v.SetDefault(KeyEncryptPaths, DefaultEncryptPaths)
	v.SetDefault(KeyGuardCommand, "")
	v.SetDefault(KeyModuleNames, DefaultModuleNames)
	v.SetDefault(KeyReloadCommand, "")
}
