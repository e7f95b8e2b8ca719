package config

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the parsed ~/.config/parley/config.toml.
type Config struct {
	Servers     []Server    `toml:"servers" validate:"unique=Name,dive"`
	DCC         DCC         `toml:"dcc"`
	Behavior    Behavior    `toml:"behavior"`
	Logging     Logging     `toml:"logging"`
	CTCP        CTCP        `toml:"ctcp"`
	UI          UI          `toml:"ui"`
	Diagnostics Diagnostics `toml:"diagnostics"`
}

// Server is one [[servers]] entry.
type Server struct {
	Name               string   `toml:"name" validate:"required,excludesall=/\\"`
	Host               string   `toml:"host" validate:"required,hostname_rfc1123|ip"`
	Port               int      `toml:"port" validate:"gte=0,lte=65535"`
	TLS                bool     `toml:"tls"`
	InsecureSkipVerify bool     `toml:"insecure_skip_verify"`
	Proxy              string   `toml:"proxy" validate:"omitempty,url"`
	Nickname           string   `toml:"nickname" validate:"omitempty,ircname"`
	AltNicks           []string `toml:"alt_nicks" validate:"dive,required,ircname"`
	Username           string   `toml:"username"`
	Realname           string   `toml:"realname"`
	Password           string   `toml:"password"`
	Channels           []string `toml:"channels" validate:"dive,required,ircname"`
	AutoConnect        bool     `toml:"auto_connect"`
	QuitMessage        string   `toml:"quit_message"`
	ReadTimeoutSeconds int      `toml:"read_timeout_seconds" validate:"gte=0"`
}

// DCC is the [dcc] section.
type DCC struct {
	DownloadDir            string `toml:"download_dir"`
	MaxFileSize            uint64 `toml:"max_file_size" validate:"gt=0"`
	RejectPrivateAddresses bool   `toml:"reject_private_addresses"`
	AutoAccept             bool   `toml:"auto_accept"`
	ConnectTimeoutSeconds  int    `toml:"connect_timeout_seconds" validate:"gt=0,lte=600"`
	RemovePartial          bool   `toml:"remove_partial"`
}

// Behavior is the [behavior] section.
type Behavior struct {
	BellOnMention     bool   `toml:"bell_on_mention"`
	BellOnPM          bool   `toml:"bell_on_pm"`
	AutoReconnect     bool   `toml:"auto_reconnect"`
	ReconnectAttempts int    `toml:"reconnect_attempts" validate:"gte=0,lte=100"`
	PartMessage       string `toml:"part_message"`
	QuitMessage       string `toml:"quit_message"`
}

// Logging is the [logging] section controlling chat logs.
type Logging struct {
	Enabled      bool   `toml:"enabled"`
	Dir          string `toml:"dir"`
	Channels     bool   `toml:"channels"`
	Queries      bool   `toml:"queries"`
	BacklogLines int    `toml:"backlog_lines" validate:"gte=0,lte=10000"`
}

// CTCP is the [ctcp] section.
type CTCP struct {
	ReplyVersion  bool   `toml:"reply_version"`
	ReplyPing     bool   `toml:"reply_ping"`
	ReplyTime     bool   `toml:"reply_time"`
	VersionString string `toml:"version_string"`
}

// UI is the [ui] section.
type UI struct {
	MaxScrollback   int    `toml:"max_scrollback" validate:"gt=0"`
	TimestampFormat string `toml:"timestamp_format" validate:"required"`
}

// Diagnostics is the [diagnostics] section for parley's own log.
type Diagnostics struct {
	File   string `toml:"file"`
	Level  string `toml:"level" validate:"oneof=trace debug info warn warning error"`
	Format string `toml:"format" validate:"oneof=text json"`
}

const (
	defaultConfigPath  = "~/.config/parley/config.toml"
	defaultDownloadDir = "~/Downloads/parley"
	defaultLogDir      = "~/.local/share/parley/logs"
	defaultDiagFile    = "~/.local/state/parley/parley.log"
	defaultMaxFileSize = 4 * 1024 * 1024 * 1024
	defaultVersion     = "parley"
	defaultPlainPort   = 6667
	defaultTLSPort     = 6697
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Nicks and channel names travel as single protocol parameters.
	_ = validate.RegisterValidation("ircname", validateIRCName)
}

func validateIRCName(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), " ,\r\n\x00\x07")
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DCC: DCC{
			DownloadDir:            defaultDownloadDir,
			MaxFileSize:            defaultMaxFileSize,
			RejectPrivateAddresses: true,
			ConnectTimeoutSeconds:  30,
		},
		Behavior: Behavior{
			BellOnMention:     true,
			BellOnPM:          true,
			ReconnectAttempts: 5,
		},
		Logging: Logging{
			Dir:          defaultLogDir,
			Channels:     true,
			Queries:      true,
			BacklogLines: 50,
		},
		CTCP: CTCP{
			ReplyVersion:  true,
			ReplyPing:     true,
			ReplyTime:     true,
			VersionString: defaultVersion,
		},
		UI: UI{
			MaxScrollback:   10000,
			TimestampFormat: "15:04",
		},
		Diagnostics: Diagnostics{
			File:   defaultDiagFile,
			Level:  "info",
			Format: "text",
		},
	}
}

// Load locates and parses the parley config, falling back to defaults when
// the file is missing. Paths in the result are absolute.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg.finish()
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg.finish()
}

func (c Config) finish() (Config, error) {
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	c.DCC.DownloadDir = mustExpand(c.DCC.DownloadDir)
	c.Logging.Dir = mustExpand(c.Logging.Dir)
	if c.Diagnostics.File != "" {
		c.Diagnostics.File = mustExpand(c.Diagnostics.File)
	}
	return c, nil
}

// normalize trims strings and fills per-server defaults.
func (c *Config) normalize() {
	for i := range c.Servers {
		s := &c.Servers[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Host = strings.TrimSpace(s.Host)
		s.Nickname = strings.TrimSpace(s.Nickname)
		if s.Port == 0 {
			s.Port = defaultPlainPort
			if s.TLS {
				s.Port = defaultTLSPort
			}
		}
		if s.Nickname == "" {
			s.Nickname = RandomNickname()
		}
		if strings.TrimSpace(s.Username) == "" {
			s.Username = strings.ToLower(s.Nickname)
		}
		if strings.TrimSpace(s.Realname) == "" {
			s.Realname = s.Nickname
		}
	}
	if strings.TrimSpace(c.DCC.DownloadDir) == "" {
		c.DCC.DownloadDir = defaultDownloadDir
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		c.Logging.Dir = defaultLogDir
	}
	if strings.TrimSpace(c.CTCP.VersionString) == "" {
		c.CTCP.VersionString = defaultVersion
	}
	c.Diagnostics.Level = strings.ToLower(strings.TrimSpace(c.Diagnostics.Level))
	if c.Diagnostics.Level == "" {
		c.Diagnostics.Level = "info"
	}
	c.Diagnostics.Format = strings.ToLower(strings.TrimSpace(c.Diagnostics.Format))
	if c.Diagnostics.Format == "" {
		c.Diagnostics.Format = "text"
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Server returns the entry named name, case-insensitively.
func (c Config) Server(name string) (Server, bool) {
	for _, s := range c.Servers {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Server{}, false
}

var (
	nickAdjectives = []string{
		"Amber", "Brisk", "Calm", "Dapper", "Eager", "Fuzzy", "Gentle", "Hasty",
		"Idle", "Jolly", "Keen", "Lucky", "Mellow", "Nimble", "Quiet", "Rusty",
		"Sly", "Tidy", "Vivid", "Witty",
	}
	nickNouns = []string{
		"Badger", "Comet", "Dingo", "Falcon", "Gecko", "Heron", "Ibis", "Koala",
		"Lynx", "Marten", "Newt", "Otter", "Panda", "Quail", "Raven", "Stoat",
		"Tapir", "Vole", "Walrus", "Yak",
	}
)

// RandomNickname returns an AdjectiveNounNN nickname.
func RandomNickname() string {
	return fmt.Sprintf("%s%s%02d",
		nickAdjectives[rand.IntN(len(nickAdjectives))],
		nickNouns[rand.IntN(len(nickNouns))],
		rand.IntN(100))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

// DefaultPath returns the config path used when none is given.
func DefaultPath() string {
	return defaultConfigPath
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
