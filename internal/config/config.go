package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"filebridge/internal/repo"
)

const (
	DefaultTimeout          = 5 * time.Minute
	DefaultBaseURL          = "https://generativelanguage.googleapis.com"
	DefaultRetryMax         = 3
	DefaultServerAddr       = "127.0.0.1:8787"
	DefaultBatchConcurrency = 4
	DefaultOutputFormat     = "text"
	DefaultServiceName      = "filebridge"
	EnvPrefix               = "FILEBRIDGE"
)

// AuthType is the credential mode the tools run under.
type AuthType string

const (
	AuthGeminiAPIKey  AuthType = "gemini-api-key"
	AuthOAuthPersonal AuthType = "oauth-personal"
	AuthVertexAI      AuthType = "vertex-ai"
	AuthCloudShell    AuthType = "cloud-shell"
)

// Valid reports whether a is a known auth mode.
func (a AuthType) Valid() bool {
	switch a {
	case AuthGeminiAPIKey, AuthOAuthPersonal, AuthVertexAI, AuthCloudShell:
		return true
	}
	return false
}

// RemoteConfig tunes the Files API transport.
type RemoteConfig struct {
	RetryMax          int     `mapstructure:"retry_max"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// ServerConfig controls the HTTP tool server.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TracingConfig enables OTLP trace export when Endpoint is set.
type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// Config holds runtime configuration values.
type Config struct {
	WorkspaceDirs    []string
	TempDir          string
	AuthType         AuthType
	APIKey           string
	BaseURL          string
	Timeout          time.Duration
	IgnoreFile       string
	RespectDenylist  bool
	Verbose          bool
	JSON             bool
	OutputFormat     string
	Remote           RemoteConfig
	Server           ServerConfig
	Tracing          TracingConfig
	BatchConcurrency int
}

type rawConfig struct {
	WorkspaceDirs    []string      `mapstructure:"workspace_dirs"`
	TempDir          string        `mapstructure:"temp_dir"`
	AuthType         string        `mapstructure:"auth_type"`
	APIKey           string        `mapstructure:"api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          string        `mapstructure:"timeout"`
	IgnoreFile       string        `mapstructure:"ignore_file"`
	RespectDenylist  bool          `mapstructure:"respect_denylist"`
	Verbose          bool          `mapstructure:"verbose"`
	JSON             bool          `mapstructure:"json"`
	OutputFormat     string        `mapstructure:"output_format"`
	Remote           RemoteConfig  `mapstructure:"remote"`
	Server           ServerConfig  `mapstructure:"server"`
	Tracing          TracingConfig `mapstructure:"tracing"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("workspace_dirs", []string{})
	v.SetDefault("temp_dir", "")
	v.SetDefault("auth_type", "")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("timeout", DefaultTimeout.String())
	v.SetDefault("ignore_file", repo.IgnoreFileName)
	v.SetDefault("respect_denylist", true)
	v.SetDefault("verbose", false)
	v.SetDefault("json", false)
	v.SetDefault("output_format", DefaultOutputFormat)
	v.SetDefault("remote.retry_max", DefaultRetryMax)
	v.SetDefault("remote.requests_per_second", 0)
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("tracing.otlp_endpoint", "")
	v.SetDefault("tracing.service_name", DefaultServiceName)
	v.SetDefault("batch_concurrency", DefaultBatchConcurrency)

	if cmd != nil {
		bindFlag(v, cmd, "workspace_dirs", "workspace")
		bindFlag(v, cmd, "temp_dir", "temp-dir")
		bindFlag(v, cmd, "auth_type", "auth-type")
		bindFlag(v, cmd, "base_url", "base-url")
		bindFlag(v, cmd, "timeout", "timeout")
		bindFlag(v, cmd, "ignore_file", "ignore-file")
		bindFlag(v, cmd, "verbose", "verbose")
		bindFlag(v, cmd, "json", "json")
		bindFlag(v, cmd, "output_format", "output")
		bindFlag(v, cmd, "server.addr", "addr")
		bindFlag(v, cmd, "batch_concurrency", "concurrency")
	}

	if seconds := os.Getenv("FILEBRIDGE_TIMEOUT_SECONDS"); seconds != "" {
		v.Set("timeout", seconds+"s")
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &raw,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout := DefaultTimeout
	if raw.Timeout != "" {
		parsed, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid timeout duration: %w", err)
		}
		timeout = parsed
	}

	authType, err := resolveAuthType(raw.AuthType)
	if err != nil {
		return Config{}, err
	}

	outputFormat := strings.ToLower(strings.TrimSpace(raw.OutputFormat))
	if raw.JSON {
		outputFormat = "json"
	}
	switch outputFormat {
	case "":
		outputFormat = DefaultOutputFormat
	case "text", "json", "yaml":
	default:
		return Config{}, fmt.Errorf("invalid output format %q: expected text, json or yaml", raw.OutputFormat)
	}

	cfg := Config{
		TempDir:          raw.TempDir,
		AuthType:         authType,
		APIKey:           strings.TrimSpace(raw.APIKey),
		BaseURL:          raw.BaseURL,
		Timeout:          timeout,
		IgnoreFile:       raw.IgnoreFile,
		RespectDenylist:  raw.RespectDenylist,
		Verbose:          raw.Verbose,
		JSON:             outputFormat == "json",
		OutputFormat:     outputFormat,
		Remote:           raw.Remote,
		Server:           raw.Server,
		Tracing:          raw.Tracing,
		BatchConcurrency: raw.BatchConcurrency,
	}

	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.IgnoreFile == "" {
		cfg.IgnoreFile = repo.IgnoreFileName
	}
	if cfg.Remote.RetryMax < 0 {
		cfg.Remote.RetryMax = 0
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultServerAddr
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = DefaultBatchConcurrency
	}

	cfg.WorkspaceDirs, err = resolveWorkspaceDirs(raw.WorkspaceDirs)
	if err != nil {
		return Config{}, err
	}
	if cfg.TempDir == "" {
		cfg.TempDir, err = DefaultTempDir(cfg.WorkspaceDirs[0])
		if err != nil {
			return Config{}, err
		}
	} else if cfg.TempDir, err = filepath.Abs(cfg.TempDir); err != nil {
		return Config{}, fmt.Errorf("resolve temp dir: %w", err)
	}

	return cfg, nil
}

// DefaultTempDir returns the per-project temp directory for root under the
// user cache directory.
func DefaultTempDir(root string) (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve cache dir: %w", err)
	}
	sum := sha256.Sum256([]byte(root))
	return filepath.Join(cacheDir, "filebridge", "tmp", hex.EncodeToString(sum[:])[:16]), nil
}

func resolveAuthType(value string) (AuthType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		if vertex, _ := strconv.ParseBool(os.Getenv("GOOGLE_GENAI_USE_VERTEXAI")); vertex {
			return AuthVertexAI, nil
		}
		return AuthGeminiAPIKey, nil
	}
	auth := AuthType(value)
	if !auth.Valid() {
		return "", fmt.Errorf("invalid auth type %q", value)
	}
	return auth, nil
}

func resolveWorkspaceDirs(dirs []string) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace dir %s: %w", dir, err)
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	if len(out) == 0 {
		root, err := repo.FindRoot(".")
		if err != nil {
			return nil, fmt.Errorf("find workspace root: %w", err)
		}
		out = append(out, root)
	}
	return out, nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

func loadConfigFile(v *viper.Viper) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "filebridge")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return fmt.Errorf("read config %s: %w", path, err)
			}
			return nil
		}
	}
	return nil
}
