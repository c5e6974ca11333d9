package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/database"
	davhttp "github.com/sagarc03/davgate/http"
	"github.com/sagarc03/davgate/lockbackend"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for davgate.
type Config struct {
	Server  ServerConfig       `mapstructure:"server"`
	Storage StorageConfig      `mapstructure:"storage"`
	Auth    AuthConfig         `mapstructure:"auth"`
	Lock    lockbackend.Config `mapstructure:"lock"`
	Audit   AuditConfig        `mapstructure:"audit"`
	Metrics MetricsConfig      `mapstructure:"metrics"`
	CORS    davhttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig          `mapstructure:"log"`
	Env     string             `mapstructure:"env" validate:"required,oneof=dev development prod production"`
}

// ServerConfig holds the WebDAV listener configuration.
type ServerConfig struct {
	Listen string `mapstructure:"listen" validate:"required,hostname_port"`
	Prefix string `mapstructure:"prefix" validate:"davprefix"`
}

// StorageConfig holds the serving directory configuration.
type StorageConfig struct {
	Path            string `mapstructure:"path" validate:"required"`
	CaseInsensitive bool   `mapstructure:"case_insensitive"`
	FollowSymlinks  bool   `mapstructure:"follow_symlinks"`
	MacOS           bool   `mapstructure:"macos"`
}

// AuthConfig holds the single accepted credential pair.
type AuthConfig struct {
	Username string `mapstructure:"username" validate:"required_without=PasswordFile"`
	Password string `mapstructure:"password" validate:"required_without=PasswordFile"`
	// PasswordFile points at a JSON credential file. Non-empty fields in the
	// file take precedence over Username and Password.
	PasswordFile   string `mapstructure:"password_file"`
	LogCredentials bool   `mapstructure:"log_credentials"`
}

// MergedCredential combines Username and Password with PasswordFile when
// set. Either half may come back empty.
func (a AuthConfig) MergedCredential() (davgate.Credential, error) {
	cred := davgate.Credential{Username: a.Username, Password: a.Password}
	if a.PasswordFile == "" {
		return cred, nil
	}

	fromFile, err := davgate.LoadCredentialFile(a.PasswordFile)
	if err != nil {
		return davgate.Credential{}, fmt.Errorf("resolve credential: %w", err)
	}
	if fromFile.Username != "" {
		cred.Username = fromFile.Username
	}
	if fromFile.Password != "" {
		cred.Password = fromFile.Password
	}

	return cred, nil
}

// Credential returns the merged credential and fails when either half is
// empty.
func (a AuthConfig) Credential() (davgate.Credential, error) {
	cred, err := a.MergedCredential()
	if err != nil {
		return davgate.Credential{}, err
	}
	if cred.Username == "" {
		return davgate.Credential{}, fmt.Errorf("resolve credential: empty username: %w", davgate.ErrInvalidInput)
	}
	if cred.Password == "" {
		return davgate.Credential{}, fmt.Errorf("resolve credential: empty password: %w", davgate.ErrInvalidInput)
	}

	return cred, nil
}

// AuditConfig holds the denied-request audit trail configuration.
type AuditConfig struct {
	Enabled  bool            `mapstructure:"enabled"`
	Database database.Config `mapstructure:"database"`
	Buffer   int             `mapstructure:"buffer" validate:"min=1"`
}

// MetricsConfig holds the admin listener configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen" validate:"required,hostname_port"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// IsProd reports whether production logging should be used.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"listen":         "server.listen",
	"prefix":         "server.prefix",
	"dir":            "storage.path",
	"username":       "auth.username",
	"password":       "auth.password",
	"password-file":  "auth.password_file",
	"metrics-listen": "metrics.listen",
	"log-level":      "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey, ok := flagToViperKey[f.Name]
		if !ok {
			return
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance. Keys without
// a meaningful default are still registered so that environment variables
// reach them during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen", "127.0.0.1:4918")
	v.SetDefault("server.prefix", "")

	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.case_insensitive", false)
	v.SetDefault("storage.follow_symlinks", true)
	v.SetDefault("storage.macos", runtime.GOOS == "darwin")

	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")
	v.SetDefault("auth.password_file", "")
	v.SetDefault("auth.log_credentials", false)

	v.SetDefault("lock.backend", lockbackend.BackendMemory)

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.database.type", "sqlite")
	v.SetDefault("audit.database.dsn", "davgate-audit.db")
	v.SetDefault("audit.database.tables.audit", "davgate_auth_failures")
	v.SetDefault("audit.buffer", 1024)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:9418")

	v.SetDefault("cors.enabled", false)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{})
	v.SetDefault("cors.allowed_headers", []string{})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("env", "dev")
}

// Read reads configuration without validating it.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Read(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("DAVGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if _, err := c.Auth.Credential(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Load reads configuration and returns a validated Config struct.
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	cfg, err := Read(configFiles, flags)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func newValidator() *validator.Validate {
	validate := validator.New()

	_ = validate.RegisterValidation("davprefix", func(fl validator.FieldLevel) bool {
		_, err := davgate.NormalizePrefix(fl.Field().String())
		return err == nil
	})
	_ = validate.RegisterValidation("tablename", func(fl validator.FieldLevel) bool {
		return davgate.IsValidTableName(fl.Field().String())
	})

	return validate
}
