package config_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/davgate"
	"github.com/sagarc03/davgate/config"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func withCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("DAVGATE_AUTH_USERNAME", "alice")
	t.Setenv("DAVGATE_AUTH_PASSWORD", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	withCredentials(t)

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4918", cfg.Server.Listen)
	assert.Equal(t, "", cfg.Server.Prefix)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.False(t, cfg.Storage.CaseInsensitive)
	assert.True(t, cfg.Storage.FollowSymlinks)
	assert.Equal(t, runtime.GOOS == "darwin", cfg.Storage.MacOS)
	assert.Equal(t, "alice", cfg.Auth.Username)
	assert.Equal(t, "secret", cfg.Auth.Password)
	assert.False(t, cfg.Auth.LogCredentials)
	assert.Equal(t, "memory", cfg.Lock.Backend)
	assert.False(t, cfg.Audit.Enabled)
	assert.Equal(t, "sqlite", cfg.Audit.Database.Type)
	assert.Equal(t, "davgate-audit.db", cfg.Audit.Database.DSN)
	assert.Equal(t, "davgate_auth_failures", cfg.Audit.Database.Tables.Audit)
	assert.Equal(t, 1024, cfg.Audit.Buffer)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9418", cfg.Metrics.Listen)
	assert.False(t, cfg.CORS.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "dev", cfg.Env)
	assert.False(t, cfg.IsProd())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  listen: 0.0.0.0:8080
  prefix: /dav/
storage:
  path: /srv/dav
  case_insensitive: true
  follow_symlinks: false
  macos: true
auth:
  username: bob
  password: hunter2
  log_credentials: true
lock:
  backend: fake
audit:
  enabled: true
  buffer: 16
  database:
    type: postgres
    dsn: postgres://localhost/audit
    tables:
      audit: custom_audit
metrics:
  enabled: true
  listen: 127.0.0.1:9999
log:
  level: debug
env: prod
`)

	cfg, err := config.Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Listen)
	assert.Equal(t, "/dav/", cfg.Server.Prefix)
	assert.Equal(t, "/srv/dav", cfg.Storage.Path)
	assert.True(t, cfg.Storage.CaseInsensitive)
	assert.False(t, cfg.Storage.FollowSymlinks)
	assert.True(t, cfg.Storage.MacOS)
	assert.Equal(t, "bob", cfg.Auth.Username)
	assert.Equal(t, "hunter2", cfg.Auth.Password)
	assert.True(t, cfg.Auth.LogCredentials)
	assert.Equal(t, "fake", cfg.Lock.Backend)
	assert.True(t, cfg.Audit.Enabled)
	assert.Equal(t, 16, cfg.Audit.Buffer)
	assert.Equal(t, "postgres", cfg.Audit.Database.Type)
	assert.Equal(t, "custom_audit", cfg.Audit.Database.Tables.Audit)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9999", cfg.Metrics.Listen)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.IsProd())
}

func TestLoad_ConfigFileMerge(t *testing.T) {
	base := writeConfig(t, "base.yaml", `
server:
  listen: 127.0.0.1:4918
auth:
  username: alice
  password: one
`)
	override := writeConfig(t, "override.yaml", `
server:
  prefix: /files
auth:
  password: two
`)

	cfg, err := config.Load([]string{base, override}, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4918", cfg.Server.Listen)
	assert.Equal(t, "/files", cfg.Server.Prefix)
	assert.Equal(t, "alice", cfg.Auth.Username)
	assert.Equal(t, "two", cfg.Auth.Password)
}

func TestLoad_Flags(t *testing.T) {
	withCredentials(t)

	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.StringP("listen", "l", "", "")
	flags.StringP("dir", "d", "", "")
	flags.StringP("username", "u", "", "")
	flags.StringP("password", "p", "", "")
	flags.String("prefix", "", "")
	flags.String("unrelated", "", "")

	require.NoError(t, flags.Parse([]string{
		"-l", "127.0.0.1:5000", "-d", "/tmp/share", "-u", "carol", "--prefix", "/webdav", "--unrelated", "x",
	}))

	cfg, err := config.Load(nil, flags)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5000", cfg.Server.Listen)
	assert.Equal(t, "/tmp/share", cfg.Storage.Path)
	assert.Equal(t, "carol", cfg.Auth.Username, "flags beat env")
	assert.Equal(t, "secret", cfg.Auth.Password, "unset flag keeps env value")
	assert.Equal(t, "/webdav", cfg.Server.Prefix)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	withCredentials(t)
	t.Setenv("DAVGATE_SERVER_LISTEN", "127.0.0.1:7000")
	t.Setenv("DAVGATE_LOCK_BACKEND", "fake")
	t.Setenv("DAVGATE_AUDIT_ENABLED", "true")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Listen)
	assert.Equal(t, "fake", cfg.Lock.Backend)
	assert.True(t, cfg.Audit.Enabled)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing username",
			env:     map[string]string{"DAVGATE_AUTH_PASSWORD": "x"},
			wantErr: "Username",
		},
		{
			name:    "missing password",
			env:     map[string]string{"DAVGATE_AUTH_USERNAME": "x"},
			wantErr: "Password",
		},
		{
			name:    "bad prefix",
			env:     map[string]string{"DAVGATE_SERVER_PREFIX": "dav"},
			wantErr: "Prefix",
		},
		{
			name:    "bad listen address",
			env:     map[string]string{"DAVGATE_SERVER_LISTEN": "not-an-address"},
			wantErr: "Listen",
		},
		{
			name:    "unknown lock backend",
			env:     map[string]string{"DAVGATE_LOCK_BACKEND": "redis"},
			wantErr: "Backend",
		},
		{
			name:    "bad audit table",
			env:     map[string]string{"DAVGATE_AUDIT_DATABASE_TABLES_AUDIT": "Bad-Table"},
			wantErr: "Audit",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"DAVGATE_LOG_LEVEL": "loud"},
			wantErr: "Level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := tt.env["DAVGATE_AUTH_USERNAME"]; !ok && tt.name != "missing username" {
				t.Setenv("DAVGATE_AUTH_USERNAME", "alice")
			}
			if _, ok := tt.env["DAVGATE_AUTH_PASSWORD"]; !ok && tt.name != "missing password" {
				t.Setenv("DAVGATE_AUTH_PASSWORD", "secret")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.Load(nil, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_PasswordFileSatisfiesPassword(t *testing.T) {
	credPath := writeConfig(t, "cred.json", `{"username": "filed", "password": "from-file"}`)
	t.Setenv("DAVGATE_AUTH_USERNAME", "alice")
	t.Setenv("DAVGATE_AUTH_PASSWORD_FILE", credPath)

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	cred, err := cfg.Auth.Credential()
	require.NoError(t, err)
	assert.Equal(t, "filed", cred.Username)
	assert.Equal(t, "from-file", cred.Password)
}

func TestAuthConfig_Credential(t *testing.T) {
	t.Run("inline", func(t *testing.T) {
		cred, err := config.AuthConfig{Username: "a", Password: "b"}.Credential()
		require.NoError(t, err)
		assert.Equal(t, "a", cred.Username)
		assert.Equal(t, "b", cred.Password)
	})

	t.Run("file without username keeps configured one", func(t *testing.T) {
		path := writeConfig(t, "cred.json", `{"password": "p"}`)
		cred, err := config.AuthConfig{Username: "a", PasswordFile: path}.Credential()
		require.NoError(t, err)
		assert.Equal(t, "a", cred.Username)
		assert.Equal(t, "p", cred.Password)
	})

	t.Run("file without password keeps configured one", func(t *testing.T) {
		path := writeConfig(t, "cred.json", `{"username": "filed"}`)
		cred, err := config.AuthConfig{Username: "a", Password: "configured", PasswordFile: path}.Credential()
		require.NoError(t, err)
		assert.Equal(t, "filed", cred.Username)
		assert.Equal(t, "configured", cred.Password)
	})

	t.Run("empty merged password", func(t *testing.T) {
		path := writeConfig(t, "cred.json", `{"username": "filed"}`)
		_, err := config.AuthConfig{PasswordFile: path}.Credential()
		assert.ErrorIs(t, err, davgate.ErrInvalidInput)
	})

	t.Run("empty merged username", func(t *testing.T) {
		path := writeConfig(t, "cred.json", `{"password": "p"}`)
		_, err := config.AuthConfig{PasswordFile: path}.Credential()
		assert.ErrorIs(t, err, davgate.ErrInvalidInput)
	})

	t.Run("merged credential tolerates gaps", func(t *testing.T) {
		path := writeConfig(t, "cred.json", `{"username": "filed"}`)
		cred, err := config.AuthConfig{PasswordFile: path}.MergedCredential()
		require.NoError(t, err)
		assert.Equal(t, "filed", cred.Username)
		assert.Empty(t, cred.Password)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.AuthConfig{Username: "a", PasswordFile: "/nonexistent/cred.json"}.Credential()
		assert.Error(t, err)
	})
}

func TestLoad_UsernameFromPasswordFile(t *testing.T) {
	credPath := writeConfig(t, "cred.json", `{"username": "filed", "password": "from-file"}`)
	t.Setenv("DAVGATE_AUTH_PASSWORD_FILE", credPath)

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	cred, err := cfg.Auth.Credential()
	require.NoError(t, err)
	assert.Equal(t, "filed", cred.Username)
}

func TestLoad_PasswordFileWithoutPassword(t *testing.T) {
	credPath := writeConfig(t, "cred.json", `{"username": "bob"}`)
	t.Setenv("DAVGATE_AUTH_PASSWORD_FILE", credPath)

	_, err := config.Load(nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, davgate.ErrInvalidInput)
}

func TestLoad_CORSFromEnvironment(t *testing.T) {
	withCredentials(t)
	t.Setenv("DAVGATE_CORS_ENABLED", "true")
	t.Setenv("DAVGATE_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("DAVGATE_CORS_ALLOW_CREDENTIALS", "true")
	t.Setenv("DAVGATE_CORS_MAX_AGE", "600")

	cfg, err := config.Load(nil, nil)
	require.NoError(t, err)

	assert.True(t, cfg.CORS.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
}

func TestRead_SkipsValidation(t *testing.T) {
	cfg, err := config.Read(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.Username)
	assert.Error(t, cfg.Validate())
}

func TestContext(t *testing.T) {
	_, err := config.FromContext(context.Background())
	assert.Error(t, err)

	cfg := &config.Config{Env: "dev"}
	got, err := config.FromContext(config.WithContext(context.Background(), cfg))
	require.NoError(t, err)
	assert.Same(t, cfg, got)
}
