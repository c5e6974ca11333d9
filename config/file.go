package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is the subset of Config written by "davgate init".
type File struct {
	Server  FileServer  `yaml:"server"`
	Storage FileStorage `yaml:"storage"`
	Auth    FileAuth    `yaml:"auth"`
	Lock    FileLock    `yaml:"lock"`
	Log     FileLog     `yaml:"log"`
	Env     string      `yaml:"env"`
}

type FileServer struct {
	Listen string `yaml:"listen"`
	Prefix string `yaml:"prefix,omitempty"`
}

type FileStorage struct {
	Path            string `yaml:"path"`
	CaseInsensitive bool   `yaml:"case_insensitive"`
	FollowSymlinks  bool   `yaml:"follow_symlinks"`
	MacOS           bool   `yaml:"macos"`
}

type FileAuth struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password,omitempty"`
	PasswordFile string `yaml:"password_file,omitempty"`
}

type FileLock struct {
	Backend string `yaml:"backend"`
}

type FileLog struct {
	Level string `yaml:"level"`
}

// NewFile captures the persistable parts of cfg.
func NewFile(cfg *Config) *File {
	return &File{
		Server: FileServer{Listen: cfg.Server.Listen, Prefix: cfg.Server.Prefix},
		Storage: FileStorage{
			Path:            cfg.Storage.Path,
			CaseInsensitive: cfg.Storage.CaseInsensitive,
			FollowSymlinks:  cfg.Storage.FollowSymlinks,
			MacOS:           cfg.Storage.MacOS,
		},
		Auth: FileAuth{
			Username:     cfg.Auth.Username,
			Password:     cfg.Auth.Password,
			PasswordFile: cfg.Auth.PasswordFile,
		},
		Lock: FileLock{Backend: cfg.Lock.Backend},
		Log:  FileLog{Level: cfg.Log.Level},
		Env:  cfg.Env,
	}
}

// Save writes the file to path with owner-only permissions, since it may
// hold a password. The parent directory is created if needed.
func (f *File) Save(path string) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
