package cloudconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultContextName is used when login is invoked without an explicit context name.
	DefaultContextName = "default"

	// configFile is the YAML file name for the persisted cloud config.
	configFile = ".yatai.yaml"
)

// ErrContextNotFound is returned when a named context does not exist in the store.
var ErrContextNotFound = errors.New("context not found")

// Context is a named credential profile for a BentoCloud endpoint.
// A Context is only constructed after the token has been validated against
// the remote service; partially-validated contexts are never persisted.
type Context struct {
	Name     string `yaml:"name" json:"name"`
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	APIToken string `yaml:"api_token" json:"api_token"`
	Email    string `yaml:"email" json:"email"`
}

// Config is the on-disk shape of the context store.
type Config struct {
	Contexts           []Context `yaml:"contexts"`
	CurrentContextName string    `yaml:"current_context_name"`
}

// Store is a file-backed collection of contexts plus the current-context
// pointer. Construct it once at process start and pass it to whatever needs
// it; every mutation rewrites the backing file atomically.
type Store struct {
	path   string
	config *Config
}

// NewStore creates a store backed by the config file under dir
// (typically ~/.bentoml). The file is loaded lazily on first access.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, configFile)}
}

// DefaultDir resolves the BentoML home directory, honoring BENTOML_HOME.
func DefaultDir() (string, error) {
	if home := os.Getenv("BENTOML_HOME"); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".bentoml"), nil
}

// Path returns the location of the backing file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() (*Config, error) {
	if s.config != nil {
		return s.config, nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.config = &Config{}
			return s.config, nil
		}
		return nil, fmt.Errorf("failed to read cloud config %s: %w", s.path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse cloud config %s: %w", s.path, err)
	}

	s.config = &cfg
	return s.config, nil
}

// save rewrites the backing file. The config is written to a uniquely named
// temp file in the same directory and renamed over the old one, so a crash
// mid-write never leaves a half-written store behind.
func (s *Store) save() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(s.config)
	if err != nil {
		return fmt.Errorf("failed to marshal cloud config: %w", err)
	}

	tmp := fmt.Sprintf("%s.%s.tmp", s.path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write cloud config to %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace cloud config %s: %w", s.path, err)
	}

	log.WithField("path", s.path).Debug("cloud config saved")
	return nil
}

// GetCurrentContext returns the context the current-context pointer refers
// to. An empty store yields ErrContextNotFound; a pointer naming a missing
// context is a corrupt store and is reported, not repaired.
func (s *Store) GetCurrentContext() (*Context, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	if cfg.CurrentContextName == "" {
		return nil, fmt.Errorf("no current context: %w", ErrContextNotFound)
	}
	for i := range cfg.Contexts {
		if cfg.Contexts[i].Name == cfg.CurrentContextName {
			return &cfg.Contexts[i], nil
		}
	}
	return nil, fmt.Errorf("current context %q is missing from the store: %w", cfg.CurrentContextName, ErrContextNotFound)
}

// ListContextNames returns all context names in store order.
func (s *Store) ListContextNames() ([]string, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cfg.Contexts))
	for _, c := range cfg.Contexts {
		names = append(names, c.Name)
	}
	return names, nil
}

// AddContext upserts ctx by name, keeping the original position on replace,
// then makes it the current context and persists the store.
func (s *Store) AddContext(ctx Context) error {
	cfg, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i := range cfg.Contexts {
		if cfg.Contexts[i].Name == ctx.Name {
			cfg.Contexts[i] = ctx
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Contexts = append(cfg.Contexts, ctx)
	}
	cfg.CurrentContextName = ctx.Name

	return s.save()
}

// SetCurrentContext switches the current-context pointer to name and
// persists. The store is left untouched when name does not exist.
func (s *Store) SetCurrentContext(name string) (*Context, error) {
	cfg, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range cfg.Contexts {
		if cfg.Contexts[i].Name == name {
			cfg.CurrentContextName = name
			if err := s.save(); err != nil {
				return nil, err
			}
			return &cfg.Contexts[i], nil
		}
	}
	return nil, fmt.Errorf("context %q: %w", name, ErrContextNotFound)
}
