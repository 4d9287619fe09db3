// config.go - Durable settings and credential store for meeting-notify.
//
// Identity and endpoint settings live in a viper-managed config file.
// Access and refresh tokens prefer the OS keyring; on hosts without a
// usable keyring (headless sessions, containers) they fall back to the
// config file so authentication still round-trips. File writes are
// serialized through a file lock so a watcher daemon and a CLI invocation
// cannot corrupt the config by writing concurrently.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"

	"github.com/gebl/meeting-notify/internal/logging"
)

const (
	keyringService = "meeting-notify"
	configName     = "config"
	configType     = "yaml"

	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// Credentials is the snapshot of everything the auth layer consumes.
type Credentials struct {
	ClientID      string
	ClientSecret  string
	TenantID      string
	RedirectURI   string
	TokenEndpoint string
	SignInURL     string
	AccessToken   string
	RefreshToken  string
}

// Store is the single source of truth for credentials and settings.
// It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	v          *viper.Viper
	file       string
	flk        *flock.Flock
	useKeyring bool
}

// Open loads (or creates) the config file under dir. An empty dir selects
// ~/.config/meeting-notify.
func Open(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dir = filepath.Join(home, ".config", "meeting-notify")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(dir)
	setDefaults(v)

	file := filepath.Join(dir, configName+"."+configType)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.WriteConfigAs(file); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		logging.ConfigLogger.Info("Created default config file", "path", file)
	}

	s := &Store{
		v:          v,
		file:       file,
		flk:        flock.New(file + ".lock"),
		useKeyring: keyringAvailable(),
	}
	logging.ConfigLogger.Debug("Config store opened",
		"path", file, "keyring", s.useKeyring)
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client_id", "")
	v.SetDefault("client_secret", "")
	v.SetDefault("tenant_id", "common")
	v.SetDefault("redirect_uri", "http://localhost:8080/callback")
	v.SetDefault("token_endpoint", "")
	v.SetDefault("sign_in_url", "")
	v.SetDefault("graph_base_url", "https://graph.microsoft.com/v1.0")
	v.SetDefault("scope", "offline_access Calendars.Read")
	v.SetDefault("preferred_timezone", "")
	v.SetDefault("reminder_minutes", []int{15, 5, 0})
	v.SetDefault("poll_interval", "60s")
	v.SetDefault("lookahead", "12h")
	v.SetDefault(keyAccessToken, "")
	v.SetDefault(keyRefreshToken, "")
}

// keyringAvailable probes the OS keyring once so token reads do not pay a
// round-trip on every call when no backend exists.
func keyringAvailable() bool {
	err := keyring.Set(keyringService, "probe", "ok")
	if err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, "probe")
	return true
}

// Credentials returns a snapshot of the stored credentials.
func (s *Store) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Credentials{
		ClientID:      s.v.GetString("client_id"),
		ClientSecret:  s.v.GetString("client_secret"),
		TenantID:      s.v.GetString("tenant_id"),
		RedirectURI:   s.v.GetString("redirect_uri"),
		TokenEndpoint: s.tokenEndpointLocked(),
		SignInURL:     s.v.GetString("sign_in_url"),
		AccessToken:   s.tokenLocked(keyAccessToken),
		RefreshToken:  s.tokenLocked(keyRefreshToken),
	}
}

// AccessToken returns the stored access token, or "" if absent.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenLocked(keyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" if absent.
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenLocked(keyRefreshToken)
}

func (s *Store) tokenLocked(key string) string {
	if s.useKeyring {
		val, err := keyring.Get(keyringService, key)
		if err == nil {
			return val
		}
		if err != keyring.ErrNotFound {
			logging.ConfigLogger.Debug("Keyring read failed, falling back to file", "key", key, "error", err)
		}
	}
	return s.v.GetString(key)
}

// SetTokens persists both tokens synchronously. An empty refresh token
// leaves any previously stored refresh token in place, since the token
// endpoint may omit it on rotation.
func (s *Store) SetTokens(accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.putTokenLocked(keyAccessToken, accessToken); err != nil {
		return err
	}
	if refreshToken != "" {
		if err := s.putTokenLocked(keyRefreshToken, refreshToken); err != nil {
			return err
		}
	}
	if s.useKeyring {
		return nil
	}
	return s.writeLocked()
}

// ClearTokens removes both tokens (logout).
func (s *Store) ClearTokens() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.useKeyring {
		_ = keyring.Delete(keyringService, keyAccessToken)
		_ = keyring.Delete(keyringService, keyRefreshToken)
	}
	s.v.Set(keyAccessToken, "")
	s.v.Set(keyRefreshToken, "")
	return s.writeLocked()
}

func (s *Store) putTokenLocked(key, value string) error {
	if s.useKeyring {
		if err := keyring.Set(keyringService, key, value); err != nil {
			return fmt.Errorf("failed to store %s in keyring: %w", key, err)
		}
		return nil
	}
	s.v.Set(key, value)
	return nil
}

// writeLocked persists the viper state under the file lock. Callers hold s.mu.
func (s *Store) writeLocked() error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to lock config file: %w", err)
	}
	defer func() {
		if err := s.flk.Unlock(); err != nil {
			logging.ConfigLogger.Warn("Failed to release config lock", "error", err)
		}
	}()
	if err := s.v.WriteConfigAs(s.file); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (s *Store) tokenEndpointLocked() string {
	if ep := s.v.GetString("token_endpoint"); ep != "" {
		return ep
	}
	tenant := s.v.GetString("tenant_id")
	if tenant == "" {
		tenant = "common"
	}
	return fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", tenant)
}

// TokenEndpoint returns the configured token endpoint, defaulting to the
// tenant's v2.0 endpoint when unset.
func (s *Store) TokenEndpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokenEndpointLocked()
}

// GraphBaseURL returns the Graph API base, e.g. https://graph.microsoft.com/v1.0.
func (s *Store) GraphBaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString("graph_base_url")
}

// Scope returns the OAuth scope string requested on refresh.
func (s *Store) Scope() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString("scope")
}

// PreferredTimezone returns the user's display timezone (IANA id), or ""
// when the system default should be used.
func (s *Store) PreferredTimezone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetString("preferred_timezone")
}

// ReminderMinutes returns the reminder offsets in minutes before start.
func (s *Store) ReminderMinutes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.v.GetIntSlice("reminder_minutes")
}

// PollInterval returns how often the watcher refreshes the calendar view.
func (s *Store) PollInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.v.GetDuration("poll_interval")
	if d <= 0 {
		d = time.Minute
	}
	return d
}

// Lookahead returns how far ahead of now the calendar view extends.
func (s *Store) Lookahead() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.v.GetDuration("lookahead")
	if d <= 0 {
		d = 12 * time.Hour
	}
	return d
}

// OnChange registers fn to run whenever the config file changes on disk.
func (s *Store) OnChange(fn func()) {
	s.v.OnConfigChange(func(e fsnotify.Event) {
		logging.ConfigLogger.Info("Config file changed, reloading", "file", e.Name, "op", e.Op.String())
		fn()
	})
	s.v.WatchConfig()
}
