package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"imagegrab/pkg/config"
)

// Services with credentials the tool knows how to use.
const (
	ServiceImgur  = "imgur"
	ServiceReddit = "reddit"
)

// Credential is the identifier a source API issues to a registered
// application. For Reddit ClientID holds the installed app id and Secret
// stays empty.
type Credential struct {
	Service      string    `json:"service"`
	ClientID     string    `json:"client_id"`
	Secret       string    `json:"secret,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(cred *Credential) error
	Retrieve(service string) (*Credential, error)
	List() ([]*Credential, error)
	Delete(service string) error
	Exists(service string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager tries the system keychain first, then an encrypted file in the
// user config directory, and finally the environment.
func NewManager() (*Manager, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return NewManagerIn(configDir, true)
}

// NewManagerIn builds the chain with the encrypted store under dir. The
// keychain is skipped unless useKeyring is set and available.
func NewManagerIn(dir string, useKeyring bool) (*Manager, error) {
	var stores []CredentialStore

	if useKeyring {
		if ks, err := NewKeyringStore(); err == nil {
			stores = append(stores, ks)
		}
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(dir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// ValidService reports whether service names a known credential slot.
func ValidService(service string) bool {
	switch service {
	case ServiceImgur, ServiceReddit:
		return true
	}
	return false
}

// Store saves cred in the first store that accepts it.
func (m *Manager) Store(cred *Credential) error {
	if cred == nil || !ValidService(cred.Service) {
		return ErrInvalidCredentials
	}
	if strings.TrimSpace(cred.ClientID) == "" {
		return errors.New("client id is required")
	}

	cred.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(cred)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store credentials: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets credentials from the first store that has them
func (m *Manager) Retrieve(service string) (*Credential, error) {
	for _, store := range m.stores {
		if cred, err := store.Retrieve(service); err == nil && cred != nil {
			return cred, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, service)
}

// List returns the newest credential of every service across all stores.
func (m *Manager) List() ([]*Credential, error) {
	byService := make(map[string]*Credential)

	for _, store := range m.stores {
		creds, err := store.List()
		if err != nil {
			continue
		}
		for _, cred := range creds {
			if existing, ok := byService[cred.Service]; !ok || cred.LastModified.After(existing.LastModified) {
				byService[cred.Service] = cred
			}
		}
	}

	result := make([]*Credential, 0, len(byService))
	for _, cred := range byService {
		result = append(result, cred)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Service < result[j].Service })
	return result, nil
}

// Delete removes credentials from all stores
func (m *Manager) Delete(service string) error {
	var deleted bool
	var lastErr error

	for _, store := range m.stores {
		if err := store.Delete(service); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if !deleted && lastErr != nil && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete credentials: %w", lastErr)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrCredentialsNotFound, service)
	}
	return nil
}

// Apply fills identifiers missing from cfg with stored credentials. Values
// already present in cfg win.
func (m *Manager) Apply(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.Imgur.ClientID == "" {
		if cred, err := m.Retrieve(ServiceImgur); err == nil {
			cfg.Imgur.ClientID = cred.ClientID
		}
	}
	if cfg.Reddit.AppID == "" {
		if cred, err := m.Retrieve(ServiceReddit); err == nil {
			cfg.Reddit.AppID = cred.ClientID
		}
	}
}

// getConfigDir returns the configuration directory path
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "imagegrab")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "imagegrab")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "imagegrab")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "imagegrab")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// SanitizeCredential returns a copy safe to print.
func SanitizeCredential(cred *Credential) *Credential {
	if cred == nil {
		return nil
	}
	out := *cred
	out.ClientID = maskString(cred.ClientID)
	if cred.Secret != "" {
		out.Secret = maskString(cred.Secret)
	}
	return &out
}

// maskString keeps the first and last 4 characters
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrCredentialsNotFound = errors.New("credentials not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrStoreUnavailable    = errors.New("credential store unavailable")
)
