// Package config is the encrypted-at-rest store for provider credentials,
// the access passcode, and security policy values. Secrets are encrypted
// with a symmetric key kept in a file next to the config, and every failure
// mode degrades to defaults rather than surfacing an error: a corrupt file
// reads as first run, a bad ciphertext reads as "no secret configured".
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	keyFileName = ".encryption_key"

	secretPlaceholder = "***"
)

const (
	defaultOpenAIModel = "gpt-5-nano"
	defaultGeminiModel = "gemini-2.5-flash-pro"
)

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Enabled bool   `json:"enabled"`
}

type Settings struct {
	DefaultProvider string `json:"default_provider"`
	Timeout         int    `json:"timeout"`
	MaxRetries      int    `json:"max_retries"`
}

type AuthPolicy struct {
	Passcode          string `json:"passcode"`
	Enabled           bool   `json:"enabled"`
	AutoLogoutEnabled bool   `json:"auto_logout_enabled"`
	AutoLogoutHours   int    `json:"auto_logout_hours"`
	MaxFailedAttempts int    `json:"max_failed_attempts"`
}

type ServerSettings struct {
	HTTPSEnabled bool   `json:"https_enabled"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	CertFile     string `json:"cert_file"`
	KeyFile      string `json:"key_file"`
	ForceHTTPS   bool   `json:"force_https"`
}

// Document is the full persisted configuration. Secret fields hold
// ciphertext on disk; Export replaces them before anything leaves the store.
type Document struct {
	OpenAI   ProviderConfig `json:"openai"`
	Gemini   ProviderConfig `json:"gemini"`
	Settings Settings       `json:"settings"`
	Auth     AuthPolicy     `json:"auth"`
	Server   ServerSettings `json:"server"`
}

// Store owns the config file, the key file, and the in-memory document.
// It assumes a single process and a single writer; mutations rewrite the
// whole file.
type Store struct {
	path string
	box  *cipherBox
	doc  Document
}

func defaultDocument() Document {
	return Document{
		OpenAI: ProviderConfig{Model: defaultOpenAIModel},
		Gemini: ProviderConfig{Model: defaultGeminiModel},
		Settings: Settings{
			DefaultProvider: ProviderOpenAI,
			Timeout:         30,
			MaxRetries:      3,
		},
		Auth: AuthPolicy{
			AutoLogoutEnabled: true,
			AutoLogoutHours:   24,
			MaxFailedAttempts: 5,
		},
		Server: ServerSettings{
			Host: "127.0.0.1",
			Port: 8080,
		},
	}
}

// Open loads the config file at path, creating it with defaults on first
// run. A malformed file is treated as first run, not an error.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	key, err := loadOrCreateKey(filepath.Join(dir, keyFileName))
	if err != nil {
		return nil, err
	}
	box, err := newCipherBox(key)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path, box: box, doc: loadDocument(path)}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func loadDocument(path string) Document {
	raw, err := os.ReadFile(path)
	if err != nil {
		return defaultDocument()
	}

	doc := defaultDocument()
	if err := json.Unmarshal(raw, &doc); err != nil {
		return defaultDocument()
	}

	return doc
}

func (s *Store) save() error {
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

func (s *Store) provider(name string) *ProviderConfig {
	switch name {
	case ProviderOpenAI:
		return &s.doc.OpenAI
	case ProviderGemini:
		return &s.doc.Gemini
	default:
		return nil
	}
}

// Providers lists the provider names the store knows about.
func Providers() []string {
	return []string{ProviderOpenAI, ProviderGemini}
}

// SetAPIKey encrypts and stores the key for a provider. The enabled flag
// mirrors whether a non-empty key was set.
func (s *Store) SetAPIKey(name, key string) error {
	p := s.provider(name)
	if p == nil {
		return fmt.Errorf("unknown provider: %s", name)
	}

	p.APIKey = s.box.encrypt(key)
	p.Enabled = key != ""
	return s.save()
}

// APIKey returns the decrypted key for a provider, or "" when the field is
// empty or the ciphertext cannot be decrypted.
func (s *Store) APIKey(name string) string {
	p := s.provider(name)
	if p == nil {
		return ""
	}

	plaintext, ok := s.box.decrypt(p.APIKey)
	if !ok {
		return ""
	}
	return plaintext
}

func (s *Store) ClearAPIKey(name string) error {
	return s.SetAPIKey(name, "")
}

func (s *Store) ProviderEnabled(name string) bool {
	p := s.provider(name)
	return p != nil && p.Enabled
}

func (s *Store) Model(name string) string {
	p := s.provider(name)
	if p == nil {
		return ""
	}
	return p.Model
}

func (s *Store) SetModel(name, model string) error {
	p := s.provider(name)
	if p == nil {
		return fmt.Errorf("unknown provider: %s", name)
	}

	p.Model = model
	return s.save()
}

// SetPasscode encrypts and stores the application passcode. An empty
// passcode disables authentication entirely.
func (s *Store) SetPasscode(passcode string) error {
	s.doc.Auth.Passcode = s.box.encrypt(passcode)
	s.doc.Auth.Enabled = passcode != ""
	return s.save()
}

func (s *Store) Passcode() string {
	plaintext, ok := s.box.decrypt(s.doc.Auth.Passcode)
	if !ok {
		return ""
	}
	return plaintext
}

// PasscodeConfigured reports whether a non-empty passcode is stored. A
// ciphertext that no longer decrypts counts as not configured.
func (s *Store) PasscodeConfigured() bool {
	return s.Passcode() != ""
}

func (s *Store) AutoLogoutEnabled() bool {
	return s.doc.Auth.AutoLogoutEnabled
}

func (s *Store) SetAutoLogoutEnabled(enabled bool) error {
	s.doc.Auth.AutoLogoutEnabled = enabled
	return s.save()
}

func (s *Store) AutoLogoutHours() int {
	return s.doc.Auth.AutoLogoutHours
}

func (s *Store) SetAutoLogoutHours(hours int) error {
	s.doc.Auth.AutoLogoutHours = clamp(hours, 1, 168)
	return s.save()
}

func (s *Store) MaxFailedAttempts() int {
	return s.doc.Auth.MaxFailedAttempts
}

func (s *Store) SetMaxFailedAttempts(attempts int) error {
	s.doc.Auth.MaxFailedAttempts = clamp(attempts, 3, 20)
	return s.save()
}

func (s *Store) Timeout() int {
	return s.doc.Settings.Timeout
}

func (s *Store) SetTimeout(seconds int) error {
	s.doc.Settings.Timeout = clamp(seconds, 5, 120)
	return s.save()
}

func (s *Store) MaxRetries() int {
	return s.doc.Settings.MaxRetries
}

func (s *Store) SetMaxRetries(retries int) error {
	s.doc.Settings.MaxRetries = clamp(retries, 0, 10)
	return s.save()
}

func (s *Store) DefaultProvider() string {
	return s.doc.Settings.DefaultProvider
}

func (s *Store) SetDefaultProvider(name string) error {
	if s.provider(name) == nil {
		return fmt.Errorf("unknown provider: %s", name)
	}

	s.doc.Settings.DefaultProvider = name
	return s.save()
}

func (s *Store) Server() ServerSettings {
	return s.doc.Server
}

func (s *Store) SetServer(settings ServerSettings) error {
	settings.Port = clamp(settings.Port, 1, 65535)
	if strings.TrimSpace(settings.Host) == "" {
		settings.Host = s.doc.Server.Host
	}

	s.doc.Server = settings
	return s.save()
}

// ValidateKeyFormat is a format-only check, no network calls. It gates
// whether a key is worth storing or testing at all.
func ValidateKeyFormat(name, key string) bool {
	switch name {
	case ProviderOpenAI:
		return strings.HasPrefix(key, "sk-") && len(key) > 20
	case ProviderGemini:
		if !strings.HasPrefix(key, "AIzaSy") || len(key) != 39 {
			return false
		}
		for _, r := range key[len("AIzaSy"):] {
			if !isKeyRune(r) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func isKeyRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_':
		return true
	default:
		return false
	}
}

// AvailableProviders returns the providers whose stored keys pass format
// validation.
func (s *Store) AvailableProviders() []string {
	available := make([]string, 0, 2)
	for _, name := range Providers() {
		if ValidateKeyFormat(name, s.APIKey(name)) {
			available = append(available, name)
		}
	}

	return available
}

// Export returns a copy of the configuration. Secret fields never carry
// ciphertext out of the store: without includeSecrets they become a fixed
// placeholder (or "" when unset), with includeSecrets the decrypted value.
func (s *Store) Export(includeSecrets bool) Document {
	doc := s.doc

	doc.OpenAI.APIKey = s.exportSecret(s.APIKey(ProviderOpenAI), includeSecrets)
	doc.Gemini.APIKey = s.exportSecret(s.APIKey(ProviderGemini), includeSecrets)
	doc.Auth.Passcode = s.exportSecret(s.Passcode(), includeSecrets)

	return doc
}

func (s *Store) exportSecret(plaintext string, includeSecrets bool) string {
	if includeSecrets {
		return plaintext
	}
	if plaintext == "" {
		return ""
	}
	return secretPlaceholder
}

type ProviderStatus struct {
	Configured bool   `json:"configured"`
	Valid      bool   `json:"valid"`
	Enabled    bool   `json:"enabled"`
	Model      string `json:"model"`
}

type StatusSummary struct {
	OpenAI   ProviderStatus `json:"openai"`
	Gemini   ProviderStatus `json:"gemini"`
	Settings struct {
		DefaultProvider    string   `json:"default_provider"`
		AvailableProviders []string `json:"available_providers"`
		Timeout            int      `json:"timeout"`
		MaxRetries         int      `json:"max_retries"`
	} `json:"settings"`
}

func (s *Store) Status() StatusSummary {
	var summary StatusSummary
	summary.OpenAI = s.providerStatus(ProviderOpenAI)
	summary.Gemini = s.providerStatus(ProviderGemini)
	summary.Settings.DefaultProvider = s.DefaultProvider()
	summary.Settings.AvailableProviders = s.AvailableProviders()
	summary.Settings.Timeout = s.Timeout()
	summary.Settings.MaxRetries = s.MaxRetries()

	return summary
}

func (s *Store) providerStatus(name string) ProviderStatus {
	key := s.APIKey(name)
	return ProviderStatus{
		Configured: key != "",
		Valid:      ValidateKeyFormat(name, key),
		Enabled:    s.ProviderEnabled(name),
		Model:      s.Model(name),
	}
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
