package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/security/secretbox"
)

// Provider es la configuración de credenciales de un provider social.
type Provider struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// ClientSecretEnc es el secret cifrado con secretbox (SOCIALGATE_MASTER_KEY).
	// Si está presente y la master key está disponible, pisa ClientSecret.
	ClientSecretEnc string   `yaml:"client_secret_enc"`
	RedirectURL     string   `yaml:"redirect_url"` // vacío => <server.base_url>/auth/<provider>/callback
	Scopes          []string `yaml:"scopes"`       // vacío => defaults del dialecto
}

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// BaseURL pública del gateway, usada para autogenerar redirect URLs.
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Frontend struct {
		// BaseURL del frontend: destino de los redirects de error.
		BaseURL string `yaml:"base_url"`
	} `yaml:"frontend"`

	Storage struct {
		Driver   string `yaml:"driver"` // memory | postgres
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			MinConns        int    `yaml:"min_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // memory | redis
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Session struct {
		Issuer    string `yaml:"issuer"`
		Secret    string `yaml:"secret"`
		SecretEnc string `yaml:"secret_enc"` // secret cifrado con secretbox
		TTL       string `yaml:"ttl"`
	} `yaml:"session"`

	State struct {
		TTL string `yaml:"ttl"`
	} `yaml:"state"`

	Rate struct {
		Enabled     bool   `yaml:"enabled"`
		MaxRequests int    `yaml:"max_requests"`
		Window      string `yaml:"window"`
	} `yaml:"rate"`

	Upstream struct {
		// Timeout de las llamadas salientes a token/userinfo endpoints.
		Timeout string `yaml:"timeout"`
	} `yaml:"upstream"`

	// ───────── Social Login Providers ─────────
	Providers struct {
		// Active es el provider por defecto para los alias /authorize
		// y /callback (deployments single-provider). También es el que
		// reporta /health.
		Active string `yaml:"active"`

		Google    Provider `yaml:"google"`
		Apple     Provider `yaml:"apple"`
		Microsoft Provider `yaml:"microsoft"`
		Facebook  Provider `yaml:"facebook"`
		GitHub    Provider `yaml:"github"`
		X         Provider `yaml:"x"`
		LinkedIn  Provider `yaml:"linkedin"`
		Discord   Provider `yaml:"discord"`
		Kakao     Provider `yaml:"kakao"`
		Naver     Provider `yaml:"naver"`
	} `yaml:"providers"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "socialgate"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "24h"
	}
	if c.State.TTL == "" {
		c.State.TTL = "5m"
	}
	if c.Upstream.Timeout == "" {
		c.Upstream.Timeout = "10s"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}

	// Overrides por env
	c.applyEnvOverrides()

	// Secrets cifrados: descifrar con la master key si está disponible.
	if err := c.decryptSecrets(); err != nil {
		return nil, err
	}

	// Autogenerar redirect URLs que falten.
	if base := strings.TrimRight(c.Server.BaseURL, "/"); base != "" {
		for _, pid := range oauth.Providers {
			p := c.provider(pid)
			if p.Enabled && strings.TrimSpace(p.RedirectURL) == "" {
				p.RedirectURL = base + "/auth/" + string(pid) + "/callback"
			}
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// provider retorna el bloque de un provider por su tag.
func (c *Config) provider(id oauth.ProviderID) *Provider {
	switch id {
	case oauth.Google:
		return &c.Providers.Google
	case oauth.Apple:
		return &c.Providers.Apple
	case oauth.Microsoft:
		return &c.Providers.Microsoft
	case oauth.Facebook:
		return &c.Providers.Facebook
	case oauth.GitHub:
		return &c.Providers.GitHub
	case oauth.X:
		return &c.Providers.X
	case oauth.LinkedIn:
		return &c.Providers.LinkedIn
	case oauth.Discord:
		return &c.Providers.Discord
	case oauth.Kakao:
		return &c.Providers.Kakao
	case oauth.Naver:
		return &c.Providers.Naver
	}
	return nil
}

// EnabledProviders retorna los bloques habilitados, keyed por tag.
func (c *Config) EnabledProviders() map[oauth.ProviderID]*Provider {
	out := map[oauth.ProviderID]*Provider{}
	for _, pid := range oauth.Providers {
		if p := c.provider(pid); p != nil && p.Enabled {
			out[pid] = p
		}
	}
	return out
}

// SessionTTL parsea Session.TTL (ya validado en Load).
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Session.TTL)
	return d
}

// StateTTL parsea State.TTL (ya validado en Load).
func (c *Config) StateTTL() time.Duration {
	d, _ := time.ParseDuration(c.State.TTL)
	return d
}

// RateWindow parsea Rate.Window (ya validado en Load).
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}

// UpstreamTimeout parsea Upstream.Timeout (ya validado en Load).
func (c *Config) UpstreamTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Upstream.Timeout)
	return d
}

// decryptSecrets descifra los campos *_enc cuando la master key está cargada.
func (c *Config) decryptSecrets() error {
	if c.Session.SecretEnc != "" && secretbox.Ready() {
		plain, err := secretbox.Decrypt(c.Session.SecretEnc)
		if err != nil {
			return fmt.Errorf("config: session.secret_enc: %w", err)
		}
		c.Session.Secret = plain
	}
	for _, pid := range oauth.Providers {
		p := c.provider(pid)
		if p == nil || p.ClientSecretEnc == "" {
			continue
		}
		if !secretbox.Ready() {
			return fmt.Errorf("config: providers.%s.client_secret_enc set but master key missing", pid)
		}
		plain, err := secretbox.Decrypt(p.ClientSecretEnc)
		if err != nil {
			return fmt.Errorf("config: providers.%s.client_secret_enc: %w", pid, err)
		}
		p.ClientSecret = plain
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_BASE_URL"); ok {
		c.Server.BaseURL = v
	}
	if v, ok := getEnvStr("FRONTEND_BASE_URL"); ok {
		c.Frontend.BaseURL = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("CACHE_REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("CACHE_REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// SESSION
	if v, ok := getEnvStr("SESSION_ISSUER"); ok {
		c.Session.Issuer = v
	}
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Session.Secret = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	// STATE / UPSTREAM
	if v, ok := getEnvStr("STATE_TTL"); ok {
		c.State.TTL = v
	}
	if v, ok := getEnvStr("UPSTREAM_TIMEOUT"); ok {
		c.Upstream.Timeout = v
	}

	// PROVIDERS: SOCIAL_<PROVIDER>_{ENABLED,CLIENT_ID,CLIENT_SECRET,REDIRECT_URL,SCOPES}
	if v, ok := getEnvStr("SOCIAL_ACTIVE_PROVIDER"); ok {
		c.Providers.Active = strings.ToLower(v)
	}
	for _, pid := range oauth.Providers {
		p := c.provider(pid)
		prefix := "SOCIAL_" + strings.ToUpper(string(pid)) + "_"
		if v, ok := getEnvBool(prefix + "ENABLED"); ok {
			p.Enabled = v
		}
		if v, ok := getEnvStr(prefix + "CLIENT_ID"); ok {
			p.ClientID = v
		}
		if v, ok := getEnvStr(prefix + "CLIENT_SECRET"); ok {
			p.ClientSecret = v
		}
		if v, ok := getEnvStr(prefix + "REDIRECT_URL"); ok {
			p.RedirectURL = v
		}
		if v, ok := getEnvCSV(prefix + "SCOPES"); ok {
			p.Scopes = v
		}
	}
}

// Validate performs validation of critical configuration values.
func (c *Config) Validate() error {
	for _, ttl := range []struct{ name, val string }{
		{"session.ttl", c.Session.TTL},
		{"state.ttl", c.State.TTL},
		{"upstream.timeout", c.Upstream.Timeout},
		{"rate.window", c.Rate.Window},
	} {
		if _, err := time.ParseDuration(ttl.val); err != nil {
			return fmt.Errorf("config: %s: %w", ttl.name, err)
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return fmt.Errorf("config: storage.postgres.conn_max_lifetime: %w", err)
		}
	}
	if c.Storage.Driver == "postgres" && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.driver=postgres requires storage.dsn")
	}
	if c.Cache.Kind == "redis" && strings.TrimSpace(c.Cache.Redis.Addr) == "" {
		return fmt.Errorf("config: cache.kind=redis requires cache.redis.addr")
	}
	if c.Providers.Active != "" {
		pid, err := oauth.ParseProviderID(c.Providers.Active)
		if err != nil {
			return fmt.Errorf("config: providers.active: %w", err)
		}
		if p := c.provider(pid); p == nil || !p.Enabled {
			return fmt.Errorf("config: providers.active=%s is not enabled", pid)
		}
	}
	for pid, p := range c.EnabledProviders() {
		if strings.TrimSpace(p.ClientID) == "" {
			return fmt.Errorf("config: providers.%s: client_id is required", pid)
		}
	}
	return nil
}
