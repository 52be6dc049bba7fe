package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // listing timestamps must not depend on the host zoneinfo
)

const redacted = "***REDACTED***"

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Portal
	PortalUsername      string
	PortalPassword      string
	PortalLoginURL      string        // SSO login form
	PortalHomeMarker    string        // substring of the URL reached after login
	PortalTableSelector string        // CSS selector of the activity table
	PortalHTMLFile      string        // optional, parse a saved page instead of logging in
	KindMarkers         []string      // optional, overrides the locale's markers
	Headless            bool          // run the browser without a window
	BrowserBin          string        // optional, browser executable
	NavTimeout          time.Duration // login navigation budget (ex: 30s)
	ExtractTimeout      time.Duration // wait for the activity table (ex: 15s)

	// Notification
	TelegramToken  string
	TelegramChatID string        // default destination
	TelegramAPIURL string        // optional, Bot API base URL
	SendPause      time.Duration // between chunks (ex: 1s)
	SendAttempts   int           // per chunk
	SendRetryWait  time.Duration // first wait after a failed send
	DryRun         bool          // log messages instead of sending them

	// Formatting
	Locale     string // "en" | "pt-BR"
	LocaleFile string // optional YAML overriding the locale
	Timezone   string // IANA name used for listing timestamps

	// Snapshot
	SnapshotBackend string // "file" | "redis" | "memory"
	SnapshotFile    string

	// Redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisNamespace        string        // key prefix
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	// Workflow dispatch
	GitHubToken    string
	GitHubRepo     string // owner/name
	GitHubWorkflow string // workflow file name or id
	GitHubRef      string
	GitHubAPIURL   string

	// Serve mode
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict access to specific IP (e.g. "1.2.3.4, 5.6.7.8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

const defaultLoginURL = "https://autenticacao.ufrn.br/sso-server/login?service=https%3A%2F%2Fsigaa.ufrn.br%2Fsigaa%2Flogin%2Fcas"

func Load() *Config {
	return &Config{
		// Server settings
		ListenPort:      getenv("DUEWATCH_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("DUEWATCH_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("DUEWATCH_LOG_LEVEL", "info"),
		PrettyLog: mustBool("DUEWATCH_PRETTY_LOG", true),

		// Portal
		PortalUsername:      os.Getenv("DUEWATCH_PORTAL_USERNAME"),
		PortalPassword:      os.Getenv("DUEWATCH_PORTAL_PASSWORD"),
		PortalLoginURL:      getenv("DUEWATCH_PORTAL_LOGIN_URL", defaultLoginURL),
		PortalHomeMarker:    getenv("DUEWATCH_PORTAL_HOME_MARKER", "portais/discente/discente.jsf"),
		PortalTableSelector: getenv("DUEWATCH_PORTAL_TABLE_SELECTOR", "#avaliacao-portal table"),
		PortalHTMLFile:      getenv("DUEWATCH_PORTAL_HTML_FILE", ""),
		KindMarkers:         splitAndTrim(getenv("DUEWATCH_KIND_MARKERS", "")),
		Headless:            mustBool("DUEWATCH_HEADLESS", true),
		BrowserBin:          getenv("DUEWATCH_BROWSER_BIN", ""),
		NavTimeout:          mustDuration("DUEWATCH_NAV_TIMEOUT", 30*time.Second),
		ExtractTimeout:      mustDuration("DUEWATCH_EXTRACT_TIMEOUT", 15*time.Second),

		// Notification
		TelegramToken:  os.Getenv("DUEWATCH_TELEGRAM_TOKEN"),
		TelegramChatID: os.Getenv("DUEWATCH_TELEGRAM_CHAT_ID"),
		TelegramAPIURL: getenv("DUEWATCH_TELEGRAM_API_URL", ""),
		SendPause:      mustDuration("DUEWATCH_SEND_PAUSE", time.Second),
		SendAttempts:   getenvInt("DUEWATCH_SEND_ATTEMPTS", 3),
		SendRetryWait:  mustDuration("DUEWATCH_SEND_RETRY_WAIT", 2*time.Second),
		DryRun:         mustBool("DUEWATCH_DRY_RUN", false),

		// Formatting
		Locale:     getenv("DUEWATCH_LOCALE", "en"),
		LocaleFile: getenv("DUEWATCH_LOCALE_FILE", ""),
		Timezone:   getenv("DUEWATCH_TIMEZONE", "America/Sao_Paulo"),

		// Snapshot
		SnapshotBackend: getenv("DUEWATCH_SNAPSHOT_BACKEND", "file"),
		SnapshotFile:    getenv("DUEWATCH_SNAPSHOT_FILE", "last_activities.json"),

		// Redis settings
		RedisAddr:             getenv("DUEWATCH_REDIS_ADDR", ""),
		RedisUser:             getenv("DUEWATCH_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("DUEWATCH_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("DUEWATCH_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("DUEWATCH_REDIS_DB", 0),
		RedisNamespace:        getenv("DUEWATCH_REDIS_NAMESPACE", "duewatch"),
		RedisDT:               mustDuration("DUEWATCH_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("DUEWATCH_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("DUEWATCH_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("DUEWATCH_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("DUEWATCH_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("DUEWATCH_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("DUEWATCH_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("DUEWATCH_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("DUEWATCH_REDIS_WARN_THRESHOLD", 3),

		// Workflow dispatch
		GitHubToken:    os.Getenv("DUEWATCH_GITHUB_TOKEN"),
		GitHubRepo:     getenv("DUEWATCH_GITHUB_REPO", ""),
		GitHubWorkflow: getenv("DUEWATCH_GITHUB_WORKFLOW", "get-all-activities.yml"),
		GitHubRef:      getenv("DUEWATCH_GITHUB_REF", "main"),
		GitHubAPIURL:   getenv("DUEWATCH_GITHUB_API_URL", ""),

		// Serve mode
		AllowedHosts: splitAndTrim(getenv("DUEWATCH_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("DUEWATCH_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("DUEWATCH_TRUST_PROXY", true),
	}
}

// ValidateRun checks what a one-shot run needs.
func (c *Config) ValidateRun() error {
	return validationError(c.runChecks())
}

func (c *Config) runChecks() (missing, problems []string) {

	if c.PortalHTMLFile == "" {
		missing = appendIfEmpty(missing, "DUEWATCH_PORTAL_USERNAME", c.PortalUsername)
		missing = appendIfEmpty(missing, "DUEWATCH_PORTAL_PASSWORD", c.PortalPassword)
		missing = appendIfEmpty(missing, "DUEWATCH_PORTAL_LOGIN_URL", c.PortalLoginURL)
	}
	if !c.DryRun {
		missing = appendIfEmpty(missing, "DUEWATCH_TELEGRAM_TOKEN", c.TelegramToken)
		missing = appendIfEmpty(missing, "DUEWATCH_TELEGRAM_CHAT_ID", c.TelegramChatID)
	}

	switch strings.ToLower(c.SnapshotBackend) {
	case "", "file":
	case "memory":
	case "redis":
		missing = appendIfEmpty(missing, "DUEWATCH_REDIS_ADDR", c.RedisAddr)
		if c.RedisPasswordRequired && c.RedisPassword == "" {
			problems = append(problems, "DUEWATCH_REDIS_PASSWORD is required when DUEWATCH_REDIS_PASSWORD_REQUIRED=true")
		}
	default:
		problems = append(problems, fmt.Sprintf("DUEWATCH_SNAPSHOT_BACKEND %q is not one of file, redis, memory", c.SnapshotBackend))
	}

	if c.SendAttempts < 1 {
		problems = append(problems, "DUEWATCH_SEND_ATTEMPTS must be >= 1")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("DUEWATCH_TIMEZONE %q: %v", c.Timezone, err))
	}
	return missing, problems
}

// ValidateServe checks what serve mode needs on top of a run.
func (c *Config) ValidateServe() error {
	missing, problems := c.runChecks()
	if c.ListenPort == "" {
		problems = append(problems, "DUEWATCH_LISTEN_PORT must not be empty")
	}
	return validationError(missing, problems)
}

// ValidateDispatch checks what a workflow dispatch needs.
func (c *Config) ValidateDispatch() error {
	var missing, problems []string
	missing = appendIfEmpty(missing, "DUEWATCH_GITHUB_TOKEN", c.GitHubToken)
	missing = appendIfEmpty(missing, "DUEWATCH_GITHUB_REPO", c.GitHubRepo)
	missing = appendIfEmpty(missing, "DUEWATCH_GITHUB_WORKFLOW", c.GitHubWorkflow)
	missing = appendIfEmpty(missing, "DUEWATCH_GITHUB_REF", c.GitHubRef)

	if c.GitHubRepo != "" && strings.Count(c.GitHubRepo, "/") != 1 {
		problems = append(problems, fmt.Sprintf("DUEWATCH_GITHUB_REPO %q must be owner/name", c.GitHubRepo))
	}
	return validationError(missing, problems)
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cfgCopy := *c
	for _, secret := range []*string{
		&cfgCopy.PortalPassword,
		&cfgCopy.TelegramToken,
		&cfgCopy.GitHubToken,
		&cfgCopy.RedisPassword,
	} {
		if *secret != "" {
			*secret = redacted
		}
	}
	if c.PortalUsername != "" {
		cfgCopy.PortalUsername = redacted
	}
	if c.RedisUser != "" {
		cfgCopy.RedisUser = redacted
	}
	return cfgCopy
}

func appendIfEmpty(missing []string, key, value string) []string {
	if strings.TrimSpace(value) == "" {
		return append(missing, key)
	}
	return missing
}

func validationError(missing, problems []string) error {
	if len(missing) > 0 {
		problems = append([]string{"missing required environment variables: " + strings.Join(missing, ", ")}, problems...)
	}
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
