package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "DUEWATCH_") {
			t.Setenv(key, "")
		}
	}
}

func validRunConfig() *Config {
	return &Config{
		PortalUsername:  "student",
		PortalPassword:  "secret",
		PortalLoginURL:  "https://sso.example/login",
		TelegramToken:   "123:abc",
		TelegramChatID:  "42",
		SendAttempts:    3,
		SnapshotBackend: "file",
		Timezone:        "UTC",
		ListenPort:      ":8080",
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.ListenPort != ":8080" {
		t.Errorf("ListenPort = %q", cfg.ListenPort)
	}
	if cfg.SnapshotBackend != "file" || cfg.SnapshotFile != "last_activities.json" {
		t.Errorf("snapshot defaults = %q, %q", cfg.SnapshotBackend, cfg.SnapshotFile)
	}
	if cfg.SendPause != time.Second || cfg.SendAttempts != 3 {
		t.Errorf("delivery defaults = %v, %d", cfg.SendPause, cfg.SendAttempts)
	}
	if !cfg.Headless {
		t.Error("Headless should default to true")
	}
	if cfg.GitHubRef != "main" || cfg.GitHubWorkflow != "get-all-activities.yml" {
		t.Errorf("dispatch defaults = %q, %q", cfg.GitHubRef, cfg.GitHubWorkflow)
	}
	if cfg.AllowedCIDRS != nil || cfg.AllowedHosts != nil || cfg.KindMarkers != nil {
		t.Error("list settings should default to nil")
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DUEWATCH_SNAPSHOT_BACKEND", "redis")
	t.Setenv("DUEWATCH_SEND_ATTEMPTS", "5")
	t.Setenv("DUEWATCH_ALLOWED_CIDRS", "10.0.0.0/8, '192.168.1.0/24'")
	t.Setenv("DUEWATCH_KIND_MARKERS", "Exam:,Homework:")
	t.Setenv("DUEWATCH_HEADLESS", "false")

	cfg := Load()

	if cfg.SnapshotBackend != "redis" {
		t.Errorf("SnapshotBackend = %q", cfg.SnapshotBackend)
	}
	if cfg.SendAttempts != 5 {
		t.Errorf("SendAttempts = %d", cfg.SendAttempts)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[1] != "192.168.1.0/24" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if len(cfg.KindMarkers) != 2 || cfg.KindMarkers[0] != "Exam:" {
		t.Errorf("KindMarkers = %v", cfg.KindMarkers)
	}
	if cfg.Headless {
		t.Error("Headless should be false")
	}
}

func TestValidateRun(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{
			name:    "missing credentials",
			mutate:  func(c *Config) { c.PortalUsername, c.PortalPassword = "", "" },
			wantErr: []string{"DUEWATCH_PORTAL_USERNAME", "DUEWATCH_PORTAL_PASSWORD"},
		},
		{
			name: "offline page needs no credentials",
			mutate: func(c *Config) {
				c.PortalUsername, c.PortalPassword, c.PortalLoginURL = "", "", ""
				c.PortalHTMLFile = "page.html"
			},
		},
		{
			name:    "missing destination",
			mutate:  func(c *Config) { c.TelegramChatID = "" },
			wantErr: []string{"DUEWATCH_TELEGRAM_CHAT_ID"},
		},
		{
			name:   "dry run needs no transport",
			mutate: func(c *Config) { c.TelegramToken, c.TelegramChatID, c.DryRun = "", "", true },
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.SnapshotBackend, c.RedisPasswordRequired = "redis", false },
			wantErr: []string{"DUEWATCH_REDIS_ADDR"},
		},
		{
			name: "redis without required password",
			mutate: func(c *Config) {
				c.SnapshotBackend, c.RedisAddr, c.RedisPasswordRequired = "redis", "localhost:6379", true
			},
			wantErr: []string{"DUEWATCH_REDIS_PASSWORD"},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.SnapshotBackend = "s3" },
			wantErr: []string{"DUEWATCH_SNAPSHOT_BACKEND"},
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus" },
			wantErr: []string{"DUEWATCH_TIMEZONE"},
		},
		{
			name:    "no attempts",
			mutate:  func(c *Config) { c.SendAttempts = 0 },
			wantErr: []string{"DUEWATCH_SEND_ATTEMPTS"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validRunConfig()
			tt.mutate(cfg)
			err := cfg.ValidateRun()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Fatalf("ValidateRun() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateRun() should fail")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("ValidateRun() error %q does not name %s", err, want)
				}
			}
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := validRunConfig()
	if err := cfg.ValidateServe(); err != nil {
		t.Fatalf("ValidateServe() error = %v", err)
	}

	cfg.ListenPort = ""
	cfg.TelegramToken = ""
	err := cfg.ValidateServe()
	if err == nil {
		t.Fatal("ValidateServe() should fail")
	}
	for _, want := range []string{"DUEWATCH_LISTEN_PORT", "DUEWATCH_TELEGRAM_TOKEN"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("ValidateServe() error %q does not name %s", err, want)
		}
	}
	if strings.Count(err.Error(), "invalid configuration") != 1 {
		t.Errorf("error prefix repeated: %q", err)
	}
}

func TestValidateDispatch(t *testing.T) {
	cfg := &Config{GitHubToken: "t", GitHubRepo: "octo/duewatch", GitHubWorkflow: "w.yml", GitHubRef: "main"}
	if err := cfg.ValidateDispatch(); err != nil {
		t.Fatalf("ValidateDispatch() error = %v", err)
	}

	cfg.GitHubRepo = "octo"
	if err := cfg.ValidateDispatch(); err == nil || !strings.Contains(err.Error(), "owner/name") {
		t.Errorf("ValidateDispatch() error = %v, want owner/name complaint", err)
	}

	if err := (&Config{}).ValidateDispatch(); err == nil || !strings.Contains(err.Error(), "DUEWATCH_GITHUB_TOKEN") {
		t.Errorf("ValidateDispatch() error = %v, want missing token", err)
	}
}

func TestRedacted(t *testing.T) {
	cfg := validRunConfig()
	cfg.GitHubToken = "ghp_x"
	cfg.RedisUser = "default"

	red := cfg.Redacted()

	for name, v := range map[string]string{
		"PortalUsername": red.PortalUsername,
		"PortalPassword": red.PortalPassword,
		"TelegramToken":  red.TelegramToken,
		"GitHubToken":    red.GitHubToken,
		"RedisUser":      red.RedisUser,
	} {
		if v != redacted {
			t.Errorf("%s = %q, want redacted", name, v)
		}
	}
	if red.RedisPassword != "" {
		t.Error("empty secrets stay empty")
	}
	if cfg.PortalPassword != "secret" {
		t.Error("Redacted() modified the original config")
	}
}

func TestLocation(t *testing.T) {
	if got := (&Config{Timezone: "America/Sao_Paulo"}).Location(); got.String() != "America/Sao_Paulo" {
		t.Errorf("Location() = %v", got)
	}
	if got := (&Config{Timezone: "nowhere"}).Location(); got != time.UTC {
		t.Errorf("Location() = %v, want UTC fallback", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "a", want: []string{"a"}},
		{in: " a , 'b' ,\"c\", ,", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetenvInt(t *testing.T) {
	t.Setenv("DUEWATCH_TEST_INT", "42")
	t.Setenv("DUEWATCH_TEST_INT_BAD", "forty-two")

	if got := getenvInt("DUEWATCH_TEST_INT", 1); got != 42 {
		t.Errorf("getenvInt() = %d, want 42", got)
	}
	if got := getenvInt("DUEWATCH_TEST_INT_BAD", 7); got != 7 {
		t.Errorf("getenvInt() with invalid value = %d, want default", got)
	}
	if got := getenvInt("DUEWATCH_TEST_INT_MISSING", 9); got != 9 {
		t.Errorf("getenvInt() with missing value = %d, want default", got)
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{
			name:     "valid duration",
			key:      "DUEWATCH_TEST_DURATION",
			value:    "5s",
			def:      1 * time.Second,
			expected: 5 * time.Second,
		},
		{
			name:     "invalid duration uses default",
			key:      "DUEWATCH_TEST_DURATION_INVALID",
			value:    "invalid",
			def:      10 * time.Second,
			expected: 10 * time.Second,
		},
		{
			name:     "missing variable uses default",
			key:      "DUEWATCH_TEST_DURATION_MISSING",
			value:    "",
			def:      15 * time.Second,
			expected: 15 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustDuration(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{
			name:     "true value",
			key:      "DUEWATCH_TEST_BOOL",
			value:    "true",
			def:      false,
			expected: true,
		},
		{
			name:     "false value",
			key:      "DUEWATCH_TEST_BOOL_FALSE",
			value:    "false",
			def:      true,
			expected: false,
		},
		{
			name:     "invalid value uses default",
			key:      "DUEWATCH_TEST_BOOL_INVALID",
			value:    "invalid",
			def:      true,
			expected: true,
		},
		{
			name:     "missing variable uses default",
			key:      "DUEWATCH_TEST_BOOL_MISSING",
			value:    "",
			def:      false,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			result := mustBool(tt.key, tt.def)
			if result != tt.expected {
				t.Errorf("mustBool() = %v, want %v", result, tt.expected)
			}
		})
	}
}
