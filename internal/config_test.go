package internal

import (
	"log/slog"
	"testing"
)

func validConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.GitHub = GitHubConfig{
		Repo:  "alice/blog",
		Token: "ghp_test",
	}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestApplicationConfigTransport(t *testing.T) {
	cases := []struct {
		name      string
		transport string
		port      int
		wantErr   bool
	}{
		{"http with port", TransportHTTP, 8000, false},
		{"stdio ignores port", TransportStdio, 0, false},
		{"empty defaults to http", "", 8000, false},
		{"http without port", TransportHTTP, 0, true},
		{"unknown transport", "grpc", 8000, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := ApplicationConfig{
				LogLevel:  slog.LevelInfo,
				Transport: tc.transport,
				HTTP:      HTTPConfig{Port: tc.port},
			}
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestApplicationConfigEmptyTransportNormalized(t *testing.T) {
	cfg := ApplicationConfig{HTTP: HTTPConfig{Port: 8000}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Transport != TransportHTTP {
		t.Errorf("transport = %q, want %q", cfg.Transport, TransportHTTP)
	}
}

func TestGitHubConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     GitHubConfig
		wantErr bool
	}{
		{"slug form", GitHubConfig{Repo: "alice/blog", Token: "t"}, false},
		{"url form", GitHubConfig{Repo: "https://github.com/alice/blog", Token: "t"}, false},
		{"with branch", GitHubConfig{Repo: "alice/blog", Token: "t", Branch: "draft"}, false},
		{"missing repo", GitHubConfig{Token: "t"}, true},
		{"missing token", GitHubConfig{Repo: "alice/blog"}, true},
		{"malformed repo", GitHubConfig{Repo: "blog", Token: "t"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Error("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCatalogConfigDefaultCategory(t *testing.T) {
	cfg := CatalogConfig{Categories: []string{"note", "web3"}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.DefaultCategory != "note" {
		t.Errorf("default category = %q, want note", cfg.DefaultCategory)
	}

	cfg = CatalogConfig{Categories: []string{"note"}, DefaultCategory: "web3"}
	if err := cfg.Validate(); err == nil {
		t.Error("default category outside categories must be rejected")
	}

	cfg = CatalogConfig{}
	if err := cfg.Validate(); err == nil {
		t.Error("empty categories must be rejected")
	}
}

func TestAuthConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     AuthConfig
		wantErr bool
		enabled bool
	}{
		{"disabled", AuthConfig{Mode: AuthModeDisabled}, false, false},
		{"empty mode normalizes to disabled", AuthConfig{}, false, false},
		{"token with token", AuthConfig{Mode: AuthModeToken, Token: "s3cret"}, false, true},
		{"token without token", AuthConfig{Mode: AuthModeToken}, true, false},
		{"unknown mode", AuthConfig{Mode: "oauth"}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Error("expected validation error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.cfg.AuthEnabled() != tc.enabled {
				t.Errorf("AuthEnabled = %v, want %v", tc.cfg.AuthEnabled(), tc.enabled)
			}
		})
	}
}
