package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeclash/internal/protocol"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("TOKEN_SECRET", "test-secret")
}

func TestLoadConfig(t *testing.T) {
	// Test loading default config when file doesn't exist
	t.Run("LoadDefaultWhenMissing", func(t *testing.T) {
		setRequiredEnv(t)
		config, err := LoadConfig("nonexistent.yaml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config == nil {
			t.Fatal("expected default config, got nil")
		}
		if config.Server.RoomTimeout != 30*time.Minute {
			t.Errorf("expected RoomTimeout 30m, got %v", config.Server.RoomTimeout)
		}
		if config.Match.MatchDurationSec != 300 {
			t.Errorf("expected default match duration 300, got %d", config.Match.MatchDurationSec)
		}
	})

	// Test loading from YAML file
	t.Run("LoadFromYAML", func(t *testing.T) {
		setRequiredEnv(t)
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yaml")

		yamlContent := `
server:
  roomTimeout: 12h
  allowNegativeSkip: true
  judgeUrl: "http://judge:9000"

match:
  matchDurationSec: 180
  playerCap: 6
  stackLimit: 8
  startingQueued: 2
  difficultyProfile: competitive
  attackIntensity: high
`
		if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		// Verify loaded values
		if config.Server.RoomTimeout != 12*time.Hour {
			t.Errorf("expected RoomTimeout 12h, got %v", config.Server.RoomTimeout)
		}
		if !config.Server.AllowNegativeSkip {
			t.Error("expected allowNegativeSkip to be true")
		}
		if config.Server.JudgeURL != "http://judge:9000" {
			t.Errorf("unexpected judge url %q", config.Server.JudgeURL)
		}
		if config.Match.MatchDurationSec != 180 {
			t.Errorf("expected match duration 180, got %d", config.Match.MatchDurationSec)
		}
		if config.Match.DifficultyProfile != protocol.ProfileCompetitive {
			t.Errorf("unexpected difficulty profile %q", config.Match.DifficultyProfile)
		}
	})

	// Environment variables win over the file
	t.Run("EnvOverridesFile", func(t *testing.T) {
		setRequiredEnv(t)
		t.Setenv("JUDGE_URL", "http://override:9999")

		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yaml")
		yamlContent := "server:\n  judgeUrl: \"http://file:9000\"\n"
		if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}
		if config.Server.JudgeURL != "http://override:9999" {
			t.Errorf("expected env to override file, got %q", config.Server.JudgeURL)
		}
	})
}

func TestConfigValidation(t *testing.T) {
	valid := func() *ServerConfig {
		cfg := DefaultConfig()
		cfg.Server.Port = "8080"
		cfg.Server.Host = "0.0.0.0"
		cfg.Server.TokenSecret = "secret"
		return cfg
	}

	tests := []struct {
		name      string
		mutate    func(*ServerConfig)
		wantError bool
		errorMsg  string
	}{
		{
			name:   "ValidConfig",
			mutate: func(c *ServerConfig) {},
		},
		{
			name:      "MissingPort",
			mutate:    func(c *ServerConfig) { c.Server.Port = "" },
			wantError: true,
			errorMsg:  "PORT",
		},
		{
			name:      "MissingTokenSecret",
			mutate:    func(c *ServerConfig) { c.Server.TokenSecret = "" },
			wantError: true,
			errorMsg:  "TOKEN_SECRET",
		},
		{
			name: "MetricsWithoutPort",
			mutate: func(c *ServerConfig) {
				c.Server.EnableMetrics = true
				c.Server.MetricsPort = ""
			},
			wantError: true,
			errorMsg:  "METRICS_PORT",
		},
		{
			name:      "TinyRoomTimeout",
			mutate:    func(c *ServerConfig) { c.Server.RoomTimeout = time.Second },
			wantError: true,
			errorMsg:  "roomTimeout",
		},
		{
			name:      "BadMatchSettings",
			mutate:    func(c *ServerConfig) { c.Match.StackLimit = 99 },
			wantError: true,
			errorMsg:  "stackLimit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError {
				if err == nil {
					t.Errorf("expected error containing '%s', got nil", tt.errorMsg)
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}
