package analysis

import (
	"testing"

	"github.com/franz/storefront-insights/internal/util"
	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.ListingsPath = "steam.csv"
	cfg.SnapshotsPath = "steamspy_data.csv"
	cfg.RequirementsPath = "steam_requirements_data.csv"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"missing listings", func(c *Config) { c.ListingsPath = "" }, "ListingsPath is required"},
		{"zero limit", func(c *Config) { c.Limit = 0 }, "Limit must satisfy gte=1"},
		{"inverted window", func(c *Config) { c.TrendFrom, c.TrendTo = 2018, 2008 }, "TrendTo must satisfy gtefield=TrendFrom"},
		{"zero trend count", func(c *Config) { c.TrendCount = 0 }, "TrendCount"},
		{"bad policy", func(c *Config) { c.ZeroReviews = "maybe" }, "ZeroReviews must satisfy oneof"},
		{"zero gpu limit", func(c *Config) { c.GPULimit = 0 }, "GPULimit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, util.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(&Config{}, nil, nil)
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}
