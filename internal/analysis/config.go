// Package analysis runs the full storefront pipeline: load, merge, derive,
// then rank companies, measure tag trends and bucket graphics cards.
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/franz/storefront-insights/internal/derive"
	"github.com/franz/storefront-insights/internal/gpu"
	"github.com/franz/storefront-insights/internal/score"
	"github.com/franz/storefront-insights/internal/tags"
	"github.com/franz/storefront-insights/internal/util"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultTrendCount is the number of changed tags reported
const DefaultTrendCount = 10

// Config holds analysis configuration
type Config struct {
	ListingsPath     string `validate:"required"`
	SnapshotsPath    string `validate:"required"`
	RequirementsPath string `validate:"required"`
	TagsPath         string // optional; trends are skipped without it

	Limit      int `validate:"gte=1,lte=1000"`
	TitleLimit int `validate:"gte=1,lte=100"`
	Strict     bool

	TrendFrom       int `validate:"gte=1970,lte=2100"`
	TrendTo         int `validate:"gtefield=TrendFrom,lte=2100"`
	TrendCount      int `validate:"gte=1"`
	DistributionTag string

	GPULimit int `validate:"gte=1"`

	ZeroReviews string `validate:"oneof=exclude neutral"`

	ReportDir string
	Retry     *util.RetryConfig
}

// DefaultConfig returns a config with every tunable at its default
func DefaultConfig() *Config {
	return &Config{
		Limit:       score.DefaultLimit,
		TitleLimit:  score.DefaultTitleLimit,
		TrendFrom:   tags.DefaultFrom,
		TrendTo:     tags.DefaultTo,
		TrendCount:  DefaultTrendCount,
		GPULimit:    gpu.DefaultLimit,
		ZeroReviews: string(derive.ZeroReviewsExclude),
		Retry:       util.DefaultRetryConfig(),
	}
}

// Validate checks the config, wrapping failures in ErrInvalidConfig
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.StructField(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is %s", fe.StructField(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", util.ErrInvalidConfig, strings.Join(msgs, "; "))
}
