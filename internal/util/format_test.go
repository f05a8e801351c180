package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatters(t *testing.T) {
	assert.Equal(t, "35,000", FormatCount(35000))
	assert.Equal(t, "$1,234.5", FormatPrice(1234.5))
	assert.Equal(t, "12.5%", FormatRatio(0.125))
	assert.Equal(t, "0 B", FormatBytes(-1))
}
