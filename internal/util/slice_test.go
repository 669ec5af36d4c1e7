package util

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestMinMax(t *testing.T) {
	// GIVEN
	values := []float64{0.3, -1.5, 2.25, 0}

	// WHEN
	minimum := Min(values)
	maximum := Max(values)

	// THEN
	assert.Equal(t, -1.5, minimum)
	assert.Equal(t, 2.25, maximum)
}

func TestMinMaxEmpty(t *testing.T) {
	// WHEN
	minimum := Min(nil)
	maximum := Max(nil)

	// THEN
	assert.Equal(t, 0.0, minimum)
	assert.Equal(t, 0.0, maximum)
}

func TestParseFloats(t *testing.T) {
	// GIVEN
	text := "0.1,0.2, 0.3\n1e-3 -4"

	// WHEN
	result, err := ParseFloats(text)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.001, -4}, result)
}

func TestParseFloats_Empty(t *testing.T) {
	// WHEN
	result, err := ParseFloats("  \n")

	// THEN
	assert.NoError(t, err)
	assert.Empty(t, result)
}

func TestParseFloats_Invalid(t *testing.T) {
	// WHEN
	result, err := ParseFloats("0.1,abc")

	// THEN
	assert.Nil(t, result)
	assert.EqualError(t, err, "invalid number 'abc': strconv.ParseFloat: parsing \"abc\": invalid syntax")
}

func TestParseFloats_NotFinite(t *testing.T) {
	// WHEN
	result, err := ParseFloats("0.1, NaN")

	// THEN
	assert.Nil(t, result)
	assert.EqualError(t, err, "number must be finite: 'NaN'")
}

func TestParseFiniteFloat(t *testing.T) {
	value, err := ParseFiniteFloat("-0.5")
	assert.NoError(t, err)
	assert.Equal(t, -0.5, value)

	_, err = ParseFiniteFloat("Inf")
	assert.Error(t, err)
}
