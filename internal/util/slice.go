package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

func Min(s []float64) float64 {
	if len(s) < 1 {
		return 0
	}
	result := s[0]
	for _, v := range s {
		if v < result {
			result = v
		}
	}
	return result
}

func Max(s []float64) float64 {
	if len(s) < 1 {
		return 0
	}
	result := s[0]
	for _, v := range s {
		if v > result {
			result = v
		}
	}
	return result
}

// ParseFloats parses a list of numbers separated by commas and/or whitespace
func ParseFloats(text string) ([]float64, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})

	result := make([]float64, 0, len(fields))
	for _, field := range fields {
		value, err := ParseFiniteFloat(field)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}

// ParseFiniteFloat parses a single number, NaN and infinite values are rejected
func ParseFiniteFloat(text string) (float64, error) {
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number '%s': %w", text, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("number must be finite: '%s'", text)
	}
	return value, nil
}
