package configuration

import (
	"encoding/json"
	"fmt"
	"github.com/mitchellh/mapstructure"
	"reflect"
	"strconv"
	"strings"
)

// Optional is a generic container for optional configuration values.
type Optional[T any] struct {
	// Value holds the actual as unmarshalled.
	Value T
	// Present indicates if the value was present in the configuration.
	Present bool
	// RuntimeOverride indicates if the value was overridden at runtime.
	RuntimeOverride bool
}

// Get returns the value as unmarshalled or overridden.
func (o *Optional[T]) Get() T {
	return o.Value
}

// SetOverride sets the value and marks it as overridden at runtime.
func (o *Optional[T]) SetOverride(value T) {
	o.RuntimeOverride = true
	o.Value = value
}

// DefaultTrueBool is a boolean type that defaults to true if not present and not overridden.
type DefaultTrueBool struct {
	Optional[bool]
}

// Get returns the boolean value, defaulting to true if not present and not overridden.
func (b *DefaultTrueBool) Get() bool {
	if !b.Present && !b.RuntimeOverride {
		return true
	}
	return b.Value
}

// MarshalJSON writes the effective value
func (b DefaultTrueBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Get())
}

// DefaultTrueBoolHookFunc returns a mapstructure decode hook function for DefaultTrueBool.
func DefaultTrueBoolHookFunc() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{}) (interface{}, error) {

		if t != reflect.TypeOf(DefaultTrueBool{}) {
			return data, nil
		}

		var val bool
		switch v := data.(type) {
		case bool:
			val = v
		case string:
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return nil, fmt.Errorf("invalid boolean value '%s'", v)
			}
			val = parsed
		default:
			return data, nil
		}

		return DefaultTrueBool{
			Optional: Optional[bool]{
				Value:   val,
				Present: true,
			},
		}, nil
	}
}

var channelTypeAliases = map[string]ChannelType{
	"analog":  ChannelTypeAnalog,
	"ao":      ChannelTypeAnalog,
	"digital": ChannelTypeDigital,
	"do":      ChannelTypeDigital,
	"pulse":   ChannelTypeDigital,
}

// channelTypeHookFunc returns a mapstructure decode hook that accepts
// channel types case-insensitively, including their short forms (ao, do).
// Unknown values are passed through to be reported by validation.
func channelTypeHookFunc() mapstructure.DecodeHookFuncType {
	channelType := reflect.TypeOf(ChannelType(""))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != channelType {
			return data, nil
		}
		v, ok := data.(string)
		if !ok {
			return data, nil
		}
		normalized := strings.ToLower(strings.TrimSpace(v))
		if alias, exists := channelTypeAliases[normalized]; exists {
			return alias, nil
		}
		return ChannelType(normalized), nil
	}
}
