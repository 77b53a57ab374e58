// FILE: settings/decode.go
package settings

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Scan is the single authoritative function for decoding a merged
// mapping into a target struct. It uses weak typing so raw string values
// from environment variables, secret files and INI keys convert to the
// field's type. Decode errors surface unchanged; they are the validation
// errors of the pipeline.
func Scan(mapping Mapping, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("scan target must be a non-nil pointer, got %T", target)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "conf",
		WeaklyTypedInput: true,
		DecodeHook:       decodeHook(),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	return decoder.Decode(map[string]any(mapping))
}

// decodeHook is the composite conversion chain applied during Scan.
func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		// Standard conversions
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),

		// Network and URL types
		stringToNetIPHookFunc(),
		stringToNetIPNetHookFunc(),
		stringToURLHookFunc(),

		// Self-parsing value types
		rawParserHookFunc(),
	)
}

// rawParserHookFunc instantiates self-parsing value types, DelimitedList
// and Params among them, from raw strings, slices, and mappings.
func rawParserHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		targetType := t
		isPtr := t.Kind() == reflect.Pointer
		if isPtr {
			targetType = t.Elem()
		}
		if !reflect.PointerTo(targetType).Implements(rawParserType) {
			return data, nil
		}
		// Same-type assignments pass through untouched
		if f == targetType || f == reflect.PointerTo(targetType) {
			return data, nil
		}
		// An empty map carries nothing to parse; the native struct
		// decode leaves the field at its zero value.
		if f.Kind() == reflect.Map && reflect.ValueOf(data).Len() == 0 {
			return data, nil
		}

		parser := reflect.New(targetType).Interface().(rawParser)
		if err := parser.Parse(data); err != nil {
			return nil, err
		}
		if isPtr {
			return parser, nil
		}
		return reflect.ValueOf(parser).Elem().Interface(), nil
	}
}

// stringToNetIPHookFunc converts strings to net.IP.
func stringToNetIPHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(net.IP{}) {
			return data, nil
		}

		raw := data.(string)
		if len(raw) > 45 { // Max length of a textual IPv6 address
			return nil, fmt.Errorf("IP address string too long: %d chars", len(raw))
		}

		ip := net.ParseIP(raw)
		if ip == nil {
			return nil, fmt.Errorf("failed to parse IP address: %s", raw)
		}
		return ip, nil
	}
}

// stringToNetIPNetHookFunc converts CIDR strings to net.IPNet.
func stringToNetIPNetHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}

		isPtr := t == reflect.TypeOf(&net.IPNet{})
		if t != reflect.TypeOf(net.IPNet{}) && !isPtr {
			return data, nil
		}

		raw := data.(string)
		_, ipNet, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse CIDR '%s': %w", raw, err)
		}
		if isPtr {
			return ipNet, nil
		}
		return *ipNet, nil
	}
}

// stringToURLHookFunc converts strings to url.URL.
func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}

		isPtr := t == reflect.TypeOf(&url.URL{})
		if t != reflect.TypeOf(url.URL{}) && !isPtr {
			return data, nil
		}

		raw := data.(string)
		if len(raw) > 2048 { // Sanity bound on URL length
			return nil, fmt.Errorf("URL string too long: %d chars", len(raw))
		}

		parsed, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse URL '%s': %w", raw, err)
		}
		if isPtr {
			return parsed, nil
		}
		return *parsed, nil
	}
}

// decodeOptions maps a bound option bag onto a typed option struct.
// Unknown bag keys are ignored so factories accept any superset of their
// declared params.
func decodeOptions(opts Options, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "conf",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create options decoder: %w", err)
	}
	if err := decoder.Decode(map[string]any(opts)); err != nil {
		return fmt.Errorf("failed to bind source options: %w", err)
	}
	return nil
}

// structToMapping converts a defaults struct into a value mapping keyed
// by conf tag names, nested structs included.
func structToMapping(src any) (Mapping, error) {
	out := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "conf",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create defaults decoder: %w", err)
	}
	if err := decoder.Decode(src); err != nil {
		return nil, fmt.Errorf("failed to convert defaults: %w", err)
	}
	return out, nil
}
