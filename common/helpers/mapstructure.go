// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

var mapstructureUnmarshallerHookFuncs = []mapstructure.DecodeHookFunc{}

// RegisterMapstructureUnmarshallerHook registers a new decoder hook for
// mapstructure. This should only be done during init.
func RegisterMapstructureUnmarshallerHook(hook mapstructure.DecodeHookFunc) {
	mapstructureUnmarshallerHookFuncs = append(mapstructureUnmarshallerHookFuncs, hook)
}

// GetMapStructureDecoderConfig returns a decoder config for
// mapstructure with all registered hooks. Unknown keys are errors and
// keys are matched case-insensitively, ignoring dashes.
func GetMapStructureDecoderConfig(config any, hooks ...mapstructure.DecodeHookFunc) *mapstructure.DecoderConfig {
	return &mapstructure.DecoderConfig{
		Result:           config,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		MatchName:        MapStructureMatchName,
		DecodeHook: ProtectedDecodeHookFunc(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.ComposeDecodeHookFunc(hooks...),
				mapstructure.ComposeDecodeHookFunc(mapstructureUnmarshallerHookFuncs...),
				mapstructure.TextUnmarshallerHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		),
	}
}

// ProtectedDecodeHookFunc wraps a DecodeHookFunc to recover and returns an error on panic.
func ProtectedDecodeHookFunc(hook mapstructure.DecodeHookFunc) mapstructure.DecodeHookFunc {
	return func(from, to reflect.Value) (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				v = nil
				err = fmt.Errorf("internal error while parsing: %s", r)
			}
		}()
		return mapstructure.DecodeHookExec(hook, from, to)
	}
}

// MapStructureMatchName tells if map key and field names are equal.
func MapStructureMatchName(mapKey, fieldName string) bool {
	key := strings.ToLower(strings.ReplaceAll(mapKey, "-", ""))
	return key == strings.ToLower(fieldName)
}

// stringKeys returns the string keys of a map value along with their
// original reflect.Value. Non-string keys are skipped.
func stringKeys(m reflect.Value) map[string]reflect.Value {
	keys := map[string]reflect.Value{}
	for _, k := range m.MapKeys() {
		if ek := ElemOrIdentity(k); ek.Kind() == reflect.String {
			keys[ek.String()] = k
		}
	}
	return keys
}

// DefaultValuesUnmarshallerHook fills the fields of the provided
// configuration type that are missing from the source map with the
// non-zero values of the default configuration. This is useful when a
// configuration is decoded into a zero value (inside a slice for
// example).
func DefaultValuesUnmarshallerHook[Configuration any](defaultConfiguration Configuration) mapstructure.DecodeHookFunc {
	return func(from, to reflect.Value) (any, error) {
		from = ElemOrIdentity(from)
		to = ElemOrIdentity(to)
		if to.Type() != reflect.TypeOf(defaultConfiguration) || from.Kind() != reflect.Map {
			return from.Interface(), nil
		}
		keys := stringKeys(from)
		defaultV := reflect.ValueOf(defaultConfiguration)
	fields:
		for i := range defaultV.NumField() {
			if defaultV.Field(i).IsZero() {
				continue
			}
			name := defaultV.Type().Field(i).Name
			for key := range keys {
				if MapStructureMatchName(key, name) {
					continue fields
				}
			}
			from.SetMapIndex(reflect.ValueOf(name), defaultV.Field(i))
		}
		return from.Interface(), nil
	}
}

// RenameKeyUnmarshallerHook accepts an old name for a configuration
// key. It is an error to provide both the old and the new name.
func RenameKeyUnmarshallerHook[Configuration any](zeroConfiguration Configuration, fromLabel, toLabel string) mapstructure.DecodeHookFunc {
	return func(from, to reflect.Value) (any, error) {
		if from.Kind() != reflect.Map || from.IsNil() || to.Type() != reflect.TypeOf(zeroConfiguration) {
			return from.Interface(), nil
		}
		var fromKey, toKey *reflect.Value
		for name, k := range stringKeys(from) {
			if MapStructureMatchName(name, fromLabel) {
				fromKey = &k
			} else if MapStructureMatchName(name, toLabel) {
				toKey = &k
			}
		}
		if fromKey != nil && toKey != nil {
			return nil, fmt.Errorf("cannot have both %q and %q",
				ElemOrIdentity(*fromKey).String(), ElemOrIdentity(*toKey).String())
		}
		if fromKey != nil {
			from.SetMapIndex(reflect.ValueOf(toLabel), from.MapIndex(*fromKey))
			from.SetMapIndex(*fromKey, reflect.Value{})
		}
		return from.Interface(), nil
	}
}
