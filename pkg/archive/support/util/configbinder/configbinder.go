// Package configbinder decodes loosely typed adapter settings into typed structs.
package configbinder

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// BindProperties binds a map of properties to target using the "yaml" tag.
// Weakly typed input is accepted, so "5432" decodes into an int field.
func BindProperties(properties map[string]interface{}, target interface{}) error {
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(properties); err != nil {
		targetType := reflect.TypeOf(target)
		if targetType.Kind() == reflect.Ptr {
			targetType = targetType.Elem()
		}
		return fmt.Errorf("failed to bind properties to %s: %w", targetType.Name(), err)
	}
	return nil
}

// BindSection binds one named entry of an adapter section. It reports false when
// the entry is missing.
func BindSection(section map[string]interface{}, name string, target interface{}) (bool, error) {
	raw, ok := section[name]
	if !ok {
		return false, nil
	}
	props, ok := raw.(map[string]interface{})
	if !ok {
		return false, fmt.Errorf("configuration entry %q is not a mapping", name)
	}
	return true, BindProperties(props, target)
}
