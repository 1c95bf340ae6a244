// Package utils contains shared helpers for configuration, numeric
// conversion, and parallelism used across the mask generation pipeline.
package utils

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// An AttributeMap is a convenience wrapper for pre-validation, free-form
// configuration attributes, e.g. decoded JSON objects.
type AttributeMap map[string]interface{}

// Has returns whether the given name is in the map.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// GetString returns a string with the given name, or an empty string
// if the name is not present.
func (am AttributeMap) GetString(name string) string {
	x := am[name]
	if x == nil {
		return ""
	}
	s, err := cast.ToStringE(x)
	if err != nil {
		panic(fmt.Errorf("wanted a string for (%s) but got (%v) %T", name, x, x))
	}
	return s
}

// GetInt returns an integer with the given name, or the default if the
// name is not present. JSON decoding produces float64 for all numbers,
// so those are converted here.
func (am AttributeMap) GetInt(name string, def int) int {
	x, has := am[name]
	if !has {
		return def
	}
	v, err := cast.ToIntE(x)
	if err != nil {
		panic(fmt.Errorf("wanted an int for (%s) but got (%v) %T", name, x, x))
	}
	return v
}

// GetFloat64 returns a float with the given name, or the default if the
// name is not present.
func (am AttributeMap) GetFloat64(name string, def float64) float64 {
	x, has := am[name]
	if !has {
		return def
	}
	v, err := cast.ToFloat64E(x)
	if err != nil {
		panic(fmt.Errorf("wanted a float64 for (%s) but got (%v) %T", name, x, x))
	}
	return v
}

// GetBool returns a bool with the given name, or the default if the
// name is not present.
func (am AttributeMap) GetBool(name string, def bool) bool {
	x, has := am[name]
	if !has {
		return def
	}
	v, err := cast.ToBoolE(x)
	if err != nil {
		panic(fmt.Errorf("wanted a bool for (%s) but got (%v) %T", name, x, x))
	}
	return v
}

// GetAttributeMap returns a nested AttributeMap with the given name, or an
// empty map if the name is not present.
func (am AttributeMap) GetAttributeMap(name string) AttributeMap {
	x, has := am[name]
	if !has || x == nil {
		return AttributeMap{}
	}
	if m, ok := x.(AttributeMap); ok {
		return m
	}
	m, err := cast.ToStringMapE(x)
	if err != nil {
		panic(NewUnexpectedTypeError(AttributeMap{}, x))
	}
	return AttributeMap(m)
}

// TransformAttributeMap decodes an attribute map into the prescribed format.
// Field names come from JSON tags. The returned slice holds the keys that did
// not correspond to any field, sorted, so that callers can reject unknown
// options by name.
func TransformAttributeMap[T any](attributes AttributeMap) (T, []string, error) {
	var out T

	var forResult interface{}

	toT := reflect.TypeOf(out)
	if toT == nil {
		// nothing to transform
		return out, nil, nil
	}
	if toT.Kind() == reflect.Ptr {
		// needs to be allocated then
		var ok bool
		out, ok = reflect.New(toT.Elem()).Interface().(T)
		if !ok {
			return out, nil, errors.Errorf("failed to allocate default config type %T", out)
		}
		forResult = out
	} else {
		forResult = &out
	}

	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   forResult,
		Metadata: &md,
	})
	if err != nil {
		return out, nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return out, nil, err
	}
	sort.Strings(md.Unused)
	return out, md.Unused, nil
}

// MergeAttributeMap decodes an attribute map over an already-populated
// struct. Fields with no corresponding key keep their current values, which
// lets callers start from defaults and apply only what was configured. The
// returned slice holds the unconsumed keys, sorted.
func MergeAttributeMap[T any](attributes AttributeMap, into *T) ([]string, error) {
	if into == nil {
		return nil, errors.New("cannot merge into a nil target")
	}
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:  "json",
		Result:   into,
		Metadata: &md,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, err
	}
	sort.Strings(md.Unused)
	return md.Unused, nil
}

// A TypedName stores both the name and type of a configuration field.
type TypedName struct {
	Name string
	Type string
}

// JSONTags returns the variable names in the JSON tags of a struct, so that
// registries can report what options a constructor understands.
func JSONTags(s interface{}) []TypedName {
	tags := []TypedName{}
	val := reflect.ValueOf(s)
	for i := 0; i < val.Type().NumField(); i++ {
		t := val.Type().Field(i)
		fieldName := t.Name
		if t.PkgPath != "" { // unexported
			continue
		}
		switch jsonTag := t.Tag.Get("json"); jsonTag {
		case "-":
		case "":
			tags = append(tags, TypedName{fieldName, t.Type.Name()}) // if json tag doesn't exist, just use field name
		default:
			parts := strings.Split(jsonTag, ",")
			name := parts[0]
			if name == "" {
				name = fieldName
			}
			tags = append(tags, TypedName{name, t.Type.Name()})
		}
	}
	return tags
}
