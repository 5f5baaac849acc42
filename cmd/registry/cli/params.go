// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagsFromParams returns a flag set named name whose flags write
// into the tagged fields of params. A malformed params struct is a
// bug in the command definition, so it panics rather than returning
// an error.
//
//	var params hashParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("store", &params)
//	    },
//	    Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
//	        // params is filled in by the time Run is called
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags adds one flag to flagSet per tagged field of params.
//
// The flag tag holds the long name and an optional one-letter
// shorthand, as in flag:"file,f"; untagged fields are ignored. The
// desc tag is the help text and the default tag the initial value,
// parsed for the field's type. Fields may be string, bool, int or
// [time.Duration]. Embedded structs contribute their own tagged
// fields.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	pointer := reflect.ValueOf(params)
	if pointer.Kind() != reflect.Pointer || pointer.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStruct(pointer.Elem(), flagSet)
}

func bindStruct(target reflect.Value, flagSet *pflag.FlagSet) error {
	for i := range target.NumField() {
		field := target.Type().Field(i)
		value := target.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStruct(value, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		tag, tagged := field.Tag.Lookup("flag")
		if !tagged || tag == "" {
			continue
		}
		if !value.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}

		long, short, _ := strings.Cut(tag, ",")
		spec := flagSpec{long: long, short: short, usage: field.Tag.Get("desc"), initial: field.Tag.Get("default")}
		if err := spec.bind(value, flagSet); err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}
	return nil
}

// flagSpec is the parsed form of one field's tags.
type flagSpec struct {
	long, short, usage, initial string
}

func (s flagSpec) bind(value reflect.Value, flagSet *pflag.FlagSet) error {
	switch target := value.Addr().Interface().(type) {
	case *string:
		flagSet.StringVarP(target, s.long, s.short, s.initial, s.usage)
	case *bool:
		initial, err := parseDefault(s, false, strconv.ParseBool)
		if err != nil {
			return err
		}
		flagSet.BoolVarP(target, s.long, s.short, initial, s.usage)
	case *int:
		initial, err := parseDefault(s, 0, strconv.Atoi)
		if err != nil {
			return err
		}
		flagSet.IntVarP(target, s.long, s.short, initial, s.usage)
	case *time.Duration:
		initial, err := parseDefault(s, 0, time.ParseDuration)
		if err != nil {
			return err
		}
		flagSet.DurationVarP(target, s.long, s.short, initial, s.usage)
	default:
		return fmt.Errorf("unsupported type %s for flag --%s", value.Type(), s.long)
	}
	return nil
}

// parseDefault returns zero when the default tag is absent.
func parseDefault[T any](s flagSpec, zero T, parse func(string) (T, error)) (T, error) {
	if s.initial == "" {
		return zero, nil
	}
	parsed, err := parse(s.initial)
	if err != nil {
		return zero, fmt.Errorf("default for --%s: %w", s.long, err)
	}
	return parsed, nil
}
