package config

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"
)

// Print writes the loaded configuration to stdout, one field per line.
func (c *Compositor) Print(v any) {
	c.printConfig(v, "  ")
}

func (c *Compositor) printConfig(v any, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		fieldName := fieldType.Name
		if tag, ok := fieldType.Tag.Lookup("mapstructure"); ok && tag != "" {
			fieldName = tag
		}

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				fmt.Printf("%s%s: <nil>\n", prefix, fieldName)
				continue
			}
			field = field.Elem()
		}

		switch {
		case field.Type() == reflect.TypeOf(time.Duration(0)):
			fmt.Printf("%s%s: %s\n", prefix, fieldName, field.Interface().(time.Duration).String())
		case field.Kind() == reflect.Struct:
			fmt.Printf("%s%s:\n", prefix, fieldName)
			c.printConfig(field.Addr().Interface(), prefix+"  ")
		case field.Kind() == reflect.String:
			fmt.Printf("%s%s: %q\n", prefix, fieldName, field.String())
		default:
			fmt.Printf("%s%s: %v\n", prefix, fieldName, field.Interface())
		}
	}
}

// Dump writes the effective settings, defaults included, as YAML.
func (c *Compositor) Dump(w io.Writer) error {
	if c.v == nil {
		return errors.New("configuration is not loaded")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c.v.AllSettings()); err != nil {
		return err
	}
	return enc.Close()
}
