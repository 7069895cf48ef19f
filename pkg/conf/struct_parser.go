package conf

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/camelcase"
	"github.com/pkg/errors"
)

const (
	// Tag for specifying the help description of the field. [Required]
	helpTag = "help"
	// Tag for specifying default value for field. [Optional]
	defaultTag = "default"
	// Tag for overriding the name of the field. [Optional]
	nameTag = "name"
	// Tag for specifying that the flag is required. [Optional]
	requiredTag = "required"
	// Tag for specifying that the string flag is a path to an existing file. [Optional]
	stringTypeTag  = "type"
	stringTypeFile = "file"
	// Special field name indicating prefix for all flags in struct.
	prefixFieldName = "flagPrefix"
)

var durationType = reflect.TypeOf(time.Duration(0))

// Process registers flags for every tagged field of the given struct pointer and
// fills the fields with current flag values (defaults when not parsed yet).
// Fields without a help tag are left untouched.
func Process(data interface{}) error {
	value := reflect.ValueOf(data)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return errors.Errorf("argument needs to be a pointer to struct, got %T", data)
	}

	structValue := value.Elem()
	structType := structValue.Type()
	prefix := ""
	if prefixField := structValue.FieldByName(prefixFieldName); prefixField.IsValid() && prefixField.Kind() == reflect.String {
		prefix = prefixField.String()
	}

	for i := 0; i < structValue.NumField(); i++ {
		field := structValue.Field(i)
		fieldStruct := structType.Field(i)
		if !field.CanSet() || fieldStruct.Anonymous {
			continue
		}
		if err := processField(prefix, field, fieldStruct); err != nil {
			return errors.Wrapf(err, "cannot process field %s of %s", fieldStruct.Name, structType.Name())
		}
	}
	return nil
}

// nameFromFieldName converts e.g. SomeField to some_field.
func nameFromFieldName(name string) string {
	words := []string{}
	for _, word := range camelcase.Split(name) {
		if word == "_" {
			continue
		}
		words = append(words, strings.ToLower(word))
	}
	return strings.Join(words, "_")
}

func processField(prefix string, field reflect.Value, fieldStruct reflect.StructField) error {
	help := fieldStruct.Tag.Get(helpTag)
	if help == "" {
		for _, tag := range []string{nameTag, defaultTag, requiredTag, stringTypeTag} {
			if fieldStruct.Tag.Get(tag) != "" {
				return errors.New("required help tag is missing")
			}
		}
		// Untagged fields are not exposed as flags.
		return nil
	}

	name := fieldStruct.Tag.Get(nameTag)
	if name == "" {
		name = fieldStruct.Name
	}
	name = nameFromFieldName(prefix + name)
	defaultValue := fieldStruct.Tag.Get(defaultTag)

	var clause *cliAndEnvFlag
	switch {
	case field.Type() == durationType:
		var defaultDuration time.Duration
		if defaultValue != "" {
			parsed, err := time.ParseDuration(defaultValue)
			if err != nil {
				return errors.Wrap(err, "wrong default value for duration flag")
			}
			defaultDuration = parsed
		}
		flag := NewDurationFlag(name, help, defaultDuration)
		field.SetInt(int64(flag.Value()))
		clause = flag.cliAndEnvFlag

	case field.Kind() == reflect.String:
		if fieldStruct.Tag.Get(stringTypeTag) == stringTypeFile {
			flag := NewFileFlag(name, help, defaultValue)
			field.SetString(flag.Value())
			clause = flag.cliAndEnvFlag
		} else {
			flag := NewStringFlag(name, help, defaultValue)
			field.SetString(flag.Value())
			clause = flag.cliAndEnvFlag
		}

	case field.Kind() >= reflect.Int && field.Kind() <= reflect.Int64:
		var defaultInt int
		if defaultValue != "" {
			parsed, err := strconv.Atoi(defaultValue)
			if err != nil {
				return errors.Wrap(err, "wrong default value for int flag")
			}
			defaultInt = parsed
		}
		flag := NewIntFlag(name, help, defaultInt)
		field.SetInt(int64(flag.Value()))
		clause = flag.cliAndEnvFlag

	case field.Kind() == reflect.Bool:
		var defaultBool bool
		if defaultValue != "" {
			parsed, err := strconv.ParseBool(defaultValue)
			if err != nil {
				return errors.Wrap(err, "wrong default value for bool flag")
			}
			defaultBool = parsed
		}
		flag := NewBoolFlag(name, help, defaultBool)
		field.SetBool(flag.Value())
		clause = flag.cliAndEnvFlag

	case field.Type() == reflect.TypeOf([]string(nil)):
		var elems []string
		if defaultValue != "" {
			elems = strings.Split(defaultValue, stringListDelimiter)
		}
		flag := NewSliceFlag(name, help, elems...)
		field.Set(reflect.ValueOf(append([]string{}, flag.Value()...)))
		clause = flag.cliAndEnvFlag

	default:
		return errors.Errorf("%s type not supported for a flag", field.Type())
	}

	if fieldStruct.Tag.Get(requiredTag) == "true" {
		clause.Required()
	}
	return nil
}
