package component

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
)

// SchemaDirectives is the parsed form of a `schema` struct tag.
type SchemaDirectives struct {
	Type        string
	Description string
	Category    string
	Default     any // typed once the tag is fully parsed
	Required    bool
	Runtime     bool
	Min         *int
	Max         *int
	Enum        []string
}

var schemaTypes = []string{"string", "int", "bool", "float", "enum", "array", "object"}

// schemaFlags are the directives that take no value.
var schemaFlags = map[string]func(*SchemaDirectives){
	"required": func(d *SchemaDirectives) { d.Required = true },
	"runtime":  func(d *SchemaDirectives) { d.Runtime = true },
}

// schemaSetters handle key:value directives. default is handled separately
// because its meaning depends on type.
var schemaSetters = map[string]func(*SchemaDirectives, string) error{
	"type": func(d *SchemaDirectives, v string) error {
		if !slices.Contains(schemaTypes, v) {
			return fmt.Errorf("type %q is not one of %s", v, strings.Join(schemaTypes, ", "))
		}
		d.Type = v
		return nil
	},
	"description": func(d *SchemaDirectives, v string) error {
		d.Description = v
		return nil
	},
	"category": func(d *SchemaDirectives, v string) error {
		if v != "basic" && v != "advanced" {
			return fmt.Errorf("category %q is neither basic nor advanced", v)
		}
		d.Category = v
		return nil
	},
	"min": func(d *SchemaDirectives, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("min %q is not an integer", v)
		}
		d.Min = &n
		return nil
	},
	"max": func(d *SchemaDirectives, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("max %q is not an integer", v)
		}
		d.Max = &n
		return nil
	},
	"enum": func(d *SchemaDirectives, v string) error {
		for _, e := range strings.Split(v, "|") {
			d.Enum = append(d.Enum, strings.TrimSpace(e))
		}
		return nil
	},
}

// ParseSchemaTag parses a comma separated schema tag. Flags stand alone,
// everything else is key:value, enum values are separated by '|':
//
//	schema:"type:int,description:Number of outputs,min:1,max:10,default:2"
//	schema:"runtime,type:string,description:Active ports,default:all"
//
// The type directive is mandatory. A default is converted to the Go value
// matching the type (int, bool, float64, string).
func ParseSchemaTag(tag string) (SchemaDirectives, error) {
	var d SchemaDirectives
	fail := func(err error) (SchemaDirectives, error) {
		return d, errors.WrapInvalid(fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"SchemaTag", "ParseSchemaTag", "parse "+strconv.Quote(tag))
	}

	var rawDefault string
	hasDefault := false
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, isPair := strings.Cut(part, ":")
		if !isPair {
			set, ok := schemaFlags[part]
			if !ok {
				return fail(fmt.Errorf("unknown flag %q", part))
			}
			set(&d)
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if value == "" {
			return fail(fmt.Errorf("directive %q has no value", key))
		}
		if key == "default" {
			rawDefault, hasDefault = value, true
			continue
		}
		set, ok := schemaSetters[key]
		if !ok {
			return fail(fmt.Errorf("unknown directive %q", key))
		}
		if err := set(&d, value); err != nil {
			return fail(err)
		}
	}

	if d.Type == "" {
		return fail(fmt.Errorf("missing type directive"))
	}
	if hasDefault {
		v, err := typedDefault(rawDefault, d.Type)
		if err != nil {
			return fail(err)
		}
		d.Default = v
	}
	return d, nil
}

func typedDefault(raw, typ string) (any, error) {
	switch typ {
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("default %q is not an int", raw)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("default %q is not a float", raw)
		}
		return f, nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("default %q is not a bool", raw)
		}
		return b, nil
	case "array", "object":
		return nil, fmt.Errorf("%s fields cannot carry a default", typ)
	default:
		return raw, nil
	}
}

// GenerateConfigSchema builds a ConfigSchema from the json and schema tags of
// a config struct. Fields without both tags, or with a schema tag that does
// not parse, are left out. Components compute it once:
//
//	var schema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))
func GenerateConfigSchema(configType reflect.Type) ConfigSchema {
	schema := ConfigSchema{Properties: map[string]PropertySchema{}, Required: []string{}}
	if configType.Kind() == reflect.Pointer {
		configType = configType.Elem()
	}
	if configType.Kind() != reflect.Struct {
		return schema
	}

	for _, field := range reflect.VisibleFields(configType) {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		tag, tagged := field.Tag.Lookup("schema")
		if !field.IsExported() || name == "" || name == "-" || !tagged {
			continue
		}
		d, err := ParseSchemaTag(tag)
		if err != nil {
			continue
		}
		if d.Description == "" {
			d.Description = name
		}
		schema.Properties[name] = PropertySchema{
			Type:        d.Type,
			Description: d.Description,
			Category:    d.Category,
			Default:     d.Default,
			Minimum:     d.Min,
			Maximum:     d.Max,
			Enum:        d.Enum,
			Runtime:     d.Runtime,
		}
		if d.Required {
			schema.Required = append(schema.Required, name)
		}
	}
	return schema
}
