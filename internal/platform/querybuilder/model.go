package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel renders a single-row insert from the db tags of model.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	builder, err := InsertFromModel(table, model)
	if err != nil {
		return "", nil, err
	}
	return builder.Suffix(suffix).ToSQL()
}

// InsertFromModel maps db-tagged exported fields to columns. A tag option of
// omitempty drops zero values so column defaults apply, and a field holding an
// Expr condition is rendered as SQL with its own placeholders.
func InsertFromModel(table string, model any) (*InsertBuilder, error) {
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return nil, err
	}
	return InsertInto(table).Columns(cols...).Values(vals...), nil
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, omitEmpty := parseDBTag(field.Tag.Get("db"))
		if col == "" {
			continue
		}
		fieldValue := value.Field(i)
		if omitEmpty && fieldValue.IsZero() {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, fieldValue.Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

func parseDBTag(tag string) (string, bool) {
	name, options, _ := strings.Cut(strings.TrimSpace(tag), ",")
	name = strings.TrimSpace(name)
	if name == "-" {
		return "", false
	}
	for _, option := range strings.Split(options, ",") {
		if strings.TrimSpace(option) == "omitempty" {
			return name, true
		}
	}
	return name, false
}
