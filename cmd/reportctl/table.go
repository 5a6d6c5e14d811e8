package main

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
)

// writeTable prints a report result: a slice of row structs, a single
// struct, or a scalar. Column headers come from the json tags.
func writeTable(w io.Writer, rows any) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	v := reflect.ValueOf(rows)
	for v.Kind() == reflect.Pointer && !v.IsNil() {
		v = v.Elem()
	}

	switch {
	case v.Kind() == reflect.Slice:
		if v.Len() == 0 {
			fmt.Fprintln(tw, "(no rows)")
			break
		}
		fmt.Fprintln(tw, strings.Join(columns(v.Type().Elem()), "\t"))
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(tw, strings.Join(cells(v.Index(i)), "\t"))
		}
	case v.Kind() == reflect.Struct && !isScalar(v):
		fmt.Fprintln(tw, strings.Join(columns(v.Type()), "\t"))
		fmt.Fprintln(tw, strings.Join(cells(v), "\t"))
	default:
		fmt.Fprintln(tw, cell(v))
	}
	return tw.Flush()
}

// isScalar treats value types with their own String method, such as
// decimal.Decimal, as a single cell.
func isScalar(v reflect.Value) bool {
	_, ok := v.Interface().(fmt.Stringer)
	return ok
}

func columns(t reflect.Type) []string {
	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("json"), ",")[0]
		if name == "" {
			name = f.Name
		}
		cols = append(cols, name)
	}
	return cols
}

func cells(v reflect.Value) []string {
	var out []string
	for i := 0; i < v.NumField(); i++ {
		if !v.Type().Field(i).IsExported() {
			continue
		}
		out = append(out, cell(v.Field(i)))
	}
	return out
}

func cell(v reflect.Value) string {
	if !v.IsValid() {
		return "NULL"
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "NULL"
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.2f", v.Float())
	default:
		return fmt.Sprint(v.Interface())
	}
}
