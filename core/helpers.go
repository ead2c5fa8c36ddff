// Package core provides the fundamental building blocks of the golem ORM.
// This file contains helper functions for reflection, field mapping,
// condition folding, and common value transformations.
package core

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unsafe"
)

// offsetOf returns the memory offset of a struct field selected by the given selector function.
//
// Example:
//
//	type User struct {
//	    ID   int
//	    Name string
//	}
//
//	offset := offsetOf(func(u *User) *string { return &u.Name })
func offsetOf[T any, F any](selector func(*T) *F) uintptr {
	var zero T
	base := uintptr(unsafe.Pointer(&zero))
	ptr := selector(&zero)
	return uintptr(unsafe.Pointer(ptr)) - base
}

// fieldNameFromSelectorFor resolves the Go struct field name from a selector function.
//
// It takes a function of the form func(*T) *F and uses reflection to map it
// back to the struct field name.
//
// Panics if the argument is not a function, or if the function does not return a field pointer.
func fieldNameFromSelectorFor[T any](selector any) string {
	if selector == nil {
		return ""
	}
	selectorValue := reflect.ValueOf(selector)
	if selectorValue.Kind() != reflect.Func {
		panic("selector must be a function")
	}

	// create *T
	var zero T
	typ := reflect.TypeOf(zero)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	arg := reflect.New(typ) // *T

	// execute the selector and obtain its return value
	out := selectorValue.Call([]reflect.Value{arg})
	if len(out) == 0 {
		panic("selector must return a pointer to a field")
	}
	ret := out[0]
	if ret.Kind() == reflect.Interface {
		ret = ret.Elem()
	}
	if ret.Kind() != reflect.Pointer {
		panic("selector must return a pointer to a field")
	}

	// calculate offset of the returned pointer relative to *T
	basePtr := arg.Pointer()
	fieldPtr := ret.Pointer()
	offset := uintptr(fieldPtr - basePtr)

	// find the field whose offset matches
	for _, sf := range reflect.VisibleFields(typ) {
		if !sf.Anonymous && offsetInRoot(typ, sf.Index) == offset {
			return sf.Name // Go struct field name
		}
	}
	return "???"
}

// mapToStruct maps a row (map[string]any) into a struct instance of type T.
//
// It uses reflection to assign values to fields, with support for:
//  1. Exact type matching
//  2. Value → pointer conversions (e.g. time.Time → *time.Time)
//  3. Pointer → value conversions (e.g. *time.Time → time.Time)
//  4. Convertible types (e.g. int → float64)
//
// Row keys are matched against the schema's column names first, then
// case-insensitively against the Go field names.
func mapToStruct[T any](schema *SchemaCore, row map[string]any, out *T) error {
	return assignRow(schema, row, reflect.ValueOf(out).Elem())
}

func assignRow(schema *SchemaCore, row map[string]any, value reflect.Value) error {
	for rowKey, rowValue := range row {
		var field reflect.Value
		if schema != nil {
			for _, f := range schema.Fields {
				if f.DatabaseColumnName == rowKey {
					field = value.FieldByIndex(f.Index)
					break
				}
			}
		}
		if !field.IsValid() {
			field = value.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, rowKey) })
		}
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		if err := assignValue(field, rowValue); err != nil {
			return fmt.Errorf("column %s: %w", rowKey, err)
		}
	}
	return nil
}

func assignValue(field reflect.Value, rowValue any) error {
	if rowValue == nil {
		// If the field is a pointer, set to nil; otherwise skip
		if field.Kind() == reflect.Pointer {
			field.Set(reflect.Zero(field.Type()))
		}
		return nil
	}

	rv := reflect.ValueOf(rowValue)

	// 1) exact type match
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}

	// 2) value → pointer
	if field.Kind() == reflect.Pointer && rv.Type().AssignableTo(field.Type().Elem()) {
		ptr := reflect.New(field.Type().Elem())
		ptr.Elem().Set(rv)
		field.Set(ptr)
		return nil
	}

	// 3) pointer → value
	if rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem().AssignableTo(field.Type()) {
		field.Set(rv.Elem())
		return nil
	}

	// 4) scanner (decimal.Decimal, uuid.UUID, ...)
	if field.CanAddr() {
		if sc, ok := field.Addr().Interface().(sql.Scanner); ok {
			return sc.Scan(rowValue)
		}
	}
	if field.Kind() == reflect.Pointer {
		ptr := reflect.New(field.Type().Elem())
		if sc, ok := ptr.Interface().(sql.Scanner); ok {
			if err := sc.Scan(rowValue); err != nil {
				return err
			}
			field.Set(ptr)
			return nil
		}
	}

	// 5) convertible types
	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return nil
	}
	if field.Kind() == reflect.Pointer && rv.Type().ConvertibleTo(field.Type().Elem()) {
		ptr := reflect.New(field.Type().Elem())
		ptr.Elem().Set(rv.Convert(field.Type().Elem()))
		field.Set(ptr)
	}
	return nil
}

// foldConditionsAnd combines multiple conditions into a single condition
// using logical AND. Nil and always-true conditions are dropped. If nothing
// is left, it returns nil; if one condition is left, it returns that condition.
func foldConditionsAnd(conds ...*Condition) *Condition {
	kept := make([]*Condition, 0, len(conds))
	for _, c := range conds {
		if !c.IsTrue() {
			kept = append(kept, c)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return All(kept...)
	}
}

// StructValues extracts field values from a struct according to its schema.
//
// It returns two slices:
//   - values: field values in order
//   - placeholders: parameter placeholders ($1, $2, ...) for SQL queries
//
// Example:
//
//	values, placeholders := StructValues(userSchema, &user)
func StructValues(schema *SchemaCore, doc any) ([]any, []string) {
	value := reflect.ValueOf(doc)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}

	valueList := []any{}
	placeholderList := []string{}

	for index, field := range schema.Fields {
		fv := value.FieldByName(field.StructFieldName)

		var v any
		if fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				v = nil
			} else {
				v = fv.Elem().Interface()
			}
		} else {
			v = fv.Interface()
		}

		valueList = append(valueList, v)
		placeholderList = append(placeholderList, fmt.Sprintf("$%d", index+1))
	}

	return valueList, placeholderList
}

// Include returns the Go struct field name given a selector function.
//
// Example:
//
//	nameField := Include(func(u *User) *string { return &u.Name })
func Include[L any, F any](selector func(*L) *F) string {
	return fieldNameFromSelectorFor[L](selector)
}

// setTimeField sets a time.Time value into a struct field, supporting both
// value and pointer kinds.
//
// If the field is a struct time.Time, it sets the value directly.
// If the field is a *time.Time, it sets or allocates as needed.
func setTimeField(field reflect.Value, t time.Time) {
	if !field.IsValid() || !field.CanSet() {
		return
	}
	timeType := reflect.TypeOf(time.Time{})

	switch field.Kind() {
	case reflect.Struct:
		if field.Type() == timeType {
			field.Set(reflect.ValueOf(t))
		}
	case reflect.Pointer:
		if field.Type().Elem() == timeType {
			if field.IsNil() {
				ptr := reflect.New(timeType)
				ptr.Elem().Set(reflect.ValueOf(t))
				field.Set(ptr)
			} else {
				field.Elem().Set(reflect.ValueOf(t))
			}
		}
	}
}
