package utils

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// AnyToType converts loosely typed JSON values to T. Only numeric widening
// conversions are attempted; anything else must already be a T.
func AnyToType[T any](input any) (T, error) {
	var zero T
	if input == nil {
		return zero, nil
	}

	if result, ok := input.(T); ok {
		return result, nil
	}

	targetType := reflect.TypeOf(zero)
	if targetType == nil {
		return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
	}

	inputValue := reflect.ValueOf(input)

	if targetType == reflect.TypeOf([]any{}) && inputValue.Kind() == reflect.Slice {
		result := make([]any, inputValue.Len())
		for i := 0; i < inputValue.Len(); i++ {
			result[i] = inputValue.Index(i).Interface()
		}
		if converted, ok := any(result).(T); ok {
			return converted, nil
		}
	}

	if isNumericKind(inputValue.Kind()) && isNumericKind(targetType.Kind()) && inputValue.Type().ConvertibleTo(targetType) {
		converted := inputValue.Convert(targetType)
		if result, ok := converted.Interface().(T); ok {
			return result, nil
		}
	}

	return zero, fmt.Errorf("type mismatch: expected %T, got %T", zero, input)
}

// AnyToString renders identifiers that upstream feeds send as either numbers
// or strings. Empty strings and unsupported types report false.
func AnyToString(input any) (string, bool) {
	switch v := input.(type) {
	case nil:
		return "", false
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	}

	if n, err := AnyToType[int64](input); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}

// AnyToFloat reads a number from a JSON value, accepting numeric strings.
func AnyToFloat(input any) (float64, bool) {
	switch v := input.(type) {
	case nil:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}

	f, err := AnyToType[float64](input)
	return f, err == nil
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
