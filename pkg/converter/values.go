// pkg/converter/values.go
package converter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/David-Botos/pathprep/pkg/model"
)

// ConvertValue coerces a value to the representation used for the given kind
func (c *TypeConverter) ConvertValue(value interface{}, kind model.Kind) (interface{}, error) {
	// Handle null values
	if value == nil {
		return nil, nil
	}

	switch kind {
	case model.KindString:
		return c.convertToText(value)
	case model.KindInt64:
		return convertToInt(value)
	case model.KindFloat64:
		return convertToFloat(value)
	case model.KindBool:
		return convertToBoolean(value)
	case model.KindGeometry:
		if g, ok := value.(model.Geometry); ok {
			return g, nil
		}
		if b, ok := value.([]byte); ok {
			return model.Geometry{WKB: b}, nil
		}
		return nil, errors.Errorf("cannot convert %T to geometry", value)
	default:
		return nil, errors.Errorf("unknown kind %d", kind)
	}
}

// ToString returns the string form of a scalar value.
// Integral floats print without a fractional part, so 2015.0 becomes "2015".
func ToString(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case json.Number:
		return val.String()
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		// Use Sprint as a fallback
		return fmt.Sprintf("%v", val)
	}
}

// convertToText converts a value to text
func (c *TypeConverter) convertToText(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		if v == "" && c.config.EmptyStringAsNull {
			return nil, nil
		}
		return v, nil
	case map[string]interface{}, []interface{}:
		if !c.config.NestedAsJSON {
			return nil, nil
		}
		jsonBytes, err := json.Marshal(v)
		if err != nil {
			return nil, errors.Wrap(err, "marshal nested value")
		}
		return string(jsonBytes), nil
	default:
		return ToString(v), nil
	}
}

// convertToInt converts a value to int64
func convertToInt(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case float64:
		if v != math.Trunc(v) {
			return nil, errors.Errorf("cannot convert fractional %v to int64", v)
		}
		return int64(v), nil
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return nil, nil
		}
		return strconv.ParseInt(cleaned, 10, 64)
	default:
		return nil, errors.Errorf("cannot convert %T to int64", value)
	}
}

// convertToFloat converts a value to float64
func convertToFloat(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	case string:
		cleaned := strings.TrimSpace(v)
		if cleaned == "" {
			return nil, nil
		}
		return strconv.ParseFloat(cleaned, 64)
	default:
		return nil, errors.Errorf("cannot convert %T to float64", value)
	}
}

// convertToBoolean converts a value to bool
func convertToBoolean(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "t", "yes", "y", "1":
			return true, nil
		case "false", "f", "no", "n", "0":
			return false, nil
		default:
			return nil, errors.Errorf("cannot convert string '%s' to boolean", v)
		}
	default:
		return nil, errors.Errorf("cannot convert %T to boolean", value)
	}
}
