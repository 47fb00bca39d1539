// pkg/converter/mapping.go
package converter

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/David-Botos/pathprep/pkg/model"
)

// InferKind picks the column kind for a set of decoded GeoJSON property values.
// Values are expected as produced by a json.Decoder with UseNumber enabled.
//
// Integral numbers only give int64, any fractional number gives float64,
// booleans alone give bool. Strings, nested values and mixed scalars fall
// back to string. A column that is entirely null is a string column.
func (c *TypeConverter) InferKind(name string, values []interface{}) model.Kind {
	var hasString, hasBool, hasInt, hasFloat, hasNested bool

	for _, v := range values {
		switch val := v.(type) {
		case nil:
		case string:
			hasString = true
		case bool:
			hasBool = true
		case json.Number:
			if _, err := val.Int64(); err == nil {
				hasInt = true
			} else {
				hasFloat = true
			}
		case float64:
			hasFloat = true
		case map[string]interface{}, []interface{}:
			hasNested = true
		default:
			hasString = true
		}
	}

	hasNumber := hasInt || hasFloat
	switch {
	case hasString || hasNested || (hasBool && hasNumber):
		if hasNumber || hasBool {
			c.logger.Debug("Mixed property types, falling back to string",
				zap.String("column", name))
		}
		return model.KindString
	case hasBool:
		return model.KindBool
	case hasFloat:
		return model.KindFloat64
	case hasInt:
		return model.KindInt64
	default:
		return model.KindString
	}
}
