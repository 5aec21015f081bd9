// Package attrcodec maps a flat logical record onto fixed storage columns plus
// one serialized blob holding every remaining field.
//
// The blob is a single JSON object. Keys are written in sorted order, so equal
// records always encode to equal bytes. Fields unknown to the reader survive a
// decode/encode cycle untouched.
//
// Dynamic values live in the JSON value domain: nil, bool, string, int64,
// float64, []interface{} and map[string]interface{}. Pack canonicalizes Go
// integers of any width to int64 (uint64 above MaxInt64 stays uint64) and
// float32 to float64. Floats keep their kind through the blob, so 2.0 decodes
// as float64 and 2 as int64.
package attrcodec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownEncoding is returned when a blob is not a JSON object.
var ErrUnknownEncoding = errors.New("attrcodec: unknown blob encoding")

// Record is a flat logical record: field name -> value.
type Record map[string]interface{}

// Pack splits rec into the fixed columns named by fixed and a blob holding the
// rest. Empty strings become nil before partitioning. The blob is nil when no
// dynamic field is left.
func Pack(rec Record, fixed []string) (Record, []byte, error) {
	isFixed := make(map[string]bool, len(fixed))
	for _, name := range fixed {
		isFixed[name] = true
	}

	columns := make(Record, len(fixed))
	dynamic := make(map[string]interface{})
	for name, value := range rec {
		value = normalize(value)
		if isFixed[name] {
			columns[name] = value
			continue
		}
		if value != nil {
			dynamic[name] = toJSONValue(canonical(value))
		}
	}

	if len(dynamic) == 0 {
		return columns, nil, nil
	}

	blob, err := json.Marshal(dynamic)
	if err != nil {
		return nil, nil, fmt.Errorf("attrcodec: encode blob: %w", err)
	}
	return columns, blob, nil
}

// Unpack merges the blob contents over the fixed columns. An absent or empty
// blob yields the columns alone.
func Unpack(columns Record, blob []byte) (Record, error) {
	rec := make(Record, len(columns))
	for name, value := range columns {
		rec[name] = value
	}

	blob = bytes.TrimSpace(blob)
	if len(blob) == 0 {
		return rec, nil
	}
	if blob[0] != '{' {
		return nil, ErrUnknownEncoding
	}

	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	var dynamic map[string]interface{}
	if err := dec.Decode(&dynamic); err != nil {
		return nil, fmt.Errorf("attrcodec: decode blob: %w", err)
	}
	for name, value := range dynamic {
		rec[name] = fromJSON(value)
	}
	return rec, nil
}

func normalize(value interface{}) interface{} {
	if s, ok := value.(string); ok && s == "" {
		return nil
	}
	return value
}

func canonical(value interface{}) interface{} {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return canonicalUint(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return canonicalUint(v)
	case float32:
		return float64(v)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = canonical(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = canonical(item)
		}
		return out
	default:
		return v
	}
}

func canonicalUint(v uint64) interface{} {
	if v <= math.MaxInt64 {
		return int64(v)
	}
	return v
}

// toJSONValue writes floats with a fraction or exponent so they are not read
// back as integers. NaN and Inf are left for json.Marshal to reject.
func toJSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return v
		}
		text := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(text, ".eE") {
			text += ".0"
		}
		return json.Number(text)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = toJSONValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = toJSONValue(item)
		}
		return out
	default:
		return v
	}
}

// fromJSON turns decoded numbers written without fraction or exponent into
// int64 (uint64 when too large), everything else into float64.
func fromJSON(value interface{}) interface{} {
	switch v := value.(type) {
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			if i, err := v.Int64(); err == nil {
				return i
			}
			if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
				return u
			}
		}
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) {
			return v.String()
		}
		return f
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = fromJSON(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = fromJSON(item)
		}
		return out
	default:
		return v
	}
}
