package leads

import (
	"encoding/json"
	"sort"
	"strconv"
)

// NormalizeErrorList maps the historical encodings of the stored
// validation-error field onto the canonical ordered list of strings. Old
// records wrote the field as a JSON array, a bare string, or a key-value
// object; the write path only produces the array shape today. This is the one
// place the ambiguity is allowed to exist — callers always see []string.
//
// Object values are emitted in sorted-key order so the result is stable.
func NormalizeErrorList(raw []byte) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var asList []any
	if err := json.Unmarshal(raw, &asList); err == nil {
		out := make([]string, 0, len(asList))
		for _, v := range asList {
			out = append(out, stringify(v))
		}
		return out
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return []string{asString}
	}

	var asObject map[string]any
	if err := json.Unmarshal(raw, &asObject); err == nil {
		keys := make([]string, 0, len(asObject))
		for k := range asObject {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, stringify(asObject[k]))
		}
		return out
	}

	// Unrecognized scalar (number, bool). Surface it as text rather than
	// dropping it.
	return []string{string(raw)}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
