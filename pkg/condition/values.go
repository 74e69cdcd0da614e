package condition

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	literalNull = "null"
	literalYes  = "YES"
	literalNo   = "NO"
)

// matches implements the equality predicate with the schema contract's
// special cases: `null` matches the empty value, YES/NO also match booleans,
// everything else compares as strings. The inequality predicate is the exact
// complement, so there is a single source of truth here.
func matches(got any, want string) bool {
	switch want {
	case literalNull:
		return isEmpty(got)
	case literalYes:
		if b, ok := got.(bool); ok {
			return b
		}
	case literalNo:
		if b, ok := got.(bool); ok {
			return !b
		}
	}
	return coerceString(got) == want
}

func includes(got any, want string) bool {
	switch v := got.(type) {
	case nil:
		return false
	case []string:
		for _, entry := range v {
			if strings.TrimSpace(entry) == want {
				return true
			}
		}
		return false
	case []any:
		for _, entry := range v {
			if strings.TrimSpace(coerceString(entry)) == want {
				return true
			}
		}
		return false
	case string:
		for _, token := range strings.Split(v, ",") {
			if strings.TrimSpace(token) == want {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// isEmpty reports whether a form value counts as "null" for the condition
// grammar: unset, nil, or the empty string. false and 0 are present values.
func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0
	case []any:
		return len(v) == 0
	default:
		return false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
