package orders

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Combination maps a variant axis to the selected option, e.g. {"Color": "Red"}.
type Combination map[string]string

// UnmarshalJSON accepts scalar option values of any JSON type and keeps their
// string form; matching is by string equality.
func (c *Combination) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}
	out := make(Combination, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			out[k] = t
		case float64, bool:
			out[k] = fmt.Sprint(t)
		case nil:
			out[k] = ""
		default:
			return fmt.Errorf("variant %q: unsupported value %v", k, v)
		}
	}
	*c = out
	return nil
}

// Matches is an exact, order-independent comparison of two combinations.
func (c Combination) Matches(other Combination) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		ov, ok := other[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

func (c Combination) Empty() bool { return len(c) == 0 }

// String lists the option values ordered by axis name.
func (c Combination) String() string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vals := make([]string, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, c[k])
	}
	return strings.Join(vals, ", ")
}
