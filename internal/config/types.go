package config

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Type identifies the value behavior of a registered setting. The set is
// closed: every setting declares exactly one type, which owns parsing,
// formatting, and comparison of its values.
type Type int

const (
	TypeString Type = iota
	TypeInt
	TypeStringList
	TypeIntList
)

// String returns the type name shown in the settings listing.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeStringList:
		return "list of strings"
	case TypeIntList:
		return "list of integers"
	default:
		return "unknown"
	}
}

// Parse converts raw text into a value of this type. List types use JSON
// array syntax, e.g. ["alice", "bob"] or [-100500], and are canonicalized
// to sorted, deduplicated form so they compare as sets.
func (t Type) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)

	switch t {
	case TypeString:
		if raw == "" {
			return nil, fmt.Errorf("empty value")
		}
		return raw, nil

	case TypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", raw)
		}
		return n, nil

	case TypeStringList:
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf(`not a JSON array of strings, e.g. ["alice", "bob"]: %q`, raw)
		}
		return canonStrings(list), nil

	case TypeIntList:
		var list []int64
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("not a JSON array of integers, e.g. [-100500]: %q", raw)
		}
		return canonInts(list), nil

	default:
		return nil, fmt.Errorf("unsupported setting type %d", t)
	}
}

// Format renders a value of this type as display text. It is the inverse of
// Parse for every value Parse can produce.
func (t Type) Format(v any) string {
	switch t {
	case TypeString:
		return v.(string)
	case TypeInt:
		return strconv.Itoa(v.(int))
	case TypeStringList, TypeIntList:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Equal compares two values of this type. List values are canonical, so a
// plain element-wise comparison gives set equality.
func (t Type) Equal(a, b any) bool {
	switch t {
	case TypeStringList:
		return slices.Equal(a.([]string), b.([]string))
	case TypeIntList:
		return slices.Equal(a.([]int64), b.([]int64))
	default:
		return a == b
	}
}

// canonStrings and canonInts return non-nil slices so empty lists format
// as [] rather than null.
func canonStrings(list []string) []string {
	out := make([]string, 0, len(list))
	out = append(out, list...)
	slices.Sort(out)
	return slices.Compact(out)
}

func canonInts(list []int64) []int64 {
	out := make([]int64, 0, len(list))
	out = append(out, list...)
	slices.Sort(out)
	return slices.Compact(out)
}
