package crm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInt
	KindDecimal
)

// Value is a CRM field value: null, string, integer or exact decimal.
// The zero Value is null.
type Value struct {
	kind Kind
	str  string
	num  int64
	dec  decimal.Decimal
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, num: i} }

// Decimal returns an exact decimal value.
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text renders the value as it appears in a query string. Null renders empty.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.num, 10)
	case KindDecimal:
		return v.dec.String()
	default:
		return ""
	}
}

// MarshalJSON writes strings quoted, integers and decimals as bare numbers.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return strconv.AppendInt(nil, v.num, 10), nil
	case KindDecimal:
		return []byte(v.dec.String()), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads null, a string or a number. Numbers without a fraction
// or exponent become integers when they fit, anything else a decimal.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = Null()
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
		return nil
	}

	text := string(data)
	if !strings.ContainsAny(text, ".eE") {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			*v = Int(i)
			return nil
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("unsupported field value %s", text)
	}
	*v = Decimal(d)
	return nil
}

// Filter restricts a list query: filters[Name]=Value.
type Filter struct {
	Name  string
	Value Value
}

// Query describes a list request against a resource.
type Query struct {
	Resource string
	Filters  []Filter
	Include  []string
}

// Path renders the query as a request path. Null filters are omitted and
// values are escaped.
func (q Query) Path() string {
	var params []string
	for _, f := range q.Filters {
		if f.Value.IsNull() {
			continue
		}
		params = append(params, fmt.Sprintf("filters[%s]=%s", f.Name, url.QueryEscape(f.Value.Text())))
	}
	if len(q.Include) > 0 {
		params = append(params, "include="+url.QueryEscape(strings.Join(q.Include, ",")))
	}
	if len(params) == 0 {
		return q.Resource
	}
	return q.Resource + "?" + strings.Join(params, "&")
}
