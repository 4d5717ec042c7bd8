// Package validation checks request bodies and path values before they are
// decoded into domain inputs. Every violated field is reported, not just the
// first one.
package validation

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	// ReasonRequired is reported for a required field that is absent.
	ReasonRequired = "required but not provided"
	// ReasonType is reported for a field that is present but has the wrong
	// type or format.
	ReasonType = "type error"
)

// Kind is the expected shape of a field value.
type Kind int

const (
	// String is a non-empty string.
	String Kind = iota
	// Text is any string, including the empty one.
	Text
	// Numeric is a number or a string holding a decimal number.
	Numeric
	// Integer is a whole number or a string holding one.
	Integer
	// Bool is a JSON boolean.
	Bool
	// UUID is a string holding a UUID.
	UUID
	// Email is a string holding a single bare mail address.
	Email
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Text:
		return "text"
	case Numeric:
		return "numeric"
	case Integer:
		return "integer"
	case Bool:
		return "bool"
	case UUID:
		return "uuid"
	case Email:
		return "email"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Rule describes one field of a request body. Zero limits are unchecked.
type Rule struct {
	Field    string
	Kind     Kind
	Required bool
	// MaxChars caps the length of string values in characters.
	MaxChars int
	// MaxBytes caps the length of string values in bytes.
	MaxBytes int
	// Min and Max bound Numeric and Integer values, inclusive.
	Min, Max *decimal.Decimal
}

// Chars returns r with values limited to n characters.
func (r Rule) Chars(n int) Rule {
	r.MaxChars = n
	return r
}

// Bytes returns r with values limited to n bytes.
func (r Rule) Bytes(n int) Rule {
	r.MaxBytes = n
	return r
}

// Between returns r with numeric values limited to [lo, hi]. It panics on
// malformed bounds, which are always literals.
func (r Rule) Between(lo, hi string) Rule {
	lower, upper := decimal.RequireFromString(lo), decimal.RequireFromString(hi)
	r.Min, r.Max = &lower, &upper
	return r
}

// Required declares a field that must be present and well-typed.
func Required(field string, kind Kind) Rule {
	return Rule{Field: field, Kind: kind, Required: true}
}

// Optional declares a field that may be absent or null, but must be
// well-typed when given.
func Optional(field string, kind Kind) Rule {
	return Rule{Field: field, Kind: kind}
}

// Violations maps a field name to the reason it was rejected.
type Violations map[string]string

// Error is returned when a request fails validation.
type Error struct {
	Message string
	Fields  Violations
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+e.Fields[field])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

// Body validates a JSON object against rules.
func Body(body []byte, rules ...Rule) error {
	if !gjson.ValidBytes(body) {
		return &Error{Message: "malformed JSON body"}
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return &Error{Message: "request body must be a JSON object"}
	}

	violations := Violations{}
	for _, rule := range rules {
		value := root.Get(escape(rule.Field))
		if !value.Exists() {
			if rule.Required {
				violations[rule.Field] = ReasonRequired
			}
			continue
		}
		if value.Type == gjson.Null && !rule.Required {
			continue
		}
		if !matches(value, rule.Kind) || !withinLimits(value, rule) {
			violations[rule.Field] = ReasonType
		}
	}
	if len(violations) > 0 {
		return &Error{Message: "validation failed", Fields: violations}
	}
	return nil
}

// Decode validates body against rules and then unmarshals it into dst.
func Decode(body []byte, dst any, rules ...Rule) error {
	if err := Body(body, rules...); err != nil {
		return err
	}
	body, err := trimNumbers(body, rules)
	if err != nil {
		return &Error{Message: "malformed JSON body: " + err.Error()}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &Error{Message: "malformed JSON body: " + err.Error()}
	}
	return nil
}

// trimNumbers rewrites Numeric and Integer string values without their
// surrounding whitespace, so decoding accepts what validation accepted.
func trimNumbers(body []byte, rules []Rule) ([]byte, error) {
	var fields map[string]json.RawMessage
	changed := false
	for _, rule := range rules {
		if rule.Kind != Numeric && rule.Kind != Integer {
			continue
		}
		value := gjson.GetBytes(body, escape(rule.Field))
		if value.Type != gjson.String || strings.TrimSpace(value.Str) == value.Str {
			continue
		}
		if fields == nil {
			if err := json.Unmarshal(body, &fields); err != nil {
				return nil, err
			}
		}
		trimmed, err := json.Marshal(strings.TrimSpace(value.Str))
		if err != nil {
			return nil, err
		}
		fields[rule.Field] = trimmed
		changed = true
	}
	if !changed {
		return body, nil
	}
	return json.Marshal(fields)
}

// Value validates a single raw value, such as a path parameter. An empty
// value counts as absent.
func Value(field, raw string, kind Kind) error {
	if raw == "" {
		return &Error{Message: "validation failed", Fields: Violations{field: ReasonRequired}}
	}
	result := gjson.Result{Type: gjson.String, Str: raw, Raw: strconv.Quote(raw)}
	if !matches(result, kind) {
		return &Error{Message: "validation failed", Fields: Violations{field: ReasonType}}
	}
	return nil
}

func matches(value gjson.Result, kind Kind) bool {
	switch kind {
	case String:
		return value.Type == gjson.String && strings.TrimSpace(value.Str) != ""
	case Text:
		return value.Type == gjson.String
	case Numeric:
		switch value.Type {
		case gjson.Number:
			return true
		case gjson.String:
			_, err := decimal.NewFromString(strings.TrimSpace(value.Str))
			return err == nil
		}
		return false
	case Integer:
		switch value.Type {
		case gjson.Number:
			_, err := strconv.ParseInt(value.Raw, 10, 64)
			return err == nil
		case gjson.String:
			_, err := strconv.ParseInt(strings.TrimSpace(value.Str), 10, 64)
			return err == nil
		}
		return false
	case Bool:
		return value.Type == gjson.True || value.Type == gjson.False
	case UUID:
		if value.Type != gjson.String {
			return false
		}
		_, err := uuid.Parse(value.Str)
		return err == nil
	case Email:
		if value.Type != gjson.String || strings.ContainsAny(value.Str, "\r\n") {
			return false
		}
		addr, err := mail.ParseAddress(value.Str)
		return err == nil && addr.Name == "" && addr.Address == strings.TrimSpace(value.Str)
	default:
		return false
	}
}

func withinLimits(value gjson.Result, rule Rule) bool {
	if value.Type == gjson.String {
		if rule.MaxChars > 0 && utf8.RuneCountInString(value.Str) > rule.MaxChars {
			return false
		}
		if rule.MaxBytes > 0 && len(value.Str) > rule.MaxBytes {
			return false
		}
	}
	if rule.Min == nil && rule.Max == nil {
		return true
	}
	raw := value.Raw
	if value.Type == gjson.String {
		raw = strings.TrimSpace(value.Str)
	}
	n, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	if rule.Min != nil && n.LessThan(*rule.Min) {
		return false
	}
	return rule.Max == nil || !n.GreaterThan(*rule.Max)
}

// escape quotes gjson path metacharacters so field names match literally.
func escape(field string) string {
	var b strings.Builder
	for _, r := range field {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
