package printing

import (
	"html/template"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale decides how numbers, money and dates are written
type Locale struct {
	Language   language.Tag
	Currency   currency.Unit
	DateFormat string
	Location   *time.Location
}

// NewLocale resolves organization settings, falling back to English, USD,
// ISO dates and UTC for values it cannot parse
func NewLocale(lang, currencyCode, dateFormat, timezone string) Locale {
	l := Locale{Language: language.English, Currency: currency.USD, DateFormat: "2006-01-02", Location: time.UTC}
	if tag, err := language.Parse(lang); err == nil {
		l.Language = tag
	}
	if u, err := currency.ParseISO(currencyCode); err == nil {
		l.Currency = u
	}
	if dateFormat != "" {
		l.DateFormat = dateFormat
	}
	if loc, err := time.LoadLocation(timezone); err == nil && timezone != "" {
		l.Location = loc
	}
	return l
}

// funcs returns the helpers bound to the locale. The same names are
// registered with placeholder values at parse time.
func (l Locale) funcs() template.FuncMap {
	p := message.NewPrinter(l.Language)
	scale, _ := currency.Standard.Rounding(l.Currency)
	caser := cases.Title(l.Language)
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}

	formatNumber := func(v any, places int) string {
		d := toDecimal(v).Round(int32(places))
		return p.Sprint(number.Decimal(d.InexactFloat64(), number.Scale(places)))
	}
	formatTime := func(v any, layout string) string {
		t := toTime(v)
		if t.IsZero() {
			return ""
		}
		return t.In(loc).Format(layout)
	}

	return template.FuncMap{
		"money": func(v any) string {
			return l.Currency.String() + " " + formatNumber(v, scale)
		},
		"decimal": func(v any, places int) string {
			return formatNumber(v, places)
		},
		"percent": func(v any) string {
			d := toDecimal(v)
			return p.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(2))) + "%"
		},
		"date": func(v any) string {
			return formatTime(v, l.DateFormat)
		},
		"datetime": func(v any) string {
			return formatTime(v, l.DateFormat+" 15:04")
		},
		"title": func(s any) string {
			return caser.String(strings.ReplaceAll(toString(s), "_", " "))
		},
	}
}

// staticFuncs do not depend on the locale
func staticFuncs() template.FuncMap {
	return template.FuncMap{
		"coalesce":    coalesce,
		"default":     defaultValue,
		"empty":       empty,
		"statusClass": statusClass,
		"sum":         sumField,
		"add":         func(a, b any) decimal.Decimal { return toDecimal(a).Add(toDecimal(b)) },
		"sub":         func(a, b any) decimal.Decimal { return toDecimal(a).Sub(toDecimal(b)) },
		"mul":         func(a, b any) decimal.Decimal { return toDecimal(a).Mul(toDecimal(b)) },
		"upper":       func(s any) string { return strings.ToUpper(toString(s)) },
	}
}

// baseFuncs is the full set used at parse time
func baseFuncs() template.FuncMap {
	fm := NewLocale("", "", "", "").funcs()
	for k, v := range staticFuncs() {
		fm[k] = v
	}
	return fm
}

// coalesce returns the first non-empty value
func coalesce(vals ...any) any {
	for _, v := range vals {
		if !empty(v) {
			return v
		}
	}
	return nil
}

// defaultValue takes the fallback first so it reads well in a pipeline:
// {{.Notes | default "-"}}
func defaultValue(def, v any) any {
	if empty(v) {
		return def
	}
	return v
}

func empty(v any) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case decimal.Decimal:
		return val.IsZero()
	case time.Time:
		return val.IsZero()
	case string:
		return strings.TrimSpace(val) == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return true
		}
		return empty(rv.Elem().Interface())
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	}
	return rv.IsZero()
}

var statusGroups = map[string]string{
	"paid": "ok", "completed": "ok", "approved": "ok", "active": "ok",
	"finalized": "ok", "closed": "ok", "received": "ok", "delivered": "ok",
	"overdue": "bad", "cancelled": "bad", "rejected": "bad", "void": "bad",
	"written_off": "bad", "high": "bad", "critical": "bad",
	"draft": "muted", "pending": "muted", "open": "muted",
}

// statusClass maps a status string to "status status-<group>"
func statusClass(status any) string {
	s := strings.ToLower(strings.TrimSpace(toString(status)))
	group, ok := statusGroups[s]
	if !ok {
		group = "neutral"
	}
	return "status status-" + group
}

// sumField adds up field over a slice of structs, pointers or maps.
// Promoted fields of embedded structs are found too.
func sumField(slice any, field string) decimal.Decimal {
	total := decimal.Zero
	rv := reflect.ValueOf(slice)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return total
	}
	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i)
		for elem.Kind() == reflect.Ptr || elem.Kind() == reflect.Interface {
			if elem.IsNil() {
				break
			}
			elem = elem.Elem()
		}
		var fv reflect.Value
		switch elem.Kind() {
		case reflect.Struct:
			fv = elem.FieldByName(field)
		case reflect.Map:
			fv = elem.MapIndex(reflect.ValueOf(field))
		}
		if fv.IsValid() && fv.CanInterface() {
			total = total.Add(toDecimal(fv.Interface()))
		}
	}
	return total
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, val); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case interface{ String() string }:
		return val.String()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	return ""
}
