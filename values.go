// FILE: settings/values.go
package settings

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// rawParser is implemented by value types that assemble themselves from a
// raw source value, either a single delimited string or an
// already-structured list/mapping. Scan instantiates these through a
// decode hook.
type rawParser interface {
	Parse(raw any) error
}

// Delimiter detection priority. The order is load-bearing: ties and
// absence resolve to the earlier candidate.
var (
	listDelimiters  = []string{",", "\n", ";", "&"}
	paramSeparators = []string{"&", ",", ";", "\n"}
)

// detectDelimiter returns the most frequent candidate present in s.
// A tie keeps the earlier candidate; a string containing none of the
// candidates yields the first.
func detectDelimiter(s string, candidates []string) string {
	best := candidates[0]
	bestCount := strings.Count(s, best)

	for _, c := range candidates[1:] {
		if n := strings.Count(s, c); n > bestCount {
			best, bestCount = c, n
		}
	}

	return best
}

// DelimitedList is an ordered list parsed from a single delimited string.
// The delimiter is auto-detected (comma, newline, semicolon, ampersand in
// priority order) and retained so serialization round-trips.
type DelimitedList[T any] struct {
	delimiter string
	items     []T
}

// NewDelimitedList creates a list holding the given items with the
// default comma delimiter.
func NewDelimitedList[T any](items ...T) *DelimitedList[T] {
	return &DelimitedList[T]{
		delimiter: listDelimiters[0],
		items:     append([]T(nil), items...),
	}
}

// Parse fills the list from a raw value: a delimited string, a []T, or a
// []any with weakly-converted elements. Elements parsed from a string are
// whitespace-trimmed. A nil or all-whitespace input produces an empty
// list.
func (l *DelimitedList[T]) Parse(raw any) error {
	l.ensureDelimiter()

	switch v := raw.(type) {
	case nil:
		l.items = nil
		return nil

	case string:
		l.delimiter = detectDelimiter(v, listDelimiters)
		if strings.TrimSpace(v) == "" {
			l.items = nil
			return nil
		}
		parts := strings.Split(v, l.delimiter)
		items := make([]T, 0, len(parts))
		for _, part := range parts {
			elem, err := coerceElement[T](strings.TrimSpace(part))
			if err != nil {
				return fmt.Errorf("cannot convert element %q: %w", part, err)
			}
			items = append(items, elem)
		}
		l.items = items
		return nil

	case []T:
		l.items = append([]T(nil), v...)
		return nil

	case []any:
		items := make([]T, 0, len(v))
		for _, e := range v {
			elem, err := coerceElement[T](e)
			if err != nil {
				return fmt.Errorf("cannot convert element %v: %w", e, err)
			}
			items = append(items, elem)
		}
		l.items = items
		return nil
	}

	return fmt.Errorf("cannot parse %T into a delimited list", raw)
}

// Len returns the number of elements.
func (l *DelimitedList[T]) Len() int {
	return len(l.items)
}

// At returns the element at index i.
func (l *DelimitedList[T]) At(i int) T {
	return l.items[i]
}

// Set replaces the element at index i.
func (l *DelimitedList[T]) Set(i int, v T) {
	l.items[i] = v
}

// Append adds elements to the end of the list.
func (l *DelimitedList[T]) Append(items ...T) {
	l.items = append(l.items, items...)
}

// Items returns a copy of the elements.
func (l *DelimitedList[T]) Items() []T {
	return append([]T(nil), l.items...)
}

// Delimiter returns the active delimiter.
func (l *DelimitedList[T]) Delimiter() string {
	l.ensureDelimiter()
	return l.delimiter
}

// SetDelimiter overrides the delimiter used by String.
func (l *DelimitedList[T]) SetDelimiter(d string) {
	l.delimiter = d
}

// String serializes the list by joining elements with the active
// delimiter, reproducing the input format.
func (l *DelimitedList[T]) String() string {
	l.ensureDelimiter()
	parts := make([]string, len(l.items))
	for i, e := range l.items {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, l.delimiter)
}

func (l *DelimitedList[T]) ensureDelimiter() {
	if l.delimiter == "" {
		l.delimiter = listDelimiters[0]
	}
}

// coerceElement converts a raw element to the list's element type,
// weakly, so string inputs can populate numeric lists.
func coerceElement[T any](raw any) (T, error) {
	if direct, ok := raw.(T); ok {
		return direct, nil
	}
	var out T
	if err := mapstructure.WeakDecode(raw, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Params is an ordered multimap parsed from a query-string-like value.
// The pair separator is auto-detected (ampersand, comma, semicolon,
// newline in priority order) and retained so serialization round-trips.
// Keys keep first-seen order; duplicate keys accumulate values.
type Params struct {
	separator string
	keys      []string
	values    map[string][]string
}

// NewParams creates an empty Params with the default ampersand separator.
func NewParams() *Params {
	return &Params{
		separator: paramSeparators[0],
		values:    make(map[string][]string),
	}
}

// Parse fills the multimap from a raw value: a query string, url.Values,
// or a string-keyed map. String parsing follows query-string semantics:
// percent- and plus-unescaping, pairs without '=' and pairs with an empty
// value are dropped. Map inputs are ingested in sorted key order since
// they carry no order of their own.
func (p *Params) Parse(raw any) error {
	p.reset()

	switch v := raw.(type) {
	case nil:
		return nil

	case string:
		p.separator = detectDelimiter(v, paramSeparators)
		for _, pair := range strings.Split(v, p.separator) {
			if pair == "" {
				continue
			}
			key, value, found := strings.Cut(pair, "=")
			if !found || value == "" {
				continue // Blank values are dropped, query-string style
			}
			p.Add(unescapeParam(key), unescapeParam(value))
		}
		return nil

	case url.Values:
		for _, key := range sortedKeys(v) {
			for _, value := range v[key] {
				p.Add(key, value)
			}
		}
		return nil

	case map[string][]string:
		for _, key := range sortedKeys(v) {
			for _, value := range v[key] {
				p.Add(key, value)
			}
		}
		return nil

	case map[string]string:
		for _, key := range sortedKeys(v) {
			p.Add(key, v[key])
		}
		return nil

	case Mapping:
		return p.Parse(map[string]any(v))

	case map[string]any:
		for _, key := range sortedKeys(v) {
			switch value := v[key].(type) {
			case []string:
				for _, e := range value {
					p.Add(key, e)
				}
			case []any:
				for _, e := range value {
					p.Add(key, fmt.Sprint(e))
				}
			default:
				p.Add(key, fmt.Sprint(value))
			}
		}
		return nil
	}

	return fmt.Errorf("cannot parse %T into params", raw)
}

// Len returns the number of distinct keys.
func (p *Params) Len() int {
	return len(p.keys)
}

// Keys returns the keys in first-seen order.
func (p *Params) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Get returns the first value for key.
func (p *Params) Get(key string) (string, bool) {
	vs, ok := p.values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Values returns all values for key in accumulation order.
func (p *Params) Values(key string) []string {
	return append([]string(nil), p.values[key]...)
}

// Add appends a value for key, registering the key on first use.
func (p *Params) Add(key, value string) {
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, seen := p.values[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append(p.values[key], value)
}

// Set replaces all values for key, keeping its position if already
// present.
func (p *Params) Set(key string, values ...string) {
	if p.values == nil {
		p.values = make(map[string][]string)
	}
	if _, seen := p.values[key]; !seen {
		p.keys = append(p.keys, key)
	}
	p.values[key] = append([]string(nil), values...)
}

// Separator returns the active pair separator.
func (p *Params) Separator() string {
	if p.separator == "" {
		p.separator = paramSeparators[0]
	}
	return p.separator
}

// SetSeparator overrides the pair separator used by String.
func (p *Params) SetSeparator(s string) {
	p.separator = s
}

// String serializes the multimap as a query string using the active
// separator, values grouped under their key in first-seen key order.
func (p *Params) String() string {
	sep := p.Separator()
	var b strings.Builder
	for _, key := range p.keys {
		for _, value := range p.values[key] {
			if b.Len() > 0 {
				b.WriteString(sep)
			}
			b.WriteString(url.QueryEscape(key))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(value))
		}
	}
	return b.String()
}

func (p *Params) reset() {
	if p.separator == "" {
		p.separator = paramSeparators[0]
	}
	p.keys = nil
	p.values = make(map[string][]string)
}

// unescapeParam reverses query-string escaping, keeping the raw text when
// it contains malformed escapes.
func unescapeParam(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}

// sortedKeys returns map keys in lexical order for deterministic
// ingestion of unordered inputs.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
