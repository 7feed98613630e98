// Package properties reads and writes line-oriented key=value resource files.
// Files are decoded as UTF-8 and fall back to ISO-8859-1 when the bytes are not
// valid UTF-8.
package properties

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

// Encoding names the text encoding a document was decoded with
type Encoding string

const (
	// UTF8 is the primary encoding
	UTF8 Encoding = "utf-8"
	// Latin1 is the single-byte fallback encoding
	Latin1 Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Entry is one parsed key/value pair
type Entry struct {
	Key   string
	Value string
}

type line struct {
	raw     string
	key     string // empty for comments, blanks and malformed lines
	removed bool
}

// Document is an in-memory properties file. It keeps the raw lines so keys can be
// removed without losing comments, and exposes the parsed entries in file order.
type Document struct {
	Encoding Encoding
	// Skipped counts non-blank, non-comment lines that had no '=' or an empty key
	Skipped int

	lines           []line
	values          map[string]string
	order           []string
	bom             bool
	trailingNewline bool
	dirty           bool
}

// NewDocument creates an empty UTF-8 document
func NewDocument() *Document {
	return &Document{
		Encoding:        UTF8,
		values:          make(map[string]string),
		trailingNewline: true,
	}
}

// Parse decodes data and parses it into a Document
func Parse(data []byte) (*Document, error) {
	doc := NewDocument()
	if bytes.HasPrefix(data, utf8BOM) {
		doc.bom = true
		data = data[len(utf8BOM):]
	}

	text, enc, err := decode(data)
	if err != nil {
		return nil, err
	}
	doc.Encoding = enc

	if text == "" {
		return doc, nil
	}

	doc.trailingNewline = strings.HasSuffix(text, "\n")
	text = strings.TrimSuffix(text, "\n")
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		l := line{raw: raw}

		key, value, ok, malformed := parseLine(raw)
		if malformed {
			doc.Skipped++
		}
		if ok {
			l.key = key
			doc.set(key, value)
		}
		doc.lines = append(doc.lines, l)
	}

	return doc, nil
}

// parseLine splits a line on its first '='. Blank and comment lines are neither
// entries nor malformed.
func parseLine(raw string) (key, value string, ok, malformed bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false, false
	}

	k, v, found := strings.Cut(trimmed, "=")
	if !found {
		return "", "", false, true
	}
	k = strings.TrimSpace(k)
	if k == "" {
		return "", "", false, true
	}
	return k, strings.TrimSpace(v), true, false
}

func (d *Document) set(key, value string) {
	if _, exists := d.values[key]; !exists {
		d.order = append(d.order, key)
	}
	d.values[key] = value
}

// Get returns the value of key
func (d *Document) Get(key string) (string, bool) {
	v, ok := d.values[key]
	return v, ok
}

// Len returns the number of distinct keys
func (d *Document) Len() int {
	return len(d.order)
}

// Keys returns the keys in first-seen order
func (d *Document) Keys() []string {
	keys := make([]string, len(d.order))
	copy(keys, d.order)
	return keys
}

// Entries returns the parsed entries in first-seen order; a key defined twice
// keeps its first position and its last value
func (d *Document) Entries() []Entry {
	entries := make([]Entry, 0, len(d.order))
	for _, k := range d.order {
		entries = append(entries, Entry{Key: k, Value: d.values[k]})
	}
	return entries
}

// Map returns a copy of the key/value mapping
func (d *Document) Map() map[string]string {
	m := make(map[string]string, len(d.values))
	for k, v := range d.values {
		m[k] = v
	}
	return m
}

// Remove drops every line defining key. It reports whether the key was present.
func (d *Document) Remove(key string) bool {
	if _, ok := d.values[key]; !ok {
		return false
	}
	delete(d.values, key)
	for i, k := range d.order {
		if k == key {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
	for i := range d.lines {
		if d.lines[i].key == key {
			d.lines[i].removed = true
		}
	}
	d.dirty = true
	return true
}

// Modified reports whether Remove changed the document since it was parsed
func (d *Document) Modified() bool {
	return d.dirty
}

// Render returns the document text with removed lines omitted
func (d *Document) Render() string {
	var sb strings.Builder
	kept := 0
	for _, l := range d.lines {
		if l.removed {
			continue
		}
		if kept > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(l.raw)
		kept++
	}
	if kept > 0 && d.trailingNewline {
		sb.WriteByte('\n')
	}
	return sb.String()
}

// decode tries UTF-8 first, then ISO-8859-1
func decode(data []byte) (string, Encoding, error) {
	if utf8.Valid(data) {
		return string(data), UTF8, nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", domain.NewAppErrorWithCause(
			domain.ErrDecodeFailure,
			"Content is neither UTF-8 nor ISO-8859-1",
			422,
			err,
			nil,
		)
	}
	return string(decoded), Latin1, nil
}

// encode encodes text with the preferred encoding, falling back to the other one
// when the text cannot be represented
func encode(text string, preferred Encoding) ([]byte, Encoding, error) {
	order := []Encoding{UTF8, Latin1}
	if preferred == Latin1 {
		order = []Encoding{Latin1, UTF8}
	}

	var lastErr error
	for _, enc := range order {
		switch enc {
		case UTF8:
			if utf8.ValidString(text) {
				return []byte(text), UTF8, nil
			}
			lastErr = errInvalidUTF8
		case Latin1:
			out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
			if err == nil {
				return out, Latin1, nil
			}
			lastErr = err
		}
	}

	return nil, "", domain.NewAppErrorWithCause(
		domain.ErrWriteFailure,
		"Content cannot be encoded as UTF-8 or ISO-8859-1",
		500,
		lastErr,
		nil,
	)
}
