package model

import (
	"iter"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeID turns a login or directory identifier into the join key used
// on both sides of a sync: surrounding whitespace removed, lower-cased.
func NormalizeID(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// SourceRecord is one directory entry read during a sync run.
// Attribute names are matched case-insensitively, as in LDAP.
type SourceRecord struct {
	ID string
	DN string

	names  []string
	values map[string][]string
}

// NewSourceRecord creates an empty record with a normalized identifier.
func NewSourceRecord(id, dn string) SourceRecord {
	return SourceRecord{
		ID:     NormalizeID(id),
		DN:     dn,
		values: make(map[string][]string),
	}
}

// Add appends values to an attribute, keeping first-seen attribute order.
func (r *SourceRecord) Add(name string, values ...string) {
	if r.values == nil {
		r.values = make(map[string][]string)
	}
	key := strings.ToLower(name)
	if _, ok := r.values[key]; !ok {
		r.names = append(r.names, name)
	}
	r.values[key] = append(r.values[key], values...)
}

// Values returns all values of an attribute.
func (r SourceRecord) Values(name string) []string {
	return r.values[strings.ToLower(name)]
}

// Value returns the first value of an attribute or an empty string.
func (r SourceRecord) Value(name string) string {
	if v := r.Values(name); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether the attribute is present with at least one value.
func (r SourceRecord) Has(name string) bool {
	return len(r.Values(name)) > 0
}

// Names returns the attribute names in the order they were added.
func (r SourceRecord) Names() []string {
	return append([]string(nil), r.names...)
}

// SourceIndex holds source records keyed by identifier, in insertion order.
type SourceIndex struct {
	keys    []string
	records map[string]SourceRecord
}

// NewSourceIndex returns an empty index.
func NewSourceIndex() *SourceIndex {
	return &SourceIndex{records: make(map[string]SourceRecord)}
}

// Put stores rec under rec.ID. A duplicate identifier replaces the earlier
// record but keeps its position; the return value reports the replacement.
func (x *SourceIndex) Put(rec SourceRecord) bool {
	if _, ok := x.records[rec.ID]; ok {
		x.records[rec.ID] = rec
		return true
	}
	x.keys = append(x.keys, rec.ID)
	x.records[rec.ID] = rec
	return false
}

// Get returns the record for an identifier.
func (x *SourceIndex) Get(id string) (SourceRecord, bool) {
	if x == nil {
		return SourceRecord{}, false
	}
	rec, ok := x.records[id]
	return rec, ok
}

// Len returns the number of records.
func (x *SourceIndex) Len() int {
	if x == nil {
		return 0
	}
	return len(x.keys)
}

// Keys returns the identifiers in insertion order.
func (x *SourceIndex) Keys() []string {
	if x == nil {
		return nil
	}
	return append([]string(nil), x.keys...)
}

// All iterates over the records in insertion order.
func (x *SourceIndex) All() iter.Seq2[string, SourceRecord] {
	return func(yield func(string, SourceRecord) bool) {
		if x == nil {
			return
		}
		for _, k := range x.keys {
			if !yield(k, x.records[k]) {
				return
			}
		}
	}
}
