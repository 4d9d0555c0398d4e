package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "jdoe", NormalizeID("  JDoe \t"))
	assert.Equal(t, "müller", NormalizeID("MÜLLER"))
	assert.Equal(t, "", NormalizeID("   "))
}

func TestSourceRecord_Attributes(t *testing.T) {
	rec := NewSourceRecord(" JDoe ", "uid=jdoe,ou=people,dc=example,dc=org")
	rec.Add("givenName", "John")
	rec.Add("mail", "jdoe@example.org", "john.doe@example.org")
	rec.Add("GIVENNAME", "Johnny")

	assert.Equal(t, "jdoe", rec.ID)
	assert.Equal(t, "John", rec.Value("givenname"))
	assert.Equal(t, []string{"John", "Johnny"}, rec.Values("givenName"))
	assert.Equal(t, []string{"jdoe@example.org", "john.doe@example.org"}, rec.Values("MAIL"))
	assert.True(t, rec.Has("mail"))
	assert.False(t, rec.Has("sn"))
	assert.Equal(t, "", rec.Value("sn"))
	assert.Equal(t, []string{"givenName", "mail"}, rec.Names())
}

func TestSourceIndex_InsertionOrder(t *testing.T) {
	idx := NewSourceIndex()
	assert.False(t, idx.Put(NewSourceRecord("c", "")))
	assert.False(t, idx.Put(NewSourceRecord("a", "")))
	assert.False(t, idx.Put(NewSourceRecord("b", "")))

	replacement := NewSourceRecord("A", "uid=a")
	assert.True(t, idx.Put(replacement))

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"c", "a", "b"}, idx.Keys())

	rec, ok := idx.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "uid=a", rec.DN)

	var seen []string
	for k := range idx.All() {
		seen = append(seen, k)
	}
	assert.Equal(t, []string{"c", "a", "b"}, seen)
}

func TestSourceIndex_Nil(t *testing.T) {
	var idx *SourceIndex
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.Keys())
	_, ok := idx.Get("x")
	assert.False(t, ok)
	for range idx.All() {
		t.Fatal("nil index must not yield")
	}
}
