package entity

import (
	"sort"

	"github.com/mycok/entityusage/usagegraph/graph"
)

// Static and compile-time checks to ensure Record implements the optional
// object capabilities.
var (
	_ Translatable = (*Record)(nil)
	_ Revisionable = (*Record)(nil)
)

// Record is a plain in-memory object. Translations share the definitions of
// their default-language record.
type Record struct {
	EntityType   string
	EntityID     graph.ID
	Lang         string
	Revision     int64
	Definitions  []FieldDefinition
	Values       map[string]Value
	Translations map[string]*Record
}

// Type returns the object type.
func (r *Record) Type() string { return r.EntityType }

// ID returns the object id.
func (r *Record) ID() graph.ID { return r.EntityID }

// Language returns the language of the record.
func (r *Record) Language() string { return r.Lang }

// RevisionID returns the revision of the record.
func (r *Record) RevisionID() int64 { return r.Revision }

// Fields returns the field definitions of the record.
func (r *Record) Fields() []FieldDefinition { return r.Definitions }

// Value returns the value of field.
func (r *Record) Value(field string) Value { return r.Values[field] }

// Languages returns the record's language followed by its translations in
// lexical order.
func (r *Record) Languages() []string {
	langs := []string{r.Lang}

	var others []string
	for lang := range r.Translations {
		if lang != r.Lang {
			others = append(others, lang)
		}
	}
	sort.Strings(others)

	return append(langs, others...)
}

// Translation returns the variant for lang.
func (r *Record) Translation(lang string) (Entity, bool) {
	if lang == r.Lang {
		return r, true
	}

	t, ok := r.Translations[lang]
	if !ok {
		return nil, false
	}

	return &Record{
		EntityType:  r.EntityType,
		EntityID:    r.EntityID,
		Lang:        lang,
		Revision:    r.Revision,
		Definitions: r.Definitions,
		Values:      t.Values,
	}, true
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.Values = cloneValues(r.Values)

	if r.Translations != nil {
		c.Translations = make(map[string]*Record, len(r.Translations))
		for lang, t := range r.Translations {
			c.Translations[lang] = t.Clone()
		}
	}

	return &c
}

func cloneValues(values map[string]Value) map[string]Value {
	if values == nil {
		return nil
	}

	out := make(map[string]Value, len(values))
	for name, v := range values {
		items := make(Value, len(v))
		for i, item := range v {
			cp := make(Item, len(item))
			for k, val := range item {
				cp[k] = val
			}
			items[i] = cp
		}
		out[name] = items
	}

	return out
}
