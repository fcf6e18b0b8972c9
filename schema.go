package vecstore

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "vecstore"

// schemaMeta holds parsed struct tag metadata, cached per TypedIndex.
type schemaMeta struct {
	typ reflect.Type

	idIdx      int
	contentIdx int // -1 if not present

	// Mapping from struct field index → metadata key.
	metaFields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and extracts vecstore struct tag metadata.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("vecstore: cannot infer schema for interface type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("vecstore: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1, contentIdx: -1}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, i, f.Name, tag); err != nil {
			return nil, err
		}
	}

	if meta.idIdx == -1 {
		return nil, fmt.Errorf("vecstore: no field with `vecstore:\"...,id\"` tag in %s", t)
	}
	if meta.contentIdx == -1 {
		return nil, fmt.Errorf("vecstore: no field with `vecstore:\"...,content\"` tag in %s", t)
	}
	if t.Field(meta.idIdx).Type.Kind() != reflect.String {
		return nil, fmt.Errorf("vecstore: id field of %s must be a string", t)
	}
	if t.Field(meta.contentIdx).Type.Kind() != reflect.String {
		return nil, fmt.Errorf("vecstore: content field of %s must be a string", t)
	}
	return meta, nil
}

// applyTag processes a single struct field's vecstore tag.
func applyTag(meta *schemaMeta, idx int, fieldName, tag string) error {
	name, modifier, _ := strings.Cut(tag, ",")
	if name == "" {
		return fmt.Errorf("vecstore: empty field name in tag on %s", fieldName)
	}

	switch modifier {
	case "id":
		if meta.idIdx != -1 {
			return fmt.Errorf("vecstore: duplicate id tag on field %s", fieldName)
		}
		meta.idIdx = idx
	case "content":
		if meta.contentIdx != -1 {
			return fmt.Errorf("vecstore: duplicate content tag on field %s", fieldName)
		}
		meta.contentIdx = idx
	case "":
		meta.metaFields = append(meta.metaFields, fieldMapping{structIdx: idx, name: name})
	default:
		return fmt.Errorf("vecstore: unknown modifier %q on field %s", modifier, fieldName)
	}
	return nil
}

// toDocument converts a typed item into a Document.
func (m *schemaMeta) toDocument(item any) Document {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	doc := Document{
		ID:      v.Field(m.idIdx).String(),
		Content: v.Field(m.contentIdx).String(),
	}
	if len(m.metaFields) > 0 {
		doc.Metadata = make(Metadata, len(m.metaFields))
		for _, fm := range m.metaFields {
			doc.Metadata[fm.name] = v.Field(fm.structIdx).Interface()
		}
	}
	return doc
}

// fromDocument reconstructs a typed item from a Document. Metadata values are
// converted to the struct field's kind; entries that do not fit (including
// the reserved distance key) are skipped.
func (m *schemaMeta) fromDocument(doc Document) any {
	v := reflect.New(m.typ).Elem()

	v.Field(m.idIdx).SetString(doc.ID)
	v.Field(m.contentIdx).SetString(doc.Content)

	for _, fm := range m.metaFields {
		raw, ok := doc.Metadata[fm.name]
		if !ok {
			continue
		}
		setMetaField(v.Field(fm.structIdx), raw)
	}
	return v.Interface()
}

func setMetaField(f reflect.Value, raw any) {
	switch f.Kind() {
	case reflect.String:
		if s, ok := raw.(string); ok {
			f.SetString(s)
		}
	case reflect.Bool:
		if b, ok := raw.(bool); ok {
			f.SetBool(b)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := toFloat64(raw); ok {
			f.SetInt(int64(n))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, ok := toFloat64(raw); ok && n >= 0 {
			f.SetUint(uint64(n))
		}
	case reflect.Float32, reflect.Float64:
		if n, ok := toFloat64(raw); ok {
			f.SetFloat(n)
		}
	}
}

// toFloat64 normalizes the numeric types a metadata value may arrive as
// (wire decoding yields float64, struct-built metadata keeps the Go type).
func toFloat64(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
