package mapper

import (
	"encoding/json"
	"strconv"
	"strings"

	"dormweb/pkg/models"
)

// Record is one decoded backend object.
type Record map[string]any

// Shape names which of the backend's response conventions a payload used.
type Shape int

const (
	ShapeEmpty Shape = iota
	ShapeArray
	ShapeDataArray
	ShapeDataObject
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeDataArray:
		return "data-array"
	case ShapeDataObject:
		return "data-object"
	case ShapeObject:
		return "object"
	default:
		return "empty"
	}
}

// envelopeKeys never make a bare object a record on their own.
var envelopeKeys = map[string]bool{
	"statusCode": true,
	"message":    true,
	"success":    true,
	"error":      true,
	"meta":       true,
}

type Envelope struct {
	Shape   Shape
	records []Record
	meta    *models.PageMeta
	root    Record
}

// DecodeEnvelope classifies raw into one of the known shapes. It never fails:
// anything unrecognised, including invalid JSON, is ShapeEmpty.
//
//	[...]                       ShapeArray
//	{"data": [...]}             ShapeDataArray
//	{"data": {"data": [...]}}   ShapeDataArray
//	{"data": {...}}             ShapeDataObject (data.data unwrapped when it is an object)
//	{"id": ...}                 ShapeObject
func DecodeEnvelope(raw []byte) Envelope {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return Envelope{Shape: ShapeEmpty}
	}

	switch t := v.(type) {
	case []any:
		return Envelope{Shape: ShapeArray, records: records(t)}
	case map[string]any:
		env := decodeObject(t)
		env.root = t
		return env
	}
	return Envelope{Shape: ShapeEmpty}
}

func decodeObject(obj map[string]any) Envelope {
	data, hasData := obj["data"]
	if !hasData {
		if isRecord(obj) {
			return Envelope{Shape: ShapeObject, records: []Record{obj}, meta: pageMeta(obj["meta"])}
		}
		return Envelope{Shape: ShapeEmpty}
	}

	switch d := data.(type) {
	case []any:
		return Envelope{Shape: ShapeDataArray, records: records(d), meta: pageMeta(obj["meta"])}
	case map[string]any:
		meta := pageMeta(d["meta"])
		if meta == nil {
			meta = pageMeta(obj["meta"])
		}
		switch inner := d["data"].(type) {
		case []any:
			return Envelope{Shape: ShapeDataArray, records: records(inner), meta: meta}
		case map[string]any:
			return Envelope{Shape: ShapeDataObject, records: []Record{inner}, meta: meta}
		}
		if _, present := d["data"]; present {
			// {"data":{"data":null}} carries nothing.
			return Envelope{Shape: ShapeEmpty, meta: meta}
		}
		return Envelope{Shape: ShapeDataObject, records: []Record{d}, meta: meta}
	}
	return Envelope{Shape: ShapeEmpty}
}

func isRecord(obj map[string]any) bool {
	if _, ok := obj["id"]; ok {
		return true
	}
	for k := range obj {
		if !envelopeKeys[k] {
			return true
		}
	}
	return false
}

func records(list []any) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func pageMeta(v any) *models.PageMeta {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	r := Record(m)
	return &models.PageMeta{
		Total:      r.Int("total"),
		Page:       r.Int("pageNumber", "page"),
		Limit:      r.Int("limitNumber", "limit"),
		TotalPages: r.Int("totalPages"),
	}
}

// Items returns every record carried by the envelope; empty, never nil.
func (e Envelope) Items() []Record {
	if e.records == nil {
		return []Record{}
	}
	return e.records
}

// First returns the first record, or nil when there is none.
func (e Envelope) First() Record {
	if len(e.records) == 0 {
		return nil
	}
	return e.records[0]
}

func (e Envelope) Meta() *models.PageMeta {
	return e.meta
}

// Field looks up a sibling of the records, such as a pagination cursor, on
// the top-level object and then inside data.
func (e Envelope) Field(key string) any {
	if e.root == nil {
		return nil
	}
	if v, ok := e.root[key]; ok {
		return v
	}
	if d := e.root.Obj("data"); d != nil {
		return d[key]
	}
	return nil
}

func (e Envelope) IsEmpty() bool {
	return len(e.records) == 0
}

// Str returns the first key that holds a non-empty string or a number.
func (r Record) Str(keys ...string) string {
	for _, k := range keys {
		switch v := r[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Num returns the first key holding a non-zero number. Numeric strings are
// accepted since the backend serialises decimals that way.
func (r Record) Num(keys ...string) float64 {
	for _, k := range keys {
		switch v := r[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}

func (r Record) Int(keys ...string) int {
	return int(r.Num(keys...))
}

// Bool reports the value of key and whether it was present as a boolean.
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r[key].(bool)
	return v, ok
}

// Obj returns the nested object at key, or nil.
func (r Record) Obj(key string) Record {
	if m, ok := r[key].(map[string]any); ok {
		return m
	}
	return nil
}

func (r Record) List(key string) []any {
	if l, ok := r[key].([]any); ok {
		return l
	}
	return nil
}

// Strings flattens a list of strings or of objects into plain strings, taking
// the first of field that is set on each object.
func (r Record) Strings(key string, fields ...string) []string {
	list := r.List(key)
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if v != "" {
				out = append(out, v)
			}
		case map[string]any:
			if s := Record(v).Str(fields...); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
