package hierarchy

import (
	"strconv"
	"strings"

	"github.com/yungbote/dxplatform-backend/internal/identity"
)

// ZeroParent marks a root in exports that never leave ParentId empty.
const ZeroParent = "00000000-0000-0000-0000-000000000000"

var valuePrefixes = []string{"DisplayString:", "NamedConstant:", "Boolean:", "Double:", "Integer:"}

var sourcePathKeys = map[string]bool{
	"Source File Name": true,
	"Source File Path": true,
	"소스 파일 이름":         true,
	"소스 파일 경로":         true,
}

// Object is one tree node folded from its attribute rows.
type Object struct {
	Key         string
	ParentKey   string
	Level       int
	DisplayName string
	Category    string
	CanonicalID string
	ElementID   *int64
	Properties  map[string]any
}

// Attribute is one raw (object, property) pair, kept beside the folded objects.
type Attribute struct {
	ObjectKey     string
	ParentKey     string
	Level         int
	DisplayName   string
	Category      string
	PropertyName  string
	PropertyValue string
	CanonicalID   string
}

type RowFailure struct {
	Line     int    `json:"line"`
	ObjectID string `json:"object_id,omitempty"`
	Reason   string `json:"reason"`
}

type Fold struct {
	Objects      []Object
	Attributes   []Attribute
	Failures     []RowFailure
	CanonicalIDs []string
	SourceHint   string
}

// Keys returns the object keys usable as detection evidence, in first-seen order.
func (f Fold) Keys() []string {
	out := make([]string, 0, len(f.Objects))
	for _, o := range f.Objects {
		if o.Key != ZeroParent {
			out = append(out, o.Key)
		}
	}
	return out
}

// SanitizeValue strips the type prefix some exporters put in front of property values.
func SanitizeValue(v string) string {
	v = strings.TrimSpace(v)
	for _, p := range valuePrefixes {
		if strings.HasPrefix(v, p) {
			return strings.TrimSpace(v[len(p):])
		}
	}
	return v
}

// Reconcile groups rows by object. The first row of an object decides its parent, level,
// name and category; later rows only contribute properties. Rows that cannot be used are
// reported in Failures and never abort the fold.
func Reconcile(rows []Row) Fold {
	var f Fold
	objIndex := map[string]int{}
	attrIndex := map[[2]string]int{}
	seenCanonical := map[string]bool{}

	for _, r := range rows {
		if r.ObjectID == "" {
			f.Failures = append(f.Failures, RowFailure{Line: r.Line, Reason: "missing ObjectId"})
			continue
		}

		at, ok := objIndex[r.ObjectID]
		if !ok {
			o := Object{
				Key:         r.ObjectID,
				ParentKey:   r.ParentID,
				DisplayName: r.DisplayName,
				Category:    r.Category,
				Properties:  map[string]any{},
			}
			if o.ParentKey == ZeroParent {
				o.ParentKey = ""
			}
			if r.Level != "" {
				lvl, err := strconv.Atoi(r.Level)
				if err != nil {
					f.Failures = append(f.Failures, RowFailure{Line: r.Line, ObjectID: r.ObjectID, Reason: "invalid Level " + strconv.Quote(r.Level)})
				} else {
					o.Level = lvl
				}
			}
			at = len(f.Objects)
			objIndex[r.ObjectID] = at
			f.Objects = append(f.Objects, o)
		}
		o := &f.Objects[at]

		name := r.PropertyName
		if name == "" {
			continue
		}
		value := SanitizeValue(r.PropertyValue)
		o.Properties[name] = value

		attr := Attribute{
			ObjectKey:     o.Key,
			ParentKey:     o.ParentKey,
			Level:         o.Level,
			DisplayName:   o.DisplayName,
			Category:      o.Category,
			PropertyName:  name,
			PropertyValue: value,
		}
		if identity.IsCanonicalIDKey(name) && value != "" {
			attr.CanonicalID = value
			if o.CanonicalID == "" {
				o.CanonicalID = value
			}
			if !seenCanonical[value] {
				seenCanonical[value] = true
				f.CanonicalIDs = append(f.CanonicalIDs, value)
			}
		}
		if f.SourceHint == "" && sourcePathKeys[name] && value != "" {
			f.SourceHint = value
		}

		k := [2]string{o.Key, name}
		if i, dup := attrIndex[k]; dup {
			f.Attributes[i] = attr
		} else {
			attrIndex[k] = len(f.Attributes)
			f.Attributes = append(f.Attributes, attr)
		}
	}

	for i := range f.Objects {
		o := &f.Objects[i]
		name, _ := o.Properties["Name"].(string)
		o.DisplayName = identity.SanitizeDisplayName(o.DisplayName, name)

		raw, _ := o.Properties["Element ID"].(string)
		if raw == "" {
			continue
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			f.Failures = append(f.Failures, RowFailure{ObjectID: o.Key, Reason: "invalid Element ID " + strconv.Quote(raw)})
			continue
		}
		o.ElementID = &id
	}
	for i := range f.Attributes {
		a := &f.Attributes[i]
		a.DisplayName = f.Objects[objIndex[a.ObjectKey]].DisplayName
	}
	return f
}
