package ingestion

import (
	"encoding/json"
	"maps"

	"github.com/google/uuid"

	"github.com/yungbote/dxplatform-backend/internal/identity"
)

type objectKey struct {
	source string
	key    string
}

// normalize migrates identifiers, drops objects that still have no unique_key and merges
// repeated (source_type, unique_key) entries in first-seen order.
func normalize(objs []ObjectInput, defaultSource string, warn func(string, ...any)) (out []ObjectInput, skipped int) {
	index := make(map[objectKey]int, len(objs))
	out = make([]ObjectInput, 0, len(objs))

	for i, o := range objs {
		rec := identity.Migrate(identity.Record{UniqueKey: o.UniqueKey, ObjectGUID: o.ObjectGUID, UniqueID: o.UniqueID})
		o.UniqueKey, o.ObjectGUID = rec.UniqueKey, rec.ObjectGUID
		if o.UniqueKey == "" {
			warn("objects[%d]: no unique_key, object_guid or unique_id, skipped", i)
			skipped++
			continue
		}
		if o.SourceType == "" {
			o.SourceType = defaultSource
		}
		if o.ObjectGUID != "" && !identity.IsCanonicalID(o.ObjectGUID) {
			mapped, err := identity.ToCanonicalID(o.ObjectGUID)
			if err != nil {
				warn("object %s: %v", o.UniqueKey, err)
				o.ObjectGUID = ""
			} else {
				warn("object %s: object_guid %q is not canonical, mapped to %s", o.UniqueKey, o.ObjectGUID, mapped)
				o.ObjectGUID = mapped
			}
		}

		k := objectKey{o.SourceType, o.UniqueKey}
		if at, ok := index[k]; ok {
			out[at] = mergeInput(out[at], o)
			skipped++
			continue
		}
		if o.Properties != nil {
			o.Properties = maps.Clone(o.Properties)
		}
		index[k] = len(out)
		out = append(out, o)
	}
	return out, skipped
}

// mergeInput folds next into prev the same way the store merges a repeated row: later
// non-empty scalars and levels win, properties union with later keys winning, and fill-if-absent fields
// keep their first value.
func mergeInput(prev, next ObjectInput) ObjectInput {
	if prev.ObjectGUID == "" {
		prev.ObjectGUID = next.ObjectGUID
	}
	if prev.CanonicalID == "" {
		prev.CanonicalID = next.CanonicalID
	}
	if len(prev.Geometry) == 0 {
		prev.Geometry = next.Geometry
	}
	if next.ElementID != nil {
		prev.ElementID = next.ElementID
	}
	overwrite(&prev.Category, next.Category)
	overwrite(&prev.DisplayName, next.DisplayName)
	overwrite(&prev.Family, next.Family)
	overwrite(&prev.TypeName, next.TypeName)
	overwrite(&prev.ActivityID, next.ActivityID)
	overwrite(&prev.ParentKey, next.ParentKey)
	if next.Level != nil {
		prev.Level = next.Level
	}

	if len(next.Properties) > 0 {
		if prev.Properties == nil {
			prev.Properties = make(map[string]any, len(next.Properties))
		}
		maps.Copy(prev.Properties, next.Properties)
	}
	return prev
}

func overwrite(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func propertiesJSON(props map[string]any) ([]byte, error) {
	if len(props) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(props)
}

// archiveUUID derives the stable uuid stored beside a legacy object id. Callers guarantee
// a non-empty id.
func archiveUUID(objectID string) uuid.UUID {
	u, err := identity.CanonicalUUID(objectID)
	if err != nil {
		return uuid.Nil
	}
	return u
}
