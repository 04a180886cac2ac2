package identity

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
)

var canonicalRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsCanonicalID reports whether s is exactly an 8-4-4-4-12 hex identifier.
func IsCanonicalID(s string) bool {
	return canonicalRe.MatchString(s)
}

// Record is the identifier-bearing part of an incoming object. UniqueID is the legacy
// single-identifier field.
type Record struct {
	UniqueKey  string
	ObjectGUID string
	UniqueID   string
}

// Migrate normalizes one record into the dual-identity shape. It never fabricates an
// identifier: a record with no identifier comes back unchanged.
func Migrate(r Record) Record {
	if r.UniqueKey != "" {
		if r.ObjectGUID == "" && IsCanonicalID(r.UniqueKey) {
			r.ObjectGUID = r.UniqueKey
		}
		return r
	}
	if r.UniqueID != "" {
		r.UniqueKey = r.UniqueID
		if IsCanonicalID(r.UniqueID) {
			r.ObjectGUID = r.UniqueID
		}
	}
	return r
}

// MigrateBatch applies Migrate per record, preserving order. The input slice is not modified.
func MigrateBatch(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = Migrate(r)
	}
	return out
}

// ToCanonicalID maps an arbitrary identifier onto a stable canonical id (UUIDv5 over the
// URL namespace). Canonical input is returned in its lowercase rendering.
func ToCanonicalID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", failure.InvalidIdentifier("identity.ToCanonicalID", "identifier is empty")
	}
	if IsCanonicalID(s) {
		if u, err := uuid.Parse(s); err == nil {
			return u.String(), nil
		}
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(s)).String(), nil
}

// CanonicalUUID is ToCanonicalID returning a uuid.UUID.
func CanonicalUUID(s string) (uuid.UUID, error) {
	id, err := ToCanonicalID(s)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(id)
}
