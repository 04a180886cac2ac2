package hierarchy

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
)

const (
	colObjectID      = "ObjectId"
	colParentID      = "ParentId"
	colLevel         = "Level"
	colDisplayName   = "DisplayName"
	colCategory      = "Category"
	colPropertyName  = "PropertyName"
	colPropertyValue = "PropertyValue"
)

var requiredColumns = []string{
	colObjectID, colParentID, colLevel, colDisplayName, colCategory, colPropertyName, colPropertyValue,
}

// Row is one (object, attribute) line of a hierarchy export. Line is 1-based and counts the
// header.
type Row struct {
	Line          int
	ObjectID      string
	ParentID      string
	Level         string
	DisplayName   string
	Category      string
	PropertyName  string
	PropertyValue string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows parses a hierarchy CSV. Input that is not valid UTF-8 is decoded as EUC-KR.
func ReadRows(r io.Reader) ([]Row, error) {
	const op = "hierarchy.ReadRows"
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, failure.Validation(op, "read csv: %v", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		decoded, err := korean.EUCKR.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, failure.Validation(op, "csv is neither UTF-8 nor EUC-KR: %v", err)
		}
		raw = decoded
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, failure.Validation(op, "csv is empty")
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, failure.Validation(op, "read header: %v", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, failure.Validation(op, "csv header is missing columns: %s", strings.Join(missing, ", "))
	}

	field := func(rec []string, col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []Row
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, failure.Validation(op, "line %d: %v", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, Row{
			Line:          line,
			ObjectID:      strings.TrimSpace(field(rec, colObjectID)),
			ParentID:      strings.TrimSpace(field(rec, colParentID)),
			Level:         strings.TrimSpace(field(rec, colLevel)),
			DisplayName:   field(rec, colDisplayName),
			Category:      strings.TrimSpace(field(rec, colCategory)),
			PropertyName:  strings.TrimSpace(field(rec, colPropertyName)),
			PropertyValue: field(rec, colPropertyValue),
		})
	}
	if len(rows) == 0 {
		return nil, failure.Validation(op, "csv has a header but no rows")
	}
	return rows, nil
}
