package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/dxplatform-backend/internal/domain"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, code string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:       uuid.New(),
		Code:     code,
		Name:     code,
		Metadata: datatypes.JSON([]byte("{}")),
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedRevision(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, sourceType string, number int) *types.Revision {
	tb.Helper()
	r := &types.Revision{
		ID:             uuid.New(),
		ProjectID:      projectID,
		SourceType:     sourceType,
		RevisionNumber: number,
		Metadata:       datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed revision: %v", err)
	}
	return r
}

// SeedObjects inserts n objects keyed prefix-0..prefix-(n-1).
func SeedObjects(tb testing.TB, ctx context.Context, tx *gorm.DB, rev *types.Revision, prefix string, n int) []*types.UnifiedObject {
	tb.Helper()
	out := make([]*types.UnifiedObject, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &types.UnifiedObject{
			ID:         uuid.New(),
			ProjectID:  rev.ProjectID,
			RevisionID: rev.ID,
			SourceType: rev.SourceType,
			UniqueKey:  fmt.Sprintf("%s-%d", prefix, i),
			Category:   "Walls",
			Properties: datatypes.JSON([]byte("{}")),
		})
	}
	if n == 0 {
		return out
	}
	if err := tx.WithContext(ctx).Create(&out).Error; err != nil {
		tb.Fatalf("seed objects: %v", err)
	}
	return out
}

func PtrString(v string) *string { return &v }

func PtrInt(v int) *int { return &v }
