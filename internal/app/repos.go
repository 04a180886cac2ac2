package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/dxplatform-backend/internal/data/repos/projects"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

type Repos struct {
	Project            projects.ProjectRepo
	Revision           projects.RevisionRepo
	RevisionVersion    projects.RevisionVersionRepo
	UnifiedObject      projects.UnifiedObjectRepo
	LegacyArchive      projects.LegacyArchiveRepo
	HierarchyAttribute projects.HierarchyAttributeRepo
	Detection          projects.DetectionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:            projects.NewProjectRepo(db, log),
		Revision:           projects.NewRevisionRepo(db, log),
		RevisionVersion:    projects.NewRevisionVersionRepo(db, log),
		UnifiedObject:      projects.NewUnifiedObjectRepo(db, log),
		LegacyArchive:      projects.NewLegacyArchiveRepo(db, log),
		HierarchyAttribute: projects.NewHierarchyAttributeRepo(db, log),
		Detection:          projects.NewDetectionRepo(db, log),
	}
}
