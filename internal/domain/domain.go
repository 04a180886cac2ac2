package domain

import (
	"github.com/yungbote/dxplatform-backend/internal/domain/projects"
)

type (
	Project            = projects.Project
	Revision           = projects.Revision
	RevisionVersion    = projects.RevisionVersion
	UnifiedObject      = projects.UnifiedObject
	LegacyMetadata     = projects.LegacyMetadata
	LegacyObject       = projects.LegacyObject
	LegacyRelationship = projects.LegacyRelationship
	HierarchyAttribute = projects.HierarchyAttribute
)

const (
	SourceRevit      = projects.SourceRevit
	SourceNavisworks = projects.SourceNavisworks
	SourceIFC        = projects.SourceIFC
	SourceBoth       = projects.SourceBoth
)

var ValidSourceType = projects.ValidSourceType
