package handler

import (
	"time"

	"idverify/internal/settings/models"
)

type DocumentTypesResponse struct {
	Types    []string `json:"types"`
	Revision int64    `json:"revision"`
}

type FileSizeResponse struct {
	MaxFileSizeBytes int64 `json:"maxFileSizeBytes"`
	IsDefault        bool  `json:"isDefault"`
	Revision         int64 `json:"revision"`
}

type PolicyResponse struct {
	CooldownSeconds  int64     `json:"cooldownSeconds"`
	MaxResubmissions int       `json:"maxResubmissions"`
	Revision         int64     `json:"revision"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"`
}

func toDocumentTypes(s models.Snapshot) any {
	types := s.AllowedDocumentTypes
	if types == nil {
		types = []string{}
	}
	return DocumentTypesResponse{Types: types, Revision: s.Revision}
}

func toFileSize(s models.Snapshot) any {
	return FileSizeResponse{
		MaxFileSizeBytes: s.MaxFileSizeBytes,
		IsDefault:        s.MaxFileSizeBytes == models.DefaultMaxFileSizeBytes,
		Revision:         s.Revision,
	}
}

func toPolicy(s models.Snapshot) any {
	return PolicyResponse{
		CooldownSeconds:  int64(s.Cooldown / time.Second),
		MaxResubmissions: s.MaxResubmissions,
		Revision:         s.Revision,
		UpdatedAt:        s.UpdatedAt,
	}
}
