package handler

import (
	"strings"
	"time"

	dErrors "idverify/pkg/domain-errors"
)

type DocumentTypeRequest struct {
	Name string `json:"name"`
}

func (r *DocumentTypeRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.WithFields(dErrors.CodeValidation, "name is required", map[string]string{"name": "required"})
	}
	return nil
}

type DocumentTypesRequest struct {
	Types []string `json:"types"`
}

func (r *DocumentTypesRequest) Validate() error {
	if r.Types == nil {
		return dErrors.WithFields(dErrors.CodeValidation, "types is required", map[string]string{"types": "required"})
	}
	return nil
}

type FileSizeRequest struct {
	MaxFileSizeBytes *int64 `json:"maxFileSizeBytes"`
}

func (r *FileSizeRequest) Validate() error {
	if r.MaxFileSizeBytes == nil {
		return dErrors.WithFields(dErrors.CodeValidation, "maxFileSizeBytes is required", map[string]string{"maxFileSizeBytes": "required"})
	}
	return nil
}

// PolicyRequest takes the cooldown in whole seconds. Omitted fields are left as they are.
type PolicyRequest struct {
	CooldownSeconds  *int64 `json:"cooldownSeconds"`
	MaxResubmissions *int   `json:"maxResubmissions"`
}

func (r *PolicyRequest) Validate() error {
	if r.CooldownSeconds == nil && r.MaxResubmissions == nil {
		return dErrors.New(dErrors.CodeValidation, "nothing to update")
	}
	return nil
}

func (r *PolicyRequest) Cooldown() *time.Duration {
	if r.CooldownSeconds == nil {
		return nil
	}
	d := time.Duration(*r.CooldownSeconds) * time.Second
	return &d
}
