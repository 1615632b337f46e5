package handler

import (
	"encoding/json"
	"strings"

	"idverify/internal/verification/models"
	dErrors "idverify/pkg/domain-errors"
)

// ProfileRequest carries a draft profile. The persona comes from the path.
type ProfileRequest struct {
	Profile json.RawMessage `json:"profile"`
}

func (r *ProfileRequest) Validate() error {
	if len(r.Profile) == 0 {
		return dErrors.WithFields(dErrors.CodeValidation, "profile is required", map[string]string{"profile": "required"})
	}
	return nil
}

// SubmitRequest leaves consent checking to the service so a refused
// submission is reported the same way whether or not a profile was sent.
type SubmitRequest struct {
	DeclarationsAndConsent bool            `json:"declarationsAndConsent"`
	Profile                json.RawMessage `json:"profile,omitempty"`
}

func (r *SubmitRequest) Validate() error {
	return nil
}

type ResubmitRequest struct {
	Persona string          `json:"persona,omitempty"`
	Profile json.RawMessage `json:"profile,omitempty"`
}

func (r *ResubmitRequest) Validate() error {
	r.Persona = strings.TrimSpace(r.Persona)
	if r.Persona != "" {
		if _, err := models.ParsePersona(r.Persona); err != nil {
			return err
		}
	}
	return nil
}

type DeleteDocumentRequest struct {
	FilePath string `json:"filePath"`
}

func (r *DeleteDocumentRequest) Validate() error {
	r.FilePath = strings.TrimSpace(r.FilePath)
	if r.FilePath == "" {
		return dErrors.WithFields(dErrors.CodeValidation, "filePath is required", map[string]string{"filePath": "required"})
	}
	return nil
}

// StatusUpdateRequest is an admin decision. Reason is the denial reason;
// for approvals it is stored as reviewer notes. Notes is accepted as an alias.
type StatusUpdateRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`

	status models.Status
}

func (r *StatusUpdateRequest) Validate() error {
	status, err := parseDecision(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	if strings.TrimSpace(r.Reason) == "" {
		r.Reason = r.Notes
	}
	return nil
}

type BulkUpdateRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
	Reason string   `json:"reason,omitempty"`

	status models.Status
}

func (r *BulkUpdateRequest) Validate() error {
	if len(r.IDs) == 0 {
		return dErrors.WithFields(dErrors.CodeValidation, "ids is required", map[string]string{"ids": "required"})
	}
	status, err := parseDecision(r.Status)
	if err != nil {
		return err
	}
	r.status = status
	return nil
}

// ReviewRequest is the optional body of school actions.
type ReviewRequest struct {
	Notes  string `json:"notes,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	return nil
}

func parseDecision(raw string) (models.Status, error) {
	status := models.Status(strings.ToLower(strings.TrimSpace(raw)))
	if status != models.StatusVerified && status != models.StatusDenied {
		return "", dErrors.WithFields(dErrors.CodeValidation, "status must be verified or denied",
			map[string]string{"status": "must be verified or denied"})
	}
	return status, nil
}
