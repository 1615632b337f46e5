// Package models holds the process-wide verification policy. A Snapshot is
// immutable: every change produces a new value, so a request that read one
// keeps a consistent view while an admin edits the policy.
package models

import (
	"slices"
	"strings"
	"time"

	dErrors "idverify/pkg/domain-errors"
	pstrings "idverify/pkg/platform/strings"
)

const (
	DefaultMaxFileSizeBytes int64 = 5 * 1024 * 1024
	DefaultCooldown               = 24 * time.Hour
	DefaultMaxResubmissions       = 3

	maxDocumentTypeLength = 64
)

type Snapshot struct {
	AllowedDocumentTypes []string      `json:"allowedDocumentTypes"`
	MaxFileSizeBytes     int64         `json:"maxFileSizeBytes"`
	Cooldown             time.Duration `json:"cooldown"`
	MaxResubmissions     int           `json:"maxResubmissions"`
	Revision             int64         `json:"revision"`
	UpdatedAt            time.Time     `json:"updatedAt"`
}

// Defaults is the policy used when nothing has been stored yet.
func Defaults(types []string) Snapshot {
	return Snapshot{
		AllowedDocumentTypes: dedupeTypes(types),
		MaxFileSizeBytes:     DefaultMaxFileSizeBytes,
		Cooldown:             DefaultCooldown,
		MaxResubmissions:     DefaultMaxResubmissions,
	}
}

func (s Snapshot) Clone() Snapshot {
	s.AllowedDocumentTypes = slices.Clone(s.AllowedDocumentTypes)
	return s
}

// CanonicalDocumentType matches t against the allowed list ignoring case and
// surrounding space, returning the stored spelling.
func (s Snapshot) CanonicalDocumentType(t string) (string, bool) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", false
	}
	for _, allowed := range s.AllowedDocumentTypes {
		if strings.EqualFold(allowed, t) {
			return allowed, true
		}
	}
	return "", false
}

// CheckDocument enforces the type allow-list and the size cap.
func (s Snapshot) CheckDocument(docType string, size int64) (string, error) {
	canonical, ok := s.CanonicalDocumentType(docType)
	if !ok {
		return "", dErrors.WithFields(dErrors.CodeUnsupportedType,
			"document type "+quote(docType)+" is not accepted",
			map[string]string{"documentType": "must be one of: " + strings.Join(s.AllowedDocumentTypes, ", ")})
	}
	if size > s.MaxFileSizeBytes {
		return "", dErrors.New(dErrors.CodeSizeLimitExceeded, "file exceeds the maximum size")
	}
	return canonical, nil
}

// -----------------------------------------------------------------------------
// Mutations. Each returns a new snapshot; the receiver is untouched.
// -----------------------------------------------------------------------------

func (s Snapshot) AddDocumentType(t string) (Snapshot, error) {
	t, err := normalizeType(t)
	if err != nil {
		return s, err
	}
	if _, exists := s.CanonicalDocumentType(t); exists {
		return s, dErrors.New(dErrors.CodeConflict, "document type already exists")
	}
	next := s.Clone()
	next.AllowedDocumentTypes = append(next.AllowedDocumentTypes, t)
	return next, nil
}

func (s Snapshot) RenameDocumentType(from, to string) (Snapshot, error) {
	to, err := normalizeType(to)
	if err != nil {
		return s, err
	}
	current, ok := s.CanonicalDocumentType(from)
	if !ok {
		return s, dErrors.New(dErrors.CodeNotFound, "document type not found")
	}
	if other, exists := s.CanonicalDocumentType(to); exists && other != current {
		return s, dErrors.New(dErrors.CodeConflict, "document type already exists")
	}
	next := s.Clone()
	next.AllowedDocumentTypes[slices.Index(next.AllowedDocumentTypes, current)] = to
	return next, nil
}

func (s Snapshot) RemoveDocumentType(t string) (Snapshot, error) {
	current, ok := s.CanonicalDocumentType(t)
	if !ok {
		return s, dErrors.New(dErrors.CodeNotFound, "document type not found")
	}
	next := s.Clone()
	next.AllowedDocumentTypes = slices.DeleteFunc(next.AllowedDocumentTypes, func(v string) bool { return v == current })
	return next, nil
}

// ReplaceDocumentTypes swaps the whole list, dropping blanks and case-insensitive duplicates.
func (s Snapshot) ReplaceDocumentTypes(types []string) (Snapshot, error) {
	cleaned := dedupeTypes(types)
	for _, t := range cleaned {
		if _, err := normalizeType(t); err != nil {
			return s, err
		}
	}
	next := s.Clone()
	next.AllowedDocumentTypes = cleaned
	return next, nil
}

func (s Snapshot) WithMaxFileSize(bytes int64) (Snapshot, error) {
	if bytes <= 0 {
		return s, dErrors.WithFields(dErrors.CodeValidation, "max file size must be positive", map[string]string{"maxFileSizeBytes": "must be > 0"})
	}
	next := s.Clone()
	next.MaxFileSizeBytes = bytes
	return next, nil
}

func (s Snapshot) WithDefaultMaxFileSize() Snapshot {
	next := s.Clone()
	next.MaxFileSizeBytes = DefaultMaxFileSizeBytes
	return next
}

// WithPolicy updates cooldown and resubmission cap. Nil leaves a value as is.
func (s Snapshot) WithPolicy(cooldown *time.Duration, maxResubmissions *int) (Snapshot, error) {
	fields := map[string]string{}
	if cooldown != nil && *cooldown < 0 {
		fields["cooldown"] = "must not be negative"
	}
	if maxResubmissions != nil && *maxResubmissions < 0 {
		fields["maxResubmissions"] = "must not be negative"
	}
	if len(fields) > 0 {
		return s, dErrors.WithFields(dErrors.CodeValidation, "invalid verification policy", fields)
	}
	next := s.Clone()
	if cooldown != nil {
		next.Cooldown = *cooldown
	}
	if maxResubmissions != nil {
		next.MaxResubmissions = *maxResubmissions
	}
	return next, nil
}

func normalizeType(t string) (string, error) {
	t = strings.TrimSpace(t)
	if t == "" {
		return "", dErrors.WithFields(dErrors.CodeValidation, "document type name is required", map[string]string{"name": "required"})
	}
	if len(t) > maxDocumentTypeLength {
		return "", dErrors.WithFields(dErrors.CodeValidation, "document type name is too long", map[string]string{"name": "too long"})
	}
	return t, nil
}

func dedupeTypes(types []string) []string {
	return pstrings.DedupeFold(types)
}

func quote(s string) string {
	return "\"" + s + "\""
}
