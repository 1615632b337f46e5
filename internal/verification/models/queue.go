package models

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	id "idverify/pkg/domain"
	dErrors "idverify/pkg/domain-errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps (Page-1)*Limit inside an int32 OFFSET.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// ScopeKind says whose view of the queue is being computed.
type ScopeKind string

const (
	ScopeAdmin  ScopeKind = "admin"
	ScopeSchool ScopeKind = "school"
)

// ReviewerScope is the authorization predicate applied to every queue query.
// A school scope only admits student records whose school name matches.
type ReviewerScope struct {
	Kind       ScopeKind
	ReviewerID id.UserID
	SchoolName string
}

func AdminScope(reviewer id.UserID) ReviewerScope {
	return ReviewerScope{Kind: ScopeAdmin, ReviewerID: reviewer}
}

func SchoolScope(reviewer id.UserID, schoolName string) ReviewerScope {
	return ReviewerScope{Kind: ScopeSchool, ReviewerID: reviewer, SchoolName: strings.TrimSpace(schoolName)}
}

// Admits reports whether r is visible in this scope.
func (s ReviewerScope) Admits(r *VerificationRecord) bool {
	switch s.Kind {
	case ScopeAdmin:
		return true
	case ScopeSchool:
		return s.SchoolName != "" &&
			r.Persona == PersonaStudent &&
			strings.EqualFold(strings.TrimSpace(r.Subject.SchoolName), s.SchoolName)
	}
	return false
}

// QueueFilter narrows a queue query. Zero values mean "no filter".
type QueueFilter struct {
	Status  Status
	Type    RecordType
	Persona Persona
	Search  string
	Page    int
	Limit   int
}

// Normalize applies paging defaults and bounds.
func (f *QueueFilter) Normalize() {
	f.Search = strings.TrimSpace(f.Search)
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

// CheckScope rejects filters that ask a school reviewer for non-student records.
func (f QueueFilter) CheckScope(scope ReviewerScope) error {
	if scope.Kind != ScopeSchool {
		return nil
	}
	if (f.Type != "" && f.Type != TypeStudent) || (f.Persona != "" && f.Persona != PersonaStudent) {
		return dErrors.New(dErrors.CodeForbidden, "school reviewers can only query student verifications")
	}
	return nil
}

// Offset is the zero-based index of the first row on the page.
func (f QueueFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Matches applies the non-paging parts of the filter.
func (f QueueFilter) Matches(r *VerificationRecord) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Type != "" && r.Persona.Type() != f.Type {
		return false
	}
	if f.Persona != "" && r.Persona != f.Persona {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Subject.FullName), q) &&
			!strings.Contains(strings.ToLower(r.Subject.Email), q) {
			return false
		}
	}
	return true
}

// CompareQueueOrder orders newest first, ties by id ascending.
func CompareQueueOrder(a, b *VerificationRecord) int {
	if c := b.SortTime().Compare(a.SortTime()); c != 0 {
		return c
	}
	return cmp.Compare(a.ID.String(), b.ID.String())
}

// ReviewQueueEntry is the reviewer-facing projection of a record.
type ReviewQueueEntry struct {
	ID            id.VerificationID `json:"id"`
	UserID        id.UserID         `json:"userId"`
	Persona       Persona           `json:"persona"`
	Type          RecordType        `json:"type"`
	SubRole       SubRole           `json:"subRole,omitempty"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	SchoolName    string            `json:"schoolName,omitempty"`
	Status        Status            `json:"status"`
	SubmittedAt   *time.Time        `json:"submittedAt,omitempty"`
	ReviewedAt    *time.Time        `json:"reviewedAt,omitempty"`
	ReviewedBy    *id.UserID        `json:"reviewedBy,omitempty"`
	ReviewerNotes string            `json:"reviewerNotes,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func EntryOf(r *VerificationRecord) ReviewQueueEntry {
	return ReviewQueueEntry{
		ID:            r.ID,
		UserID:        r.UserID,
		Persona:       r.Persona,
		Type:          r.Persona.Type(),
		SubRole:       r.Persona.SubRole(),
		Name:          r.Subject.FullName,
		Email:         r.Subject.Email,
		SchoolName:    r.Subject.SchoolName,
		Status:        r.Status,
		SubmittedAt:   r.SubmittedAt,
		ReviewedAt:    r.ReviewedAt,
		ReviewedBy:    r.ReviewedBy,
		ReviewerNotes: r.ReviewerNotes,
		CreatedAt:     r.CreatedAt,
	}
}

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

type PagedResult struct {
	Items      []ReviewQueueEntry `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

// Stats counts records per status. Total is always the sum of the others.
type Stats struct {
	Total       int `json:"total"`
	Unverified  int `json:"unverified"`
	Pending     int `json:"pending"`
	PreApproved int `json:"preApproved"`
	Verified    int `json:"verified"`
	Denied      int `json:"denied"`
}

// Add counts n records of status s.
func (st *Stats) Add(s Status, n int) {
	switch s {
	case StatusUnverified:
		st.Unverified += n
	case StatusPending:
		st.Pending += n
	case StatusPreApproved:
		st.PreApproved += n
	case StatusVerified:
		st.Verified += n
	case StatusDenied:
		st.Denied += n
	default:
		return
	}
	st.Total += n
}

// Count returns the count for one status.
func (st Stats) Count(s Status) int {
	switch s {
	case StatusUnverified:
		return st.Unverified
	case StatusPending:
		return st.Pending
	case StatusPreApproved:
		return st.PreApproved
	case StatusVerified:
		return st.Verified
	case StatusDenied:
		return st.Denied
	}
	return 0
}

// Project filters, orders and pages records in memory. Stores without a
// query language use it directly; the SQL store must agree with it.
func Project(records []*VerificationRecord, scope ReviewerScope, f QueueFilter) PagedResult {
	f.Normalize()
	matched := make([]*VerificationRecord, 0, len(records))
	for _, r := range records {
		if scope.Admits(r) && f.Matches(r) {
			matched = append(matched, r)
		}
	}
	slices.SortFunc(matched, CompareQueueOrder)

	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	items := make([]ReviewQueueEntry, 0, end-start)
	for _, r := range matched[start:end] {
		items = append(items, EntryOf(r))
	}
	return PagedResult{Items: items, Pagination: NewPagination(f.Page, f.Limit, total)}
}

// Tally counts the records visible in scope.
func Tally(records []*VerificationRecord, scope ReviewerScope) Stats {
	var st Stats
	for _, r := range records {
		if scope.Admits(r) {
			st.Add(r.Status, 1)
		}
	}
	return st
}
