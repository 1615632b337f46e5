package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/audit"
	"idverify/pkg/requestcontext"
)

// SaveProfile validates data against the persona's required fields and stores
// it on the user's draft, opening one when needed. The saved profile replaces
// any earlier one wholesale.
func (s *Service) SaveProfile(ctx context.Context, userID id.UserID, persona models.Persona, data []byte) (_ *models.PersonaProfile, err error) {
	ctx, finish := s.startSpan(ctx, "save_profile", attribute.String("persona", persona.String()))
	defer finish(&err)

	profile, err := decodeProfile(persona, data)
	if err != nil {
		return nil, err
	}

	var saved *models.PersonaProfile
	err = s.tx.RunInTx(ctx, userID.String(), func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		st, err := s.loadUserState(ctx, userID)
		if err != nil {
			return err
		}
		draft, err := s.ensureDraft(ctx, st, userID, persona, now)
		if err != nil {
			return err
		}
		if err := draft.CanReplaceProfile(); err != nil {
			return err
		}
		saved, err = s.storeProfile(ctx, draft, profile, now)
		if err != nil {
			return err
		}
		return s.save(ctx, draft)
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, audit.EventProfileSaved,
		"user_id", userID.String(),
		"verification_id", saved.VerificationID.String(),
		"persona", persona.String(),
	)
	return saved, nil
}

// GetProfile returns the profile currently attached to a record.
func (s *Service) GetProfile(ctx context.Context, recordID id.VerificationID) (_ *models.PersonaProfile, err error) {
	ctx, finish := s.startSpan(ctx, "get_profile")
	defer finish(&err)

	p, err := s.profiles.FindLatest(ctx, recordID)
	if err != nil {
		return nil, translate(err, "profile not found")
	}
	return p, nil
}

// storeProfile writes a new profile row for rec and refreshes rec's subject.
// The caller saves rec.
func (s *Service) storeProfile(ctx context.Context, rec *models.VerificationRecord, profile models.Profile, now time.Time) (*models.PersonaProfile, error) {
	p := &models.PersonaProfile{
		ID:             id.NewProfileID(),
		VerificationID: rec.ID,
		UserID:         rec.UserID,
		Data:           profile,
		CreatedAt:      now,
	}
	if err := s.profiles.Save(ctx, p); err != nil {
		return nil, translate(err, "failed to save profile")
	}
	rec.ApplyProfile(profile, now)
	return p, nil
}

// currentProfile returns rec's profile, or nil when none was saved yet.
func (s *Service) currentProfile(ctx context.Context, recordID id.VerificationID) (*models.PersonaProfile, error) {
	p, err := s.profiles.FindLatest(ctx, recordID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, translate(err, "failed to load profile")
	}
	return p, nil
}

func decodeProfile(persona models.Persona, data []byte) (models.Profile, error) {
	profile, err := models.DecodeProfile(persona, data)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}
