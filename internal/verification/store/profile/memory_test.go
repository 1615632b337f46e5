package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idverify/internal/verification/models"
	id "idverify/pkg/domain"
	"idverify/pkg/platform/sentinel"
)

func TestInMemoryStoreKeepsLatestProfile(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	recordID := id.NewVerificationID()
	now := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

	_, err := store.FindLatest(ctx, recordID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	for i, occupation := range []string{"Engineer", "Architect"} {
		require.NoError(t, store.Save(ctx, &models.PersonaProfile{
			ID:             id.NewProfileID(),
			VerificationID: recordID,
			UserID:         id.NewUserID(),
			Data:           &models.IndividualSponsorProfile{Occupation: occupation, SourceOfFunds: "salary"},
			CreatedAt:      now.Add(time.Duration(i) * time.Minute),
		}))
	}

	latest, err := store.FindLatest(ctx, recordID)
	require.NoError(t, err)
	assert.Equal(t, "Architect", latest.Data.(*models.IndividualSponsorProfile).Occupation)
	assert.Equal(t, models.PersonaIndividualSponsor, latest.Persona())

	assert.Error(t, store.Save(ctx, &models.PersonaProfile{VerificationID: recordID}))
}
