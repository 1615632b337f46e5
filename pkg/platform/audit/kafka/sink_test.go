package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "idverify/pkg/domain"
	audit "idverify/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestSinkAppend(t *testing.T) {
	userID := id.UserID(uuid.New())
	event := audit.Event{
		ID:        uuid.New(),
		Category:  audit.CategoryCompliance,
		Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		UserID:    userID,
		Subject:   "rec-1",
		Action:    string(audit.EventDenied),
		Reason:    "blurry id",
	}

	t.Run("keys by user and encodes payload", func(t *testing.T) {
		p := &fakeProducer{}
		require.NoError(t, NewSink(p, "idverify.audit").Append(context.Background(), event))

		require.Len(t, p.records, 1)
		rec := p.records[0]
		assert.Equal(t, "idverify.audit", rec.Topic)
		assert.Equal(t, userID.String(), string(rec.Key))

		var got Payload
		require.NoError(t, json.Unmarshal(rec.Value, &got))
		assert.Equal(t, "verification_denied", got.Action)
		assert.Equal(t, "blurry id", got.Reason)
		assert.Equal(t, "2025-03-01T10:00:00Z", got.Timestamp)
	})

	t.Run("propagates produce errors", func(t *testing.T) {
		p := &fakeProducer{err: errors.New("broker down")}
		err := NewSink(p, "idverify.audit").Append(context.Background(), event)
		assert.ErrorContains(t, err, "broker down")
	})
}
