package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"familyshare/internal/audit"
	id "familyshare/pkg/domain"
)

type recordingProducer struct {
	records []*kgo.Record
	err     error
}

func (p *recordingProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		p.records = append(p.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: p.err})
	}
	return results
}

func TestMirror_Publish(t *testing.T) {
	producer := &recordingProducer{}
	mirror := NewMirror(producer, "familyshare.audit")

	entry := audit.Entry{
		ID:        id.NewAuditID(),
		GroupID:   id.NewGroupID(),
		UserID:    id.NewUserID(),
		Action:    audit.ActionGroupCreated,
		NewValues: map[string]any{"name": "Smith Family"},
	}
	require.NoError(t, mirror.Publish(context.Background(), entry))
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "familyshare.audit", rec.Topic)
	assert.Equal(t, entry.GroupID.String(), string(rec.Key))
	assert.Equal(t, "action", rec.Headers[0].Key)
	assert.Equal(t, "group_created", string(rec.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, "group_created", decoded["action"])
	assert.Equal(t, entry.GroupID.String(), decoded["group_id"])
}

func TestMirror_PublishError(t *testing.T) {
	producer := &recordingProducer{err: errors.New("broker unavailable")}
	err := NewMirror(producer, "t").Publish(context.Background(), audit.Entry{ID: id.NewAuditID()})
	assert.ErrorContains(t, err, "broker unavailable")
}
