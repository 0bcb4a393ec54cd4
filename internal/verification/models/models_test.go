package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hostguard/pkg/domain"
)

func TestMarkOutcome(t *testing.T) {
	first := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	t.Run("failure leaves completion unset", func(t *testing.T) {
		v := &VerificationRequest{}
		v.MarkOutcome(false, first)
		assert.False(t, v.IsSuccessful)
		assert.Nil(t, v.CompletedAt)
	})

	t.Run("completion is set once", func(t *testing.T) {
		v := &VerificationRequest{}
		v.MarkOutcome(true, first)
		v.MarkOutcome(true, later)
		require.NotNil(t, v.CompletedAt)
		assert.Equal(t, first, *v.CompletedAt)
	})
}

func TestMergeAndLink(t *testing.T) {
	v := &VerificationRequest{}
	v.Merge(map[string]any{"a": 1})
	v.Merge(map[string]any{"a": 2, "b": "x"})
	assert.Equal(t, map[string]any{"a": 2, "b": "x"}, v.ResponseData)

	clientID := id.ClientID(uuid.New())
	incidents := []id.IncidentID{id.IncidentID(uuid.New())}
	v.LinkClient(clientID, incidents)
	incidents[0] = id.IncidentID{}
	require.NotNil(t, v.ClientID)
	assert.Equal(t, clientID, *v.ClientID)
	assert.False(t, v.RelatedIncidents[0].IsNil(), "incident slice is copied")
}

func TestChannelRecordsUnrecognized(t *testing.T) {
	assert.True(t, ChannelWhatsApp.RecordsUnrecognized())
	for _, c := range []Channel{ChannelWeb, ChannelAPI, ChannelCLI} {
		assert.False(t, c.RecordsUnrecognized(), c)
	}
}
