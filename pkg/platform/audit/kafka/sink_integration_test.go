//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	id "hostguard/pkg/domain"
	audit "hostguard/pkg/platform/audit"
	"hostguard/pkg/platform/audit/kafka"
	"hostguard/pkg/testutil/containers"
)

type SinkSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestSinkSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(SinkSuite))
}

func (s *SinkSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

// TestAppendIsConsumable verifies events round-trip through the broker keyed by user.
func (s *SinkSuite) TestAppendIsConsumable() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	topic := "audit-" + uuid.NewString()
	sink, err := kafka.New(ctx, s.redpanda.Brokers, topic, kafka.WithTopicLayout(1, 1))
	s.Require().NoError(err)
	defer sink.Close()

	userID := id.UserID(uuid.New())
	event := audit.Event{
		Timestamp:   time.Now().UTC(),
		Action:      audit.ActionVerificationCompleted,
		UserID:      userID,
		Channel:     "api",
		Decision:    "verified",
		SubjectHash: audit.HashSubject("A123456789B"),
	}
	s.Require().NoError(sink.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal(userID.String(), string(records[0].Key))

	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event.Action, got.Action)
	s.Equal(event.SubjectHash, got.SubjectHash)
}

// TestNewIsIdempotentOnExistingTopic verifies the topic bootstrap tolerates an existing topic.
func (s *SinkSuite) TestNewIsIdempotentOnExistingTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := "audit-" + uuid.NewString()
	first, err := kafka.New(ctx, s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	first.Close()

	second, err := kafka.New(ctx, s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	second.Close()
}
