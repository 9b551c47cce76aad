//go:build integration

package directory_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"smpserver/internal/audit"
	"smpserver/internal/directory"
	"smpserver/pkg/testutil/containers"
)

type KafkaNotifierSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
}

func TestKafkaNotifierSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaNotifierSuite))
}

func (s *KafkaNotifierSuite) SetupSuite() {
	s.redpanda = containers.GetManager().GetRedpanda(s.T())
}

func (s *KafkaNotifierSuite) TestPublishesKeyedEvents() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	topic := "smp.businesscards.test"

	notifier, err := directory.NewKafkaNotifier(s.redpanda.Brokers, topic)
	s.Require().NoError(err)
	defer notifier.Close()
	s.Require().NoError(notifier.Ping(ctx))
	s.Require().NoError(notifier.EnsureTopic(ctx, 1, 1))
	s.Require().NoError(notifier.EnsureTopic(ctx, 1, 1), "second call tolerates an existing topic")

	event := audit.Event{
		Timestamp:     time.Now().UTC(),
		Action:        audit.ActionBusinessCardUpserted,
		ParticipantID: "iso6523-actorid-upis::9906:abc",
		EntityCount:   2,
	}
	s.Require().NoError(notifier.Notify(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal(event.ParticipantID, string(records[0].Key))

	var got audit.Event
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(event.Action, got.Action)
	s.Equal(2, got.EntityCount)
}
