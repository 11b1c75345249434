package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	byTopic map[string][]kafka.Message
	err     error
}

func (w *recordingWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	if w.byTopic == nil {
		w.byTopic = make(map[string][]kafka.Message)
	}
	w.byTopic[topic] = append(w.byTopic[topic], msgs...)
	return nil
}

func TestDeliverGroupsByTopicAndSetsHeaders(t *testing.T) {
	writer := &recordingWriter{}
	d := &Dispatcher{producer: writer}

	messages := []Message{
		{EventID: 1, AggregateType: "user", AggregateID: "u1", EventType: "user.created", Topic: "user_events", PartitionKey: "u1", Payload: json.RawMessage(`{"user_id":"u1"}`)},
		{EventID: 2, AggregateType: "exercise", AggregateID: "e1", EventType: "exercise.logged", Topic: "exercise_events", PartitionKey: "u1", Payload: json.RawMessage(`{"exercise_id":"e1"}`)},
		{EventID: 3, AggregateType: "exercise", AggregateID: "e2", EventType: "exercise.logged", Topic: "exercise_events", PartitionKey: "u1", Payload: json.RawMessage(`{"exercise_id":"e2"}`)},
	}

	require.NoError(t, d.deliver(context.Background(), messages))

	require.Len(t, writer.byTopic["user_events"], 1)
	require.Len(t, writer.byTopic["exercise_events"], 2)

	record := writer.byTopic["exercise_events"][0]
	require.Equal(t, []byte("u1"), record.Key)
	require.JSONEq(t, `{"exercise_id":"e1"}`, string(record.Value))

	headers := make(map[string]string, len(record.Headers))
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, "exercise.logged", headers["event_type"])
	require.Equal(t, "e1", headers["aggregate_id"])
}

func TestDeliverPropagatesWriterFailure(t *testing.T) {
	writer := &recordingWriter{err: context.DeadlineExceeded}
	d := &Dispatcher{producer: writer}

	err := d.deliver(context.Background(), []Message{
		{EventID: 1, EventType: "user.created", Topic: "user_events", PartitionKey: "u1", Payload: json.RawMessage(`{}`)},
	})
	require.Error(t, err)
}
