package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/minfaz98/cozy-stay/internal/kafka"
)

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

const reportRetries = 3

// KafkaReporter hands the run summary to the reporting subsystem as a
// kafka.DailySnapshot keyed by day.
type KafkaReporter struct {
	producer Producer
	topic    string
}

func NewKafkaReporter(producer Producer, topic string) *KafkaReporter {
	return &KafkaReporter{producer: producer, topic: topic}
}

func (r *KafkaReporter) Report(ctx context.Context, result Result) error {
	day := result.Day.Format(time.DateOnly)
	return r.producer.PublishWithRetry(ctx, r.topic, day, kafka.DailySnapshot{
		ID:         uuid.NewString(),
		Day:        day,
		Cancelled:  nonNil(result.Cancelled),
		NoShows:    nonNil(result.NoShows),
		Failed:     result.Failed,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}, reportRetries)
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
