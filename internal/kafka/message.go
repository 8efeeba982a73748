package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/dariogeorge21/prayer-collector/internal/domain"
)

// DecodeSubmission parses an entry submission message value
func DecodeSubmission(value []byte) (domain.EntrySubmission, error) {
	var sub domain.EntrySubmission
	if err := json.Unmarshal(value, &sub); err != nil {
		return domain.EntrySubmission{}, fmt.Errorf("decoding submission: %w", err)
	}
	if sub.UserID == "" {
		return domain.EntrySubmission{}, fmt.Errorf("%w: missing user_id", domain.ErrInvalidEntry)
	}
	return sub, nil
}

// NewMessage builds a producer message for sub, keyed by user so one
// user's submissions stay ordered within a partition
func NewMessage(topic string, sub domain.EntrySubmission) (*sarama.ProducerMessage, error) {
	data, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("encoding submission: %w", err)
	}
	return &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(sub.UserID),
		Value: sarama.ByteEncoder(data),
	}, nil
}
