package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"dietario/internal/core"
)

const (
	KindMeal        = "pasto"
	KindMeasurement = "pesata"
)

// RecordMessage carries a newly created record to the export worker.
// The flat log has no stable record id the worker could re-fetch by,
// so the message embeds the serialized record itself.
type RecordMessage struct {
	Kind      string          `json:"kind"`
	User      string          `json:"utente"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewMealMessage(m core.Meal) (*RecordMessage, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal meal: %w", err)
	}
	return &RecordMessage{Kind: KindMeal, User: m.User, Payload: payload, Timestamp: time.Now()}, nil
}

func NewMeasurementMessage(m core.Measurement) (*RecordMessage, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal measurement: %w", err)
	}
	return &RecordMessage{Kind: KindMeasurement, User: m.User, Payload: payload, Timestamp: time.Now()}, nil
}

// Meal decodes the payload of a meal message.
func (m *RecordMessage) Meal() (core.Meal, error) {
	var meal core.Meal
	if err := json.Unmarshal(m.Payload, &meal); err != nil {
		return core.Meal{}, fmt.Errorf("decode meal payload: %w", err)
	}
	return meal, nil
}

// Measurement decodes the payload of a measurement message.
func (m *RecordMessage) Measurement() (core.Measurement, error) {
	var ms core.Measurement
	if err := json.Unmarshal(m.Payload, &ms); err != nil {
		return core.Measurement{}, fmt.Errorf("decode measurement payload: %w", err)
	}
	return ms, nil
}

func (m *RecordMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordMessageFromJSON(data []byte) (*RecordMessage, error) {
	var msg RecordMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
