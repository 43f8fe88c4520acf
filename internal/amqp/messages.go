package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"fintrack/internal/core"

	"github.com/google/uuid"
)

type EventKind string

const (
	KindTransactionRecorded EventKind = "transaction.recorded"
	KindDataCleared         EventKind = "data.cleared"
)

// Event is a notification about a change to the tracker's data.
// Transaction is set only for KindTransactionRecorded.
type Event struct {
	ID          string            `json:"id"`
	Kind        EventKind         `json:"kind"`
	Transaction *core.Transaction `json:"transaction,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

func NewTransactionRecordedEvent(tx core.Transaction) *Event {
	return &Event{
		ID:          uuid.NewString(),
		Kind:        KindTransactionRecorded,
		Transaction: &tx,
		OccurredAt:  time.Now().UTC(),
	}
}

func NewDataClearedEvent() *Event {
	return &Event{
		ID:         uuid.NewString(),
		Kind:       KindDataCleared,
		OccurredAt: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and checks an event.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case KindTransactionRecorded:
		if e.Transaction == nil {
			return nil, errors.New("transaction event without transaction")
		}
	case KindDataCleared:
	default:
		return nil, errors.New("unknown event kind: " + string(e.Kind))
	}
	return &e, nil
}
