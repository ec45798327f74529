package mq

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestParsePayload_RoundTripThroughEnvelope(t *testing.T) {
	runID := uuid.New()
	msg := NewMessage(MessageTypeRunFinished, RunEventPayload{
		RunID:    runID,
		Pipeline: "demo",
		Status:   "SUCCEEDED",
		Phases:   [][]string{{"prompt"}, {"parse", "llm"}},
		Executed: 4,
	})

	body, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Message
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Type != MessageTypeRunFinished || decoded.ID != msg.ID {
		t.Errorf("unexpected envelope: %+v", decoded)
	}

	payload, err := ParsePayload[RunEventPayload](&decoded)
	if err != nil {
		t.Fatalf("parse payload: %v", err)
	}
	if payload.RunID != runID || payload.Pipeline != "demo" || len(payload.Phases) != 2 {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestParsePayload_Invalid(t *testing.T) {
	msg := &Message{Payload: "not an object"}
	if _, err := ParsePayload[RunRequestedPayload](msg); err == nil {
		t.Error("expected error for non-object payload")
	}
}

func TestNewMessage(t *testing.T) {
	before := time.Now().UTC()
	a := NewMessage(MessageTypeRunRequested, RunRequestedPayload{Pipeline: "demo"})
	b := NewMessage(MessageTypeRunRequested, RunRequestedPayload{Pipeline: "demo"})

	if a.ID == b.ID {
		t.Error("expected unique message IDs")
	}
	if a.Timestamp.Before(before) {
		t.Error("timestamp is in the past")
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("unknown pipeline")

	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}

	err := fmt.Errorf("handle: %w", Permanent(base))
	if !IsPermanent(err) {
		t.Error("expected wrapped permanent error")
	}
	if !errors.Is(err, base) {
		t.Error("expected permanent error to unwrap")
	}
	if IsPermanent(base) {
		t.Error("plain error is not permanent")
	}
}

func TestShouldRequeue(t *testing.T) {
	transient := errors.New("db down")

	tests := []struct {
		name        string
		err         error
		redelivered bool
		want        bool
	}{
		{"transient first", transient, false, true},
		{"transient redelivered", transient, true, false},
		{"permanent first", Permanent(transient), false, false},
		{"permanent redelivered", Permanent(transient), true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRequeue(tt.err, tt.redelivered); got != tt.want {
				t.Errorf("shouldRequeue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopology_Bindings(t *testing.T) {
	queues := make(map[Queue]Exchange)
	for _, b := range bindings() {
		queues[b.queue] = b.exchange
	}

	want := map[Queue]Exchange{
		QueueRunsRequested: ExchangeRuns,
		QueueEventsRuns:    ExchangeEvents,
		QueueEventsTasks:   ExchangeEvents,
		QueueDLQRuns:       ExchangeDLQ,
	}
	for q, ex := range want {
		if queues[q] != ex {
			t.Errorf("queue %s bound to %q, want %q", q, queues[q], ex)
		}
	}

	info := TopologyInfo()
	for q := range want {
		if !strings.Contains(info, string(q)) {
			t.Errorf("topology info misses %s", q)
		}
	}
}
