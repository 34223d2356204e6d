package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"lifeevo/internal/model"
)

const (
	EventGenerationRecorded = "generation.recorded"

	DefaultSubject = "lifeevo.generations"
	source         = "lifeevo"
)

// GenerationEvent is the envelope published for every recorded generation.
type GenerationEvent struct {
	EventType      string               `json:"event_type"`
	RunID          string               `json:"run_id"`
	Objective      string               `json:"objective"`
	Generation     int                  `json:"generation"`
	GenerationGoal int                  `json:"generation_count"`
	PopulationSize int                  `json:"population_size"`
	Best           model.IndividualDump `json:"best"`
	Worst          model.IndividualDump `json:"worst"`
	Timestamp      string               `json:"timestamp"`
	Source         string               `json:"source"`
}

func NewGenerationEvent(run model.RunRecord, summary model.GenerationSummary) GenerationEvent {
	return GenerationEvent{
		EventType:      EventGenerationRecorded,
		RunID:          run.RunID,
		Objective:      run.Objective,
		Generation:     summary.Generation,
		GenerationGoal: run.GenerationCount,
		PopulationSize: summary.PopulationSize,
		Best:           summary.Best,
		Worst:          summary.Worst,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		Source:         source,
	}
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends a GenerationEvent per recorded generation.
type Publisher struct {
	conn    Conn
	subject string
}

func NewPublisher(conn Conn, subject string) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{conn: conn, subject: subject}
}

func (p *Publisher) Subject() string { return p.subject }

func (p *Publisher) RecordGeneration(_ context.Context, run model.RunRecord, summary model.GenerationSummary) error {
	if p.conn == nil {
		return fmt.Errorf("nats connection is required")
	}
	data, err := json.Marshal(NewGenerationEvent(run, summary))
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", p.subject, err)
	}
	return nil
}

// Connect dials NATS with unlimited reconnects.
func Connect(url, name string) (*natsgo.Conn, error) {
	nc, err := natsgo.Connect(url, natsgo.Name(name), natsgo.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// Module ties a NATS connection to the platform support module lifecycle.
// The connection is dialled on Start and drained on Stop.
type Module struct {
	URL     string
	Subject string

	mu        sync.RWMutex
	conn      *natsgo.Conn
	publisher *Publisher
}

func (m *Module) Name() string { return "nats-events" }

func (m *Module) Start(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return nil
	}
	nc, err := Connect(m.URL, "lifeevo")
	if err != nil {
		return err
	}
	m.conn = nc
	m.publisher = NewPublisher(nc, m.Subject)
	return nil
}

// Stop drains the connection once in-flight publishes have returned.
func (m *Module) Stop(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publisher = nil
	if m.conn == nil {
		return nil
	}
	err := m.conn.Drain()
	m.conn = nil
	return err
}

// RecordGeneration publishes through the live connection. Generations
// recorded before Start or after Stop fail.
func (m *Module) RecordGeneration(ctx context.Context, run model.RunRecord, summary model.GenerationSummary) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.publisher == nil {
		return fmt.Errorf("nats events module is not started")
	}
	return m.publisher.RecordGeneration(ctx, run, summary)
}
