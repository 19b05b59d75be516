package main

import (
	"fmt"

	"github.com/JaimeStill/casefile/internal/access"
	"github.com/JaimeStill/casefile/internal/batch"
	"github.com/JaimeStill/casefile/internal/config"
	"github.com/JaimeStill/casefile/internal/downloads"
	"github.com/JaimeStill/casefile/internal/events"
	"github.com/JaimeStill/casefile/internal/infrastructure"
	"github.com/JaimeStill/casefile/internal/verification"
	"github.com/JaimeStill/casefile/internal/versions"
)

// Domain holds the wired domain systems.
type Domain struct {
	Machine   *versions.Machine
	Workflow  *verification.Workflow
	Batch     *batch.Orchestrator
	Downloads *downloads.Service
	Timeline  events.Timeline
	Replay    *verification.Replay
	Auth      *access.Authenticator
}

// NewDomain builds the version store, event sinks, and workflows on top of
// infra. Every store call goes through the access guard.
func NewDomain(infra *infrastructure.Infrastructure, cfg *config.Config) (*Domain, error) {
	policy, err := cfg.Auth.Policy()
	if err != nil {
		return nil, fmt.Errorf("access policy: %w", err)
	}

	var store versions.Store
	switch cfg.Versions.Store {
	case versions.StorePostgres:
		store = versions.NewRepository(infra.Database.Connection(), infra.Logger)
	default:
		store = versions.NewMemoryStore()
	}
	guarded := access.NewGuard(store, policy)

	var timeline events.Timeline
	if cfg.Events.Record {
		timeline = events.NewRepository(infra.Database.Connection(), infra.Logger)
	} else {
		timeline = events.NewMemoryTimeline()
	}

	fanout := events.NewFanout().
		Add("log", events.LogSink(infra.Logger)).
		Add("timeline", timeline)
	if infra.Publisher != nil {
		fanout.Add("redis", infra.Publisher)
	}

	timeout := cfg.Versions.Timeout()

	machine := versions.NewMachine(
		guarded,
		infra.Storage,
		cfg.Versions.Policy(),
		timeout,
		infra.Logger,
		versions.WithEvents(fanout),
	)

	workflow := verification.New(
		machine,
		guarded,
		timeout,
		infra.Logger,
		verification.WithEvents(fanout),
	)

	return &Domain{
		Machine:   machine,
		Workflow:  workflow,
		Batch:     batch.New(machine, &cfg.Batch, infra.Logger),
		Downloads: downloads.New(guarded, infra.Storage, &cfg.Downloads, infra.Logger),
		Timeline:  access.NewTimelineGuard(timeline, policy),
		Replay:    verification.NewReplay(cfg.Downloads.CacheSize, cfg.Downloads.IdempotencyTTLDuration()),
		Auth:      access.NewAuthenticator(&cfg.Auth, infra.Logger),
	}, nil
}
