// Package storage wires the sqlite-backed implementations of
// internal/interfaces's store abstractions into one bundle the rest of the
// engine is constructed from.
package storage

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/hubscout/internal/common"
	"github.com/ternarybob/hubscout/internal/interfaces"
	"github.com/ternarybob/hubscout/internal/storage/sqlite"
)

// Bundle groups every store interface implementation backed by one shared
// *sqlite.DB connection.
type Bundle struct {
	DB            *sqlite.DB
	Candidates    interfaces.CandidateStore
	Fetches       interfaces.FetchStore
	Hubs          interfaces.HubStore
	Audit         interfaces.AuditStore
	Determinations interfaces.DeterminationStore
	Events        interfaces.EventStore
	Jobs          interfaces.JobStore
}

// Open opens the sqlite database named in cfg and returns the full Bundle
// of store implementations.
func Open(logger arbor.ILogger, cfg *common.Config) (*Bundle, error) {
	db, err := sqlite.Open(logger, sqlite.Options{
		Path:           cfg.Storage.SqlitePath,
		ResetOnStartup: cfg.Storage.ResetOnStartup,
		Environment:    cfg.Environment,
	})
	if err != nil {
		return nil, err
	}

	return &Bundle{
		DB:             db,
		Candidates:     sqlite.NewCandidateStore(db),
		Fetches:        sqlite.NewFetchStore(db),
		Hubs:           sqlite.NewHubStore(db),
		Audit:          sqlite.NewAuditStore(db),
		Determinations: sqlite.NewDeterminationStore(db),
		Events:         sqlite.NewEventStore(db),
		Jobs:           sqlite.NewJobStore(db),
	}, nil
}
