// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/google/uuid"

	"github.com/pdiddy/editorial-engine/pkg/types"
)

// Stage identifies one pipeline phase.
type Stage string

const (
	StageDiscovery     Stage = "discovery"
	StageIntake        Stage = "intake"
	StageUnderstanding Stage = "understanding"
	StageEditorial     Stage = "editorial"
	StageIngestion     Stage = "ingestion"
)

// Stages lists all stages in pipeline order.
var Stages = []Stage{
	StageDiscovery,
	StageIntake,
	StageUnderstanding,
	StageEditorial,
	StageIngestion,
}

// Unit is one message carrying a stage's input payload through the queue.
// Exactly one payload field is meaningful per stage: Query for discovery
// (empty means a full planning cycle), URL for intake, Doc for the rest.
// Per prd017-dispatch R1.1-R1.3.
type Unit struct {
	// ID identifies the unit across retries and log lines.
	ID uuid.UUID

	// Stage names the queue this unit belongs to.
	Stage Stage

	// Attempt is the 1-based delivery count, maintained by the dispatcher.
	Attempt int

	// Query is an ad-hoc search query (discovery units only).
	Query string

	// URL is the location to fetch (intake units only).
	URL string

	// Doc is the document payload (understanding and later stages).
	Doc types.Document
}

// NewDiscoveryUnit returns a unit that runs one full planning cycle, or a
// single ad-hoc query when query is non-empty.
func NewDiscoveryUnit(query string) Unit {
	return Unit{ID: uuid.New(), Stage: StageDiscovery, Query: query}
}

// NewIntakeUnit returns a unit that fetches and processes one URL.
func NewIntakeUnit(url string) Unit {
	return Unit{ID: uuid.New(), Stage: StageIntake, URL: url}
}

// NewUnderstandingUnit returns a unit carrying an intake document.
func NewUnderstandingUnit(doc types.Document) Unit {
	return Unit{ID: uuid.New(), Stage: StageUnderstanding, Doc: doc}
}

// NewEditorialUnit returns a unit carrying an enriched document.
func NewEditorialUnit(doc types.Document) Unit {
	return Unit{ID: uuid.New(), Stage: StageEditorial, Doc: doc}
}

// NewIngestionUnit returns a unit carrying a fully processed document.
func NewIngestionUnit(doc types.Document) Unit {
	return Unit{ID: uuid.New(), Stage: StageIngestion, Doc: doc}
}
