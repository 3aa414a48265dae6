// Package project implements the Project Inspector: deriving the set of
// available DocTypes (and their preferred storage paths) for a project from
// the files and extracted metadata an external store holds for it.
//
// The trust rules and path-selection policy below are grounded in the
// teacher's internal/guards/populate.go, which performs the same kind of
// "aggregate raw graph state into a small decision-ready struct" work for
// its own guard system.
package project

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bacopilot/docorch/internal/catalog"
)

// Origin distinguishes how an artifact came to exist in a project.
type Origin string

const (
	OriginAIGenerated  Origin = "ai-generated"
	OriginUserUploaded Origin = "user-uploaded"
)

// sentinelStart is the "not yet classified" marker for extracted metadata,
// per spec.md §3: "only trusted when the range is non-sentinel (start != -1)".
const sentinelStart = -1

// MetadataRange is an extracted-metadata classification of part of an
// uploaded file: {type, start, end}. A range with Start == -1 is a sentinel
// meaning "unclassified" and must not be trusted.
type MetadataRange struct {
	DocType catalog.DocType
	Start   int
	End     int
}

// Trusted reports whether this range is non-sentinel and therefore usable.
func (r MetadataRange) Trusted() bool {
	return r.Start != sentinelStart
}

// Artifact is a produced or uploaded file associated with a project and a
// DocType, per spec.md §3.
type Artifact struct {
	ProjectID int64
	DocType   catalog.DocType
	// Path is the storage path for the raw artifact.
	Path string
	// MarkdownPath is an optional rendered/markdown path, preferred for
	// context assembly when present.
	MarkdownPath string
	Origin       Origin
	CreatedAt    time.Time

	// Ranges carries extracted-metadata classifications for uploaded files.
	// Only populated (and only meaningful) for OriginUserUploaded artifacts.
	Ranges []MetadataRange
	// RawTypeStrings carries doc types that appeared as bare strings with
	// no accompanying range — spec.md §4.2: "Doc types that appear only as
	// raw strings (no range) are also accepted."
	RawTypeStrings []catalog.DocType
	// ManualTags carries doc types listed under a legacy "manual tags" key
	// on the upload. Trusted for backward compatibility — see DESIGN.md's
	// note on the "manual upload tagging" Open Question.
	ManualTags []catalog.DocType
}

// docTypes returns every DocType this artifact contributes, honoring the
// trust rules of spec.md §4.2. AI-generated artifacts always contribute
// their own DocType directly.
func (a Artifact) docTypes() []catalog.DocType {
	if a.Origin == OriginAIGenerated {
		return []catalog.DocType{a.DocType}
	}
	var out []catalog.DocType
	for _, r := range a.Ranges {
		if r.Trusted() {
			out = append(out, r.DocType)
		}
	}
	out = append(out, a.RawTypeStrings...)
	out = append(out, a.ManualTags...)
	return out
}

// ErrInspectorFailure wraps infrastructure errors surfaced while reading
// project state. Per spec.md §4.2/§7 this is distinct from, and never
// masked as, "no artifacts found".
var ErrInspectorFailure = errors.New("project inspector: infrastructure failure")

// Store is the external collaborator the Inspector reads from: it returns
// the raw artifacts known for a project. This is the one I/O boundary of
// the whole package (spec.md §6.3's "project inspection function").
type Store interface {
	ArtifactsForProject(ctx context.Context, projectID int64) ([]Artifact, error)
}

// State is the derived, non-cached view of a project: the set of DocTypes
// with at least one trusted artifact, and the chosen storage path for each.
type State struct {
	DocTypes map[catalog.DocType]bool
	Paths    map[catalog.DocType]string
}

// Has reports whether docType is available in this project state.
func (s State) Has(docType catalog.DocType) bool {
	return s.DocTypes[docType]
}

// Inspector derives ProjectState from a Store, applying the trust and
// path-selection rules of spec.md §4.2. It holds no state of its own and
// must not cache results beyond a single caller-scoped call.
type Inspector struct {
	store   Store
	catalog *catalog.Catalog
}

// NewInspector builds an Inspector over the given Store. The catalog is
// used only to silently drop contributed DocTypes the catalog doesn't know
// about (spec.md §4.2).
func NewInspector(store Store, cat *catalog.Catalog) *Inspector {
	return &Inspector{store: store, catalog: cat}
}

// Inspect returns the derived State for projectID. Any error from the
// underlying store is wrapped in ErrInspectorFailure and returned as-is —
// the Inspector never papers over a failure with an empty State.
func (i *Inspector) Inspect(ctx context.Context, projectID int64) (State, error) {
	artifacts, err := i.store.ArtifactsForProject(ctx, projectID)
	if err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrInspectorFailure, err)
	}
	return deriveState(artifacts, i.catalog), nil
}

// deriveState implements spec.md §4.2's aggregation and path-selection
// policy. It is a pure function of the artifact list so it can be
// unit-tested without a Store.
func deriveState(artifacts []Artifact, cat *catalog.Catalog) State {
	state := State{
		DocTypes: make(map[catalog.DocType]bool),
		Paths:    make(map[catalog.DocType]string),
	}

	// Group contributing artifacts by the DocTypes they trust, preserving
	// a stable timestamp-descending order so "first trusted upload
	// encountered" is deterministic.
	byDocType := make(map[catalog.DocType][]Artifact)
	for _, a := range artifacts {
		for _, dt := range a.docTypes() {
			if cat != nil {
				if _, ok := cat.Lookup(dt); !ok {
					continue // unknown DocType: ignored silently, per spec.md §4.2
				}
			}
			byDocType[dt] = append(byDocType[dt], a)
		}
	}

	for dt, group := range byDocType {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})

		state.DocTypes[dt] = true
		state.Paths[dt] = choosePath(group)
	}

	return state
}

// choosePath implements spec.md §4.2: prefer the most-recent AI-generated
// artifact, else the first trusted upload in timestamp-descending order;
// within whichever artifact is chosen, prefer its markdown-rendered path.
func choosePath(group []Artifact) string {
	for _, a := range group {
		if a.Origin == OriginAIGenerated {
			return preferMarkdown(a)
		}
	}
	return preferMarkdown(group[0])
}

func preferMarkdown(a Artifact) string {
	if a.MarkdownPath != "" {
		return a.MarkdownPath
	}
	return a.Path
}
