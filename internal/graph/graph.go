// Package graph implements the knowledge-graph operations: pure transforms
// over a loaded graph value, plus a Service that runs each operation as a
// load, transform, save cycle against one project's store.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/quintal-labs/graphmem/internal/models"
)

// ErrEntityNotFound is returned when an observation addition targets an
// entity name with no backing entity. It aborts the whole batch.
var ErrEntityNotFound = errors.New("entity not found")

// ObservationAddition names an entity and the contents to append to it.
type ObservationAddition struct {
	EntityName string   `json:"entityName"`
	Contents   []string `json:"contents"`
}

// ObservationResult reports what was actually appended for one entity.
type ObservationResult struct {
	EntityName        string   `json:"entityName"`
	AddedObservations []string `json:"addedObservations"`
}

// ObservationDeletion names an entity and the observation strings to remove.
type ObservationDeletion struct {
	EntityName   string   `json:"entityName"`
	Observations []string `json:"observations"`
}

// createEntities appends entities whose names are not already present,
// preserving insertion order. Duplicate names, whether against the graph or
// within the batch, are dropped silently. Returns the subset actually added.
func createEntities(g *models.KnowledgeGraph, entities []models.Entity) []models.Entity {
	existing := make(map[string]bool, len(g.Entities))
	for _, e := range g.Entities {
		existing[e.Name] = true
	}
	added := []models.Entity{}
	for _, e := range entities {
		if existing[e.Name] {
			continue
		}
		existing[e.Name] = true
		g.Entities = append(g.Entities, e)
		added = append(added, e)
	}
	return added
}

// createRelations appends relations whose (from, to, relationType) triple is
// not already present. Endpoint existence is not validated; relations may
// dangle until an entity deletion cascades over them.
func createRelations(g *models.KnowledgeGraph, relations []models.Relation) []models.Relation {
	existing := make(map[[3]string]bool, len(g.Relations))
	for _, r := range g.Relations {
		existing[r.Key()] = true
	}
	added := []models.Relation{}
	for _, r := range relations {
		if existing[r.Key()] {
			continue
		}
		existing[r.Key()] = true
		g.Relations = append(g.Relations, r)
		added = append(added, r)
	}
	return added
}

// addObservations appends contents not already present on each named entity.
// Any unknown entity name fails the whole batch with ErrEntityNotFound; the
// caller must not persist the graph in that case.
func addObservations(g *models.KnowledgeGraph, additions []ObservationAddition) ([]ObservationResult, error) {
	results := make([]ObservationResult, 0, len(additions))
	for _, add := range additions {
		ent := findEntity(g, add.EntityName)
		if ent == nil {
			return nil, fmt.Errorf("%w: %q", ErrEntityNotFound, add.EntityName)
		}
		seen := make(map[string]bool, len(ent.Observations))
		for _, o := range ent.Observations {
			seen[o] = true
		}
		appended := []string{}
		for _, c := range add.Contents {
			if seen[c] {
				continue
			}
			seen[c] = true
			ent.Observations = append(ent.Observations, c)
			appended = append(appended, c)
		}
		results = append(results, ObservationResult{
			EntityName:        add.EntityName,
			AddedObservations: appended,
		})
	}
	return results, nil
}

// deleteEntities removes the named entities and every relation referencing a
// deleted name on either end. Unknown names are ignored.
func deleteEntities(g *models.KnowledgeGraph, names []string) {
	doomed := make(map[string]bool, len(names))
	for _, n := range names {
		doomed[n] = true
	}

	entities := g.Entities[:0]
	for _, e := range g.Entities {
		if !doomed[e.Name] {
			entities = append(entities, e)
		}
	}
	g.Entities = entities

	relations := g.Relations[:0]
	for _, r := range g.Relations {
		if !doomed[r.From] && !doomed[r.To] {
			relations = append(relations, r)
		}
	}
	g.Relations = relations
}

// deleteObservations removes the listed strings from each named entity's
// observations. Unknown entities and absent strings are ignored.
func deleteObservations(g *models.KnowledgeGraph, deletions []ObservationDeletion) {
	for _, del := range deletions {
		ent := findEntity(g, del.EntityName)
		if ent == nil {
			continue
		}
		doomed := make(map[string]bool, len(del.Observations))
		for _, o := range del.Observations {
			doomed[o] = true
		}
		kept := ent.Observations[:0]
		for _, o := range ent.Observations {
			if !doomed[o] {
				kept = append(kept, o)
			}
		}
		ent.Observations = kept
	}
}

// deleteRelations removes relations matching the given triples exactly.
// Non-matching triples are ignored.
func deleteRelations(g *models.KnowledgeGraph, relations []models.Relation) {
	doomed := make(map[[3]string]bool, len(relations))
	for _, r := range relations {
		doomed[r.Key()] = true
	}
	kept := g.Relations[:0]
	for _, r := range g.Relations {
		if !doomed[r.Key()] {
			kept = append(kept, r)
		}
	}
	g.Relations = kept
}

// searchNodes returns the subgraph of entities whose name, type or any
// observation contains the query as a case-insensitive substring, plus the
// relations with both endpoints in that subset. An empty query matches
// everything. Matched entities keep the graph's relative order.
func searchNodes(g *models.KnowledgeGraph, query string) *models.KnowledgeGraph {
	q := strings.ToLower(query)
	matched := []models.Entity{}
	names := make(map[string]bool)
	for _, e := range g.Entities {
		if entityMatches(e, q) {
			matched = append(matched, e)
			names[e.Name] = true
		}
	}
	return subgraph(g, matched, names)
}

// openNodes returns the subgraph of entities whose name is in the given
// list, plus the relations with both endpoints in that subset. Unknown
// names are silently absent from the result.
func openNodes(g *models.KnowledgeGraph, names []string) *models.KnowledgeGraph {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	matched := []models.Entity{}
	present := make(map[string]bool)
	for _, e := range g.Entities {
		if wanted[e.Name] {
			matched = append(matched, e)
			present[e.Name] = true
		}
	}
	return subgraph(g, matched, present)
}

func entityMatches(e models.Entity, q string) bool {
	if strings.Contains(strings.ToLower(e.Name), q) {
		return true
	}
	if strings.Contains(strings.ToLower(e.EntityType), q) {
		return true
	}
	for _, o := range e.Observations {
		if strings.Contains(strings.ToLower(o), q) {
			return true
		}
	}
	return false
}

func subgraph(g *models.KnowledgeGraph, entities []models.Entity, names map[string]bool) *models.KnowledgeGraph {
	sub := &models.KnowledgeGraph{Entities: entities, Relations: []models.Relation{}}
	for _, r := range g.Relations {
		if names[r.From] && names[r.To] {
			sub.Relations = append(sub.Relations, r)
		}
	}
	return sub
}

func findEntity(g *models.KnowledgeGraph, name string) *models.Entity {
	for i := range g.Entities {
		if g.Entities[i].Name == name {
			return &g.Entities[i]
		}
	}
	return nil
}
