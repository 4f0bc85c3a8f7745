package graph

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/quintal-labs/graphmem/internal/models"
	"github.com/quintal-labs/graphmem/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewGraphStore(dir)
	if err != nil {
		t.Fatalf("NewGraphStore: %v", err)
	}
	reg, err := storage.OpenRegistry(dir)
	if err != nil {
		t.Fatalf("OpenRegistry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return NewService(store, reg, zap.NewNop())
}

func TestServicePersistsAcrossCalls(t *testing.T) {
	svc := newTestService(t)

	added, err := svc.CreateEntities("alpha", []models.Entity{
		{Name: "Go", EntityType: "technology", Observations: []string{"Compiled language"}},
	})
	if err != nil {
		t.Fatalf("CreateEntities: %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 added entity, got %d", len(added))
	}

	if _, err := svc.CreateRelations("alpha", []models.Relation{
		{From: "Go", To: "graphmem", RelationType: "powers"},
	}); err != nil {
		t.Fatalf("CreateRelations: %v", err)
	}

	g, err := svc.ReadGraph("alpha")
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}
	if len(g.Entities) != 1 || len(g.Relations) != 1 {
		t.Errorf("Graph = %d entities, %d relations; want 1 and 1", len(g.Entities), len(g.Relations))
	}
}

func TestProjectsAreIsolated(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.CreateEntities("alpha", []models.Entity{{Name: "OnlyInAlpha", EntityType: "note"}}); err != nil {
		t.Fatal(err)
	}

	g, err := svc.ReadGraph("beta")
	if err != nil {
		t.Fatalf("ReadGraph(beta): %v", err)
	}
	if len(g.Entities) != 0 {
		t.Errorf("beta should be empty, got %+v", g.Entities)
	}
}

func TestEmptyIdentifierRejectedBeforeStorage(t *testing.T) {
	svc := newTestService(t)

	ops := map[string]func() error{
		"create_entities": func() error {
			_, err := svc.CreateEntities("", []models.Entity{{Name: "X"}})
			return err
		},
		"read_graph": func() error {
			_, err := svc.ReadGraph("   ")
			return err
		},
		"delete_entities": func() error {
			return svc.DeleteEntities("\t", []string{"X"})
		},
		"delete_project": func() error {
			return svc.DeleteProject("")
		},
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, storage.ErrInvalidIdentifier) {
			t.Errorf("%s: err = %v, want ErrInvalidIdentifier", name, err)
		}
	}
}

func TestAddObservationsFailureDoesNotPersist(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.CreateEntities("alpha", []models.Entity{{Name: "Real", EntityType: "note"}}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.AddObservations("alpha", []ObservationAddition{
		{EntityName: "Real", Contents: []string{"would be lost"}},
		{EntityName: "Ghost", Contents: []string{"boo"}},
	})
	if !errors.Is(err, ErrEntityNotFound) {
		t.Fatalf("err = %v, want ErrEntityNotFound", err)
	}

	// The partial batch must not have been saved.
	g, err := svc.ReadGraph("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Entities[0].Observations) != 0 {
		t.Errorf("Observations = %v, want none persisted", g.Entities[0].Observations)
	}
}

func TestDeleteOperationsAreIdempotent(t *testing.T) {
	svc := newTestService(t)

	if err := svc.DeleteEntities("alpha", []string{"Ghost"}); err != nil {
		t.Errorf("DeleteEntities on empty graph: %v", err)
	}
	if err := svc.DeleteObservations("alpha", []ObservationDeletion{{EntityName: "Ghost", Observations: []string{"x"}}}); err != nil {
		t.Errorf("DeleteObservations on empty graph: %v", err)
	}
	if err := svc.DeleteRelations("alpha", []models.Relation{{From: "A", To: "B", RelationType: "knows"}}); err != nil {
		t.Errorf("DeleteRelations on empty graph: %v", err)
	}
}

func TestListProjectsReflectsUse(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.CreateEntities("alpha", []models.Entity{{Name: "X", EntityType: "note"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ReadGraph("beta"); err != nil {
		t.Fatal(err)
	}

	projects, err := svc.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("Expected 2 projects, got %d", len(projects))
	}
	if projects[0].Name != "alpha" || projects[1].Name != "beta" {
		t.Errorf("Projects = %q, %q; want alpha, beta", projects[0].Name, projects[1].Name)
	}
}

func TestDeleteProjectRemovesDataAndRegistryEntry(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.CreateEntities("alpha", []models.Entity{{Name: "X", EntityType: "note"}}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteProject("alpha"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}

	projects, err := svc.ListProjects()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range projects {
		if p.Name == "alpha" {
			t.Error("alpha still in registry after delete")
		}
	}

	// A fresh read after deletion sees an implicitly created empty graph.
	g, err := svc.ReadGraph("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Entities) != 0 {
		t.Errorf("Expected empty graph after delete, got %+v", g.Entities)
	}
}
