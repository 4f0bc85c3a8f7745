package graph

import (
	"sync"

	"go.uber.org/zap"

	"github.com/quintal-labs/graphmem/internal/models"
	"github.com/quintal-labs/graphmem/internal/storage"
)

// Service exposes the graph operations against per-project stores. Each
// call resolves its project identifier, loads the current graph, applies
// the transform, and saves the result. The cycle is serialized per project
// so concurrent callers on the same store cannot lose each other's writes.
type Service struct {
	store  *storage.GraphStore
	reg    *storage.Registry
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService wires a Service. The registry may be nil, in which case project
// bookkeeping is disabled and ListProjects returns nothing.
func NewService(store *storage.GraphStore, reg *storage.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		reg:    reg,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *Service) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// mutate runs fn against the current graph and persists the result only if
// fn succeeds. A failing transform leaves the stored graph untouched.
func (s *Service) mutate(project string, fn func(*models.KnowledgeGraph) error) error {
	loc, err := s.store.Resolve(project)
	if err != nil {
		return err
	}
	l := s.lockFor(loc.Name)
	l.Lock()
	defer l.Unlock()

	g, err := s.store.Load(loc)
	if err != nil {
		return err
	}
	if err := fn(g); err != nil {
		return err
	}
	if err := s.store.Save(loc, g); err != nil {
		return err
	}
	s.touch(loc.Name)
	return nil
}

// view runs fn against the current graph without persisting anything.
func (s *Service) view(project string, fn func(*models.KnowledgeGraph)) error {
	loc, err := s.store.Resolve(project)
	if err != nil {
		return err
	}
	l := s.lockFor(loc.Name)
	l.Lock()
	defer l.Unlock()

	g, err := s.store.Load(loc)
	if err != nil {
		return err
	}
	fn(g)
	s.touch(loc.Name)
	return nil
}

// touch stamps the registry best-effort. The record file is the source of
// truth; a failed stamp is logged and swallowed.
func (s *Service) touch(name string) {
	if s.reg == nil {
		return
	}
	if err := s.reg.Touch(name); err != nil {
		s.logger.Warn("project registry stamp failed",
			zap.String("project", name), zap.Error(err))
	}
}

// CreateEntities adds entities whose names are new and returns the subset
// actually added.
func (s *Service) CreateEntities(project string, entities []models.Entity) ([]models.Entity, error) {
	var added []models.Entity
	err := s.mutate(project, func(g *models.KnowledgeGraph) error {
		added = createEntities(g, entities)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("entities created",
		zap.String("project", project), zap.Int("added", len(added)))
	return added, nil
}

// CreateRelations adds relations whose triples are new and returns the
// subset actually added.
func (s *Service) CreateRelations(project string, relations []models.Relation) ([]models.Relation, error) {
	var added []models.Relation
	err := s.mutate(project, func(g *models.KnowledgeGraph) error {
		added = createRelations(g, relations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("relations created",
		zap.String("project", project), zap.Int("added", len(added)))
	return added, nil
}

// AddObservations appends new observation strings per entity. Any unknown
// entity name aborts the whole batch with ErrEntityNotFound and nothing is
// persisted.
func (s *Service) AddObservations(project string, additions []ObservationAddition) ([]ObservationResult, error) {
	var results []ObservationResult
	err := s.mutate(project, func(g *models.KnowledgeGraph) error {
		var ferr error
		results, ferr = addObservations(g, additions)
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteEntities removes the named entities and cascades over every
// relation referencing them. Unknown names are ignored.
func (s *Service) DeleteEntities(project string, names []string) error {
	return s.mutate(project, func(g *models.KnowledgeGraph) error {
		deleteEntities(g, names)
		return nil
	})
}

// DeleteObservations removes the listed observation strings from each named
// entity. Unknown entities and absent strings are ignored.
func (s *Service) DeleteObservations(project string, deletions []ObservationDeletion) error {
	return s.mutate(project, func(g *models.KnowledgeGraph) error {
		deleteObservations(g, deletions)
		return nil
	})
}

// DeleteRelations removes relations matching the given triples exactly.
func (s *Service) DeleteRelations(project string, relations []models.Relation) error {
	return s.mutate(project, func(g *models.KnowledgeGraph) error {
		deleteRelations(g, relations)
		return nil
	})
}

// ReadGraph returns the full current graph for the project.
func (s *Service) ReadGraph(project string) (*models.KnowledgeGraph, error) {
	var out *models.KnowledgeGraph
	err := s.view(project, func(g *models.KnowledgeGraph) {
		out = g
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchNodes returns the subgraph matching the query.
func (s *Service) SearchNodes(project, query string) (*models.KnowledgeGraph, error) {
	var out *models.KnowledgeGraph
	err := s.view(project, func(g *models.KnowledgeGraph) {
		out = searchNodes(g, query)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OpenNodes returns the subgraph of the named entities.
func (s *Service) OpenNodes(project string, names []string) (*models.KnowledgeGraph, error) {
	var out *models.KnowledgeGraph
	err := s.view(project, func(g *models.KnowledgeGraph) {
		out = openNodes(g, names)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListProjects returns the registry's view of known projects.
func (s *Service) ListProjects() ([]models.Project, error) {
	if s.reg == nil {
		return nil, nil
	}
	return s.reg.List()
}

// DeleteProject permanently removes a project's store and registry entry.
func (s *Service) DeleteProject(project string) error {
	name, err := storage.SanitizeName(project)
	if err != nil {
		return err
	}
	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()

	if err := s.store.Remove(name); err != nil {
		return err
	}
	if s.reg != nil {
		if err := s.reg.Delete(name); err != nil {
			return err
		}
	}
	s.logger.Info("project deleted", zap.String("project", name))
	return nil
}
