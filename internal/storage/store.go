// Package storage owns the on-disk representation of project knowledge
// graphs: one directory per sanitized project identifier under a base
// directory, holding a single line-delimited JSON record file, plus a SQLite
// registry of every project the server has touched.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quintal-labs/graphmem/internal/models"
)

// Error kinds surfaced to callers. Wrapped errors carry detail; callers
// match the kind with errors.Is.
var (
	ErrInvalidIdentifier  = errors.New("invalid project identifier")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrCorruptStore       = errors.New("corrupt store")
)

// recordFileName is the record file inside each project directory.
const recordFileName = "memory.jsonl"

// maxRecordSize bounds a single record line. Observations are free text, so
// lines can be much longer than bufio's default token limit.
const maxRecordSize = 4 * 1024 * 1024

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeName reduces a project identifier to a safe path component.
// Empty or whitespace-only identifiers are rejected, as is anything that
// sanitizes to a leading dot (hidden or parent-relative artifacts).
func SanitizeName(project string) (string, error) {
	if strings.TrimSpace(project) == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrInvalidIdentifier)
	}
	name := unsafeChars.ReplaceAllString(project, "_")
	if name == "" || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, project)
	}
	return name, nil
}

// Location is a resolved storage location for one project.
type Location struct {
	Name string // sanitized project name
	Dir  string // project directory
	File string // record file path
}

// GraphStore maps project identifiers to record files under a base
// directory and provides whole-graph load/save primitives.
type GraphStore struct {
	baseDir string
}

// NewGraphStore creates the base directory if absent and returns a store
// rooted there.
func NewGraphStore(baseDir string) (*GraphStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create base dir: %v", ErrStorageUnavailable, err)
	}
	return &GraphStore{baseDir: baseDir}, nil
}

// BaseDir returns the base directory all project stores live under.
func (s *GraphStore) BaseDir() string {
	return s.baseDir
}

// Resolve sanitizes the project identifier and ensures its directory exists.
// Identifier validation happens before any filesystem access.
func (s *GraphStore) Resolve(project string) (Location, error) {
	name, err := SanitizeName(project)
	if err != nil {
		return Location{}, err
	}
	dir := filepath.Join(s.baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Location{}, fmt.Errorf("%w: create project dir: %v", ErrStorageUnavailable, err)
	}
	return Location{Name: name, Dir: dir, File: filepath.Join(dir, recordFileName)}, nil
}

// Remove deletes a project's directory and everything in it. Removing a
// project that was never stored is not an error.
func (s *GraphStore) Remove(project string) error {
	name, err := SanitizeName(project)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(s.baseDir, name)); err != nil {
		return fmt.Errorf("%w: remove project dir: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Line records in the backing file. Every line is one JSON object tagged
// with a type; entities are written before relations by convention, but
// load does not depend on ordering between the two kinds.
type entityRecord struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

type relationRecord struct {
	Type         string `json:"type"`
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// Load reads the record file and decodes it into a graph. A missing file is
// an empty graph, not an error. An undecodable line fails hard with
// ErrCorruptStore; lines that decode but carry an unknown type are ignored.
func (s *GraphStore) Load(loc Location) (*models.KnowledgeGraph, error) {
	f, err := os.Open(loc.File)
	if errors.Is(err, os.ErrNotExist) {
		return &models.KnowledgeGraph{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open record file: %v", ErrStorageUnavailable, err)
	}
	defer f.Close()

	graph := &models.KnowledgeGraph{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptStore, lineNo, err)
		}
		switch probe.Type {
		case "entity":
			var rec entityRecord
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptStore, lineNo, err)
			}
			graph.Entities = append(graph.Entities, models.Entity{
				Name:         rec.Name,
				EntityType:   rec.EntityType,
				Observations: rec.Observations,
			})
		case "relation":
			var rec relationRecord
			if err := json.Unmarshal([]byte(line), &rec); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrCorruptStore, lineNo, err)
			}
			graph.Relations = append(graph.Relations, models.Relation{
				From:         rec.From,
				To:           rec.To,
				RelationType: rec.RelationType,
			})
		default:
			// Unknown record kinds are ignored.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read record file: %v", ErrStorageUnavailable, err)
	}
	return graph, nil
}

// Save serializes the full graph and replaces the record file. The write
// goes to a temp file in the same directory and is renamed into place so a
// crash mid-write never leaves a truncated record.
func (s *GraphStore) Save(loc Location, graph *models.KnowledgeGraph) error {
	tmp, err := os.CreateTemp(loc.Dir, recordFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStorageUnavailable, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, e := range graph.Entities {
		rec := entityRecord{
			Type:         "entity",
			Name:         e.Name,
			EntityType:   e.EntityType,
			Observations: e.Observations,
		}
		if rec.Observations == nil {
			rec.Observations = []string{}
		}
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: encode entity %q: %v", ErrStorageUnavailable, e.Name, err)
		}
	}
	for _, r := range graph.Relations {
		rec := relationRecord{
			Type:         "relation",
			From:         r.From,
			To:           r.To,
			RelationType: r.RelationType,
		}
		if err := enc.Encode(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("%w: encode relation: %v", ErrStorageUnavailable, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: flush record file: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: sync record file: %v", ErrStorageUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close record file: %v", ErrStorageUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), loc.File); err != nil {
		return fmt.Errorf("%w: replace record file: %v", ErrStorageUnavailable, err)
	}
	return nil
}
