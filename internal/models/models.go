package models

// Entity represents a node in the knowledge graph. The name is the primary
// key within a graph; the type is a free-form classification.
type Entity struct {
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
}

// Relation represents a directed, typed edge between two entity names.
// Endpoints reference names by value; a relation may point at a name with no
// backing entity until an entity deletion cascades over it.
type Relation struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// Key returns the identity triple used to deduplicate relations.
func (r Relation) Key() [3]string {
	return [3]string{r.From, r.To, r.RelationType}
}

// KnowledgeGraph is the full graph for one project. It is the unit of
// loading, mutation and persistence.
type KnowledgeGraph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// Project is a registry entry for a project store this server has touched.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CreatedAt  string `json:"created_at"`
	LastUsedAt string `json:"last_used_at"`
}
