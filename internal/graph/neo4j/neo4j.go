package neo4j

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/crewnet/internal/graph"
	"github.com/efebarandurmaz/crewnet/internal/network"
)

// batchSize bounds the rows sent per UNWIND statement.
const batchSize = 500

// Neo4jRepository implements graph.Repository using Neo4j.
type Neo4jRepository struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4j creates a Neo4j-backed repository and checks connectivity.
func NewNeo4j(ctx context.Context, uri, username, password, database string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, errors.Wrap(err, "neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, errors.Wrap(err, "neo4j connectivity")
	}
	return &Neo4jRepository{driver: driver, database: database}, nil
}

func (r *Neo4jRepository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: r.database})
}

// StoreNetwork merges people and COLLABORATED_WITH relationships. Running it
// twice over the same graph leaves the database unchanged.
func (r *Neo4jRepository) StoreNetwork(ctx context.Context, g *network.Graph) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	if _, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, "CREATE CONSTRAINT person_id IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE", nil)
		return nil, err
	}); err != nil {
		return errors.Wrap(err, "create person constraint")
	}

	people := personRows(g)
	for start := 0; start < len(people); start += batchSize {
		batch := people[start:min(start+batchSize, len(people))]
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx,
				"UNWIND $rows AS row "+
					"MERGE (p:Person {id: row.id}) "+
					"SET p.name = row.name, p.node_type = row.node_type, p.cust_size = row.size, "+
					"p.is_director = row.director, p.is_crew = row.crew, p.avg_role_homogeneity = row.homogeneity",
				map[string]any{"rows": batch})
			return nil, err
		})
		if err != nil {
			return errors.Wrapf(err, "store people %d-%d", start, start+len(batch))
		}
	}

	edges := edgeRows(g)
	for start := 0; start < len(edges); start += batchSize {
		batch := edges[start:min(start+batchSize, len(edges))]
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx,
				"UNWIND $rows AS row "+
					"MATCH (d:Person {id: row.director}) "+
					"MATCH (c:Person {id: row.crew}) "+
					"MERGE (d)-[e:COLLABORATED_WITH]->(c) "+
					"SET e.weight = row.weight, e.role = row.role, e.cofeat_rate = row.cofeat_rate, "+
					"e.reverse_cofeat_rate = row.reverse_cofeat_rate, e.reciprocal = row.reciprocal",
				map[string]any{"rows": batch})
			return nil, err
		})
		if err != nil {
			return errors.Wrapf(err, "store collaborations %d-%d", start, start+len(batch))
		}
	}
	return nil
}

func personRows(g *network.Graph) []map[string]any {
	nodes := g.Nodes()
	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		var homogeneity any
		if !math.IsNaN(n.AvgRoleHomogeneity) {
			homogeneity = n.AvgRoleHomogeneity
		}
		rows = append(rows, map[string]any{
			"id":          n.ID,
			"name":        n.Name,
			"node_type":   n.NodeType,
			"size":        n.Size,
			"director":    n.IsDirector(),
			"crew":        n.IsCrew(),
			"homogeneity": homogeneity,
		})
	}
	return rows
}

func edgeRows(g *network.Graph) []map[string]any {
	edges := g.Edges()
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]any{
			"director":            e.Director,
			"crew":                e.Crew,
			"weight":              e.Weight,
			"role":                e.Role,
			"cofeat_rate":         e.CofeatRate,
			"reverse_cofeat_rate": e.ReverseCofeatRate,
			"reciprocal":          e.Reciprocal,
		})
	}
	return rows
}

// Collaborators returns the people linked to personID in either direction,
// ordered by weight and then id.
func (r *Neo4jRepository) Collaborators(ctx context.Context, personID string, limit int) ([]graph.Collaborator, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	query := "MATCH (:Person {id: $id})-[e:COLLABORATED_WITH]-(o:Person) " +
		"RETURN o.id AS id, o.name AS name, o.node_type AS node_type, " +
		"e.role AS role, e.weight AS weight, e.cofeat_rate AS cofeat_rate " +
		"ORDER BY weight DESC, id"
	params := map[string]any{"id": personID}
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = limit
	}

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		var out []graph.Collaborator
		for records.Next(ctx) {
			rec := records.Record()
			out = append(out, graph.Collaborator{
				ID:         stringValue(rec, "id"),
				Name:       stringValue(rec, "name"),
				NodeType:   stringValue(rec, "node_type"),
				Role:       stringValue(rec, "role"),
				Weight:     floatValue(rec, "weight"),
				CofeatRate: floatValue(rec, "cofeat_rate"),
			})
		}
		return out, records.Err()
	})
	if err != nil {
		return nil, errors.Wrapf(err, "collaborators of %s", personID)
	}
	return result.([]graph.Collaborator), nil
}

func stringValue(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func floatValue(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch f := v.(type) {
	case float64:
		return f
	case int64:
		return float64(f)
	}
	return 0
}

// Ping verifies the server is reachable.
func (r *Neo4jRepository) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graph.Repository = (*Neo4jRepository)(nil)
