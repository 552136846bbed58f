// Package vector stores directors as role homogeneity vectors so that
// directors who staff their productions alike can be found by similarity.
package vector

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/efebarandurmaz/crewnet/internal/credits"
	"github.com/efebarandurmaz/crewnet/internal/network"
)

// Payload keys stored with every director vector.
const (
	KeyDirectorID = "director_id"
	KeyName       = "name"
	KeyNodeType   = "node_type"
)

const upsertBatch = 256

// namespace seeds the deterministic point ids.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.imdb.com/name/"))

// ErrNoHomogeneity is returned when a director without filled roles is
// used as a similarity query.
var ErrNoHomogeneity = errors.New("director has no role homogeneity")

// PointID maps a director id to a stable UUID, so re-indexing overwrites.
func PointID(directorID string) string {
	return uuid.NewSHA1(namespace, []byte(directorID)).String()
}

// Vocabulary is the vector layout: every indexed role except directing,
// sorted.
func Vocabulary(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != credits.RoleDirectedBy {
			out = append(out, r)
		}
	}
	return out
}

// ProfileVector lays a director's per-role homogeneity out over vocab.
// Roles the director never filled, and the empty-role sentinel, are 0.
func ProfileVector(p *network.Profile, vocab []string) []float32 {
	vec := make([]float32, len(vocab))
	for i, role := range vocab {
		d, ok := p.Distribution(role)
		if !ok || d.Homogeneity < 0 {
			continue
		}
		vec[i] = float32(d.Homogeneity)
	}
	return vec
}

// Match is a director similar to the query.
type Match struct {
	DirectorID string  `json:"director_id"`
	Name       string  `json:"name"`
	Score      float32 `json:"score"`
}

// Indexer writes director profiles to a vector repository and queries it.
type Indexer struct {
	repo   Repository
	vocab  []string
	logger *log.Logger
}

// NewIndexer creates an Indexer over vocab. A nil logger discards output.
func NewIndexer(repo Repository, vocab []string, logger *log.Logger) *Indexer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Indexer{repo: repo, vocab: vocab, logger: logger}
}

// IndexProfiles upserts every profile with a defined homogeneity and
// returns how many were stored.
func (ix *Indexer) IndexProfiles(ctx context.Context, profiles []*network.Profile) (int, error) {
	if len(ix.vocab) == 0 {
		return 0, errors.New("empty role vocabulary")
	}
	if err := ix.repo.EnsureCollection(ctx, len(ix.vocab)); err != nil {
		return 0, errors.Wrap(err, "ensure collection")
	}

	var docs []Document
	for _, p := range profiles {
		if !p.HasHomogeneity() || p.Director == nil {
			continue
		}
		docs = append(docs, Document{
			ID:     PointID(p.Director.ID),
			Vector: ProfileVector(p, ix.vocab),
			Metadata: map[string]string{
				KeyDirectorID: p.Director.ID,
				KeyName:       p.Director.Name(),
				KeyNodeType:   p.Director.Tag(),
			},
		})
	}

	for start := 0; start < len(docs); start += upsertBatch {
		batch := docs[start:min(start+upsertBatch, len(docs))]
		if err := ix.repo.Upsert(ctx, batch); err != nil {
			return start, errors.Wrap(err, "upsert director vectors")
		}
	}
	ix.logger.Info("director vectors indexed", "count", len(docs), "dimensions", len(ix.vocab))
	return len(docs), nil
}

// Similar returns up to k directors closest to p, excluding p itself.
func (ix *Indexer) Similar(ctx context.Context, p *network.Profile, k int) ([]Match, error) {
	if !p.HasHomogeneity() {
		return nil, errors.Wrapf(ErrNoHomogeneity, "director %s", p.Director.ID)
	}
	results, err := ix.repo.Search(ctx, ProfileVector(p, ix.vocab), k+1)
	if err != nil {
		return nil, errors.Wrap(err, "search director vectors")
	}

	self := PointID(p.Director.ID)
	matches := make([]Match, 0, k)
	for _, r := range results {
		if r.ID == self || r.Metadata[KeyDirectorID] == p.Director.ID {
			continue
		}
		if len(matches) == k {
			break
		}
		matches = append(matches, Match{
			DirectorID: r.Metadata[KeyDirectorID],
			Name:       r.Metadata[KeyName],
			Score:      r.Score,
		})
	}
	return matches, nil
}
