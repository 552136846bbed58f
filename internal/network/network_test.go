package network

import (
	"math"
	"testing"

	"github.com/efebarandurmaz/crewnet/internal/credits"
	"github.com/efebarandurmaz/crewnet/internal/crewindex"
)

func movie(director, id string, groups ...credits.CreditGroup) *credits.MovieRecord {
	return &credits.MovieRecord{
		MovieID:       id,
		DirectorID:    director,
		MovieType:     "Movie",
		IsFeatureFilm: true,
		Credits:       append([]credits.CreditGroup{group(credits.RoleDirectedBy, director)}, groups...),
	}
}

func group(role string, ids ...string) credits.CreditGroup {
	g := credits.CreditGroup{Role: role}
	for _, id := range ids {
		g.Members = append(g.Members, credits.CrewMember{ID: id, Name: "name-" + id})
	}
	return g
}

func index(records ...*credits.MovieRecord) *crewindex.Index {
	return crewindex.Build(records, crewindex.Policy{}, nil)
}

func directors(ids ...string) map[string]*credits.Director {
	out := make(map[string]*credits.Director, len(ids))
	for _, id := range ids {
		out[id] = &credits.Director{ID: id, FirstName: "First", LastName: id, Sex: "F", EthnicityRace: "X", Labels: "L"}
	}
	return out
}

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestHomogeneity(t *testing.T) {
	tests := []struct {
		name          string
		unique, total int
		want          float64
	}{
		{"single person", 1, 5, 1},
		{"single person once", 1, 1, 1},
		{"empty role", 3, 0, -1},
		{"half repeated", 2, 4, 0.5},
		{"never repeated", 4, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Homogeneity(tt.unique, tt.total); !almostEqual(got, tt.want) {
				t.Errorf("Homogeneity(%d, %d) = %v, want %v", tt.unique, tt.total, got, tt.want)
			}
		})
	}
}

func TestAverageHomogeneity(t *testing.T) {
	if got := AverageHomogeneity(nil); !math.IsNaN(got) {
		t.Errorf("empty average = %v, want NaN", got)
	}
	if got := AverageHomogeneity([]float64{1, 0, 0.5}); !almostEqual(got, 0.5) {
		t.Errorf("average = %v", got)
	}
}

func TestResolve(t *testing.T) {
	role, weight := Resolve([]Contribution{
		{Role: "Editor", Weight: 0.2},
		{Role: "Cast", Weight: 0.5},
		{Role: "Sound", Weight: 0.3},
	})
	if role != "Cast" || weight != 0.5 {
		t.Errorf("Resolve = %q %v, want Cast 0.5", role, weight)
	}

	role, _ = Resolve([]Contribution{
		{Role: "Music by", Weight: 0.5},
		{Role: "Art Direction by", Weight: 0.5},
	})
	if role != "Music by" {
		t.Errorf("tie resolved to %q, want first contribution", role)
	}

	if role, weight := Resolve(nil); role != "" || weight != 0 {
		t.Errorf("Resolve(nil) = %q %v", role, weight)
	}
}

func TestBuild_CofeatRates(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Film Editing by", "c1")),
		movie("d1", "m2", group("Film Editing by", "c1")),
		movie("d2", "m3", group("Sound Department", "c1")),
		movie("d3", "m4", group("Stunts", "c1")),
	)
	g := Build(idx, BuildOptions{})

	if g.NumEdges() != 3 {
		t.Fatalf("edges = %d, want 3", g.NumEdges())
	}
	sum := 0.0
	for _, d := range []string{"d1", "d2", "d3"} {
		rate, ok := g.CofeatRate(d, "c1")
		if !ok {
			t.Fatalf("missing edge %s-c1", d)
		}
		sum += rate
	}
	if !almostEqual(sum, 1) {
		t.Errorf("cofeat rates sum to %v, want 1", sum)
	}
	if rate, _ := g.CofeatRate("d1", "c1"); !almostEqual(rate, 0.5) {
		t.Errorf("d1 rate = %v, want 0.5", rate)
	}

	n, _ := g.Node("c1")
	if !n.IsCrew() || n.IsDirector() {
		t.Errorf("c1 flags = %b", n.Flags)
	}
}

func TestBuild_SelfLoops(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Produced by", "d1", "c1")),
	)

	g := Build(idx, BuildOptions{})
	if _, ok := g.Edge("d1", "d1"); ok {
		t.Error("self loop kept by default")
	}
	if g.SelfLoopsSkipped != 1 {
		t.Errorf("SelfLoopsSkipped = %d", g.SelfLoopsSkipped)
	}
	if _, ok := g.Edge("d1", "c1"); !ok {
		t.Error("missing d1-c1")
	}

	g = Build(idx, BuildOptions{IncludeSelfLoops: true})
	if _, ok := g.Edge("d1", "d1"); !ok {
		t.Error("self loop dropped despite IncludeSelfLoops")
	}
	n, _ := g.Node("d1")
	if !n.IsDirector() || !n.IsCrew() {
		t.Errorf("d1 flags = %b, want director and crew", n.Flags)
	}
}

func TestBuild_ReciprocalEdge(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Second Unit Director or Assistant Director", "d2")),
		movie("d2", "m2", group("Second Unit Director or Assistant Director", "d1")),
	)
	g := Build(idx, BuildOptions{})

	if g.NumEdges() != 1 {
		t.Fatalf("edges = %d, want one consolidated edge", g.NumEdges())
	}
	e, _ := g.Edge("d1", "d2")
	if !e.Reciprocal {
		t.Error("edge should be reciprocal")
	}
	if r, ok := g.CofeatRate("d1", "d2"); !ok || r != 1 {
		t.Errorf("CofeatRate(d1, d2) = %v %v", r, ok)
	}
	if r, ok := g.CofeatRate("d2", "d1"); !ok || r != 1 {
		t.Errorf("CofeatRate(d2, d1) = %v %v", r, ok)
	}
}

func TestAnnotate_EndToEnd(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Film Editing by", "c1"), group("Sound Department", "c3")),
		movie("d1", "m2", group("Film Editing by", "c2"), group("Sound Department", "c3")),
		movie("d2", "m3", group("Film Editing by", "c1")),
	)
	g := Build(idx, BuildOptions{})
	profiles := Annotate(g, idx, directors("d1", "d2"), nil)

	if len(profiles) != 2 || profiles[0].Director.ID != "d1" || profiles[1].Director.ID != "d2" {
		t.Fatalf("profiles not in director order: %v", profiles)
	}

	d1 := profiles[0]
	editing, ok := d1.Distribution("Film Editing by")
	if !ok {
		t.Fatal("d1 has no editing distribution")
	}
	if editing.Total != 2 || editing.Unique() != 2 || editing.Homogeneity != 0 {
		t.Errorf("editing: total=%d unique=%d h=%v", editing.Total, editing.Unique(), editing.Homogeneity)
	}
	sound, _ := d1.Distribution("Sound Department")
	if sound.Total != 2 || sound.Homogeneity != 1 {
		t.Errorf("sound: total=%d h=%v", sound.Total, sound.Homogeneity)
	}
	if !almostEqual(d1.AvgRoleHomogeneity, 0.5) {
		t.Errorf("d1 average = %v, want 0.5", d1.AvgRoleHomogeneity)
	}
	if d1.TotalMoviesDirected != 2 {
		t.Errorf("d1 movies = %d", d1.TotalMoviesDirected)
	}
	if top := d1.TopRoles(3); len(top) != 2 || top[0].Role != "Sound Department" {
		t.Errorf("top roles = %v", top)
	}

	n, _ := g.Node("d1")
	if n.Name != "First d1" || n.NodeType != "FXL" || !almostEqual(n.Size, 500) {
		t.Errorf("d1 node = %+v", n)
	}
	n, _ = g.Node("d2")
	if !almostEqual(n.Size, 1000) {
		t.Errorf("d2 size = %v, want 1000", n.Size)
	}
	n, _ = g.Node("c1")
	if n.NodeType != NodeTypeCrew || n.Size != CrewNodeSize || n.Name != "name-c1" {
		t.Errorf("c1 node = %+v", n)
	}

	tests := []struct {
		director, crew, role string
		weight               float64
	}{
		{"d1", "c1", "Film Editing by", 0.5},
		{"d1", "c2", "Film Editing by", 0.5},
		{"d1", "c3", "Sound Department", 1},
		{"d2", "c1", "Film Editing by", 1},
	}
	for _, tt := range tests {
		e, ok := g.Edge(tt.director, tt.crew)
		if !ok {
			t.Fatalf("missing edge %s-%s", tt.director, tt.crew)
		}
		if !e.Weighted || e.Role != tt.role || !almostEqual(e.Weight, tt.weight) {
			t.Errorf("%s-%s = %q %v (weighted=%v), want %q %v",
				tt.director, tt.crew, e.Role, e.Weight, e.Weighted, tt.role, tt.weight)
		}
	}
}

func TestAnnotate_MaxWeightAcrossRoles(t *testing.T) {
	// c1 edits once out of two editors and mixes sound on both movies; the
	// sound share wins the edge.
	idx := index(
		movie("d1", "m1", group("Film Editing by", "c1"), group("Sound Department", "c1")),
		movie("d1", "m2", group("Film Editing by", "c2"), group("Sound Department", "c1")),
	)
	g := Build(idx, BuildOptions{})
	Annotate(g, idx, directors("d1"), nil)

	e, _ := g.Edge("d1", "c1")
	if e.Role != "Sound Department" || e.Weight != 1 {
		t.Errorf("edge = %q %v, want Sound Department 1", e.Role, e.Weight)
	}
}

func TestAnnotate_MissingIndexEntry(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Film Editing by", "c1"), group("Music by", "c2")),
	)
	g := Build(idx, BuildOptions{})
	delete(idx.Crew, "c2")

	profiles := Annotate(g, idx, directors("d1"), nil)
	if _, ok := profiles[0].Distribution("Music by"); ok {
		t.Error("crew missing from index must contribute no roles")
	}
	e, _ := g.Edge("d1", "c2")
	if e.Weighted {
		t.Error("edge without contributions should stay unweighted")
	}
	if e, _ := g.Edge("d1", "c1"); !e.Weighted {
		t.Error("d1-c1 should be weighted")
	}
}

func TestAnnotate_NoRolesIsNaN(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Music by", "c1")),
	)
	g := Build(idx, BuildOptions{})
	delete(idx.Crew, "c1")

	profiles := Annotate(g, idx, directors("d1", "d9"), nil)
	if len(profiles) != 2 {
		t.Fatalf("profiles = %d", len(profiles))
	}
	for _, p := range profiles {
		if p.HasHomogeneity() {
			t.Errorf("%s: average = %v, want NaN", p.Director.ID, p.AvgRoleHomogeneity)
		}
	}
	if profiles[1].TotalMoviesDirected != -1 {
		t.Errorf("unknown director movies = %d, want -1", profiles[1].TotalMoviesDirected)
	}
	n, _ := g.Node("d1")
	if n.Size != 0 {
		t.Errorf("size = %v, want 0 for undefined homogeneity", n.Size)
	}
	if _, ok := g.Node("d9"); ok {
		t.Error("director outside the graph must not get a node")
	}
}

func TestAnnotate_DirectorWithoutMetadata(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Music by", "c1")),
	)
	g := Build(idx, BuildOptions{})
	Annotate(g, idx, nil, nil)

	n, _ := g.Node("d1")
	if n.NodeType != NodeTypeDirector {
		t.Errorf("node type = %q, want %q", n.NodeType, NodeTypeDirector)
	}
}

func TestComputeStats(t *testing.T) {
	idx := index(
		movie("d1", "m1", group("Music by", "c1")),
		movie("d2", "m2", group("Music by", "c2")),
		movie("d3", "m3", group("Music by", "d1")),
	)
	g := Build(idx, BuildOptions{})
	Annotate(g, idx, directors("d1", "d2", "d3"), nil)

	s := ComputeStats(g)
	if s.Nodes != 5 || s.Edges != 3 {
		t.Errorf("nodes=%d edges=%d", s.Nodes, s.Edges)
	}
	if s.Directors != 3 || s.Crew != 3 || s.Dual != 1 {
		t.Errorf("directors=%d crew=%d dual=%d", s.Directors, s.Crew, s.Dual)
	}
	if s.Components != 2 || s.Connected {
		t.Errorf("components=%d connected=%v", s.Components, s.Connected)
	}
	if s.WeightedEdges != 3 {
		t.Errorf("weighted = %d", s.WeightedEdges)
	}
}
