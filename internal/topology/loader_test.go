package topology

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSnapshot(t *testing.T, dir, namespace, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, namespace+".csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadParsesHeaderAndEdges(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "social-network", "source,target,weight\nfrontend,user-service,1\nuser-service,user-db,1\n")

	g, err := NewLoader(dir).Load("social-network")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2", g.EdgeCount())
	}
	if !g.HasNode("frontend") || !g.HasNode("user-db") {
		t.Fatalf("nodes missing: %v", g.Nodes())
	}
	// Header row must not become an edge.
	if g.HasNode("source") {
		t.Fatal("header row parsed as an edge")
	}
}

func TestLoadMissingSnapshotFailsSoft(t *testing.T) {
	g, err := NewLoader(t.TempDir()).Load("nowhere")
	if err != nil {
		t.Fatalf("missing snapshot must not error, got %v", err)
	}
	if g.NodeCount() != 0 {
		t.Fatalf("want empty graph, got %d nodes", g.NodeCount())
	}
}

func TestLoadSkipsShortRows(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "ns", "source,target\na,b\njunk\nb,c\n")

	g, err := NewLoader(dir).Load("ns")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.EdgeCount() != 2 {
		t.Fatalf("EdgeCount = %d, want 2 (short row skipped)", g.EdgeCount())
	}
}

func TestSnapshotPath(t *testing.T) {
	l := NewLoader("/data/topologies")
	want := filepath.Join("/data/topologies", "hotel-reservation.csv")
	if got := l.SnapshotPath("hotel-reservation"); got != want {
		t.Errorf("SnapshotPath = %q, want %q", got, want)
	}
}
