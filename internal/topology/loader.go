package topology

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"stratus/internal/logging"
)

// Loader reads topology snapshots from a directory of per-namespace CSV
// files. Each file is named <namespace>.csv with a header row followed by
// source,target[,weight] edge rows. Weight is always treated as 1.
type Loader struct {
	Dir string
}

// NewLoader returns a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// SnapshotPath returns the CSV path for a namespace.
func (l *Loader) SnapshotPath(namespace string) string {
	return filepath.Join(l.Dir, namespace+".csv")
}

// Load reads the snapshot for the namespace. A missing snapshot is not an
// error: localization degrades to exact-match-only scoring on an empty
// graph, so we log and return one.
func (l *Loader) Load(namespace string) (*Graph, error) {
	log := logging.New("topology")
	path := l.SnapshotPath(namespace)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("no topology snapshot for namespace", "namespace", namespace, "path", path)
			fmt.Printf("No snapshot of the topology of %s currently exists.\n", namespace)
			return NewGraph(), nil
		}
		return nil, fmt.Errorf("open topology snapshot %s: %w", path, err)
	}
	defer f.Close()

	g, err := parseEdges(f)
	if err != nil {
		return nil, fmt.Errorf("parse topology snapshot %s: %w", path, err)
	}
	log.Debug("topology snapshot loaded",
		"namespace", namespace, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g, nil
}

// parseEdges reads header + edge rows. Rows with fewer than two fields are
// skipped rather than rejected; snapshots come from an external exporter and
// occasionally carry trailing junk.
func parseEdges(r io.Reader) (*Graph, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	g := NewGraph()
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false // header row
			continue
		}
		if len(row) >= 2 {
			g.AddEdge(row[0], row[1])
		}
	}
	return g, nil
}
