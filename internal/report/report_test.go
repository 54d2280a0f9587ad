package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFlattenLowersStageMaps(t *testing.T) {
	got := Flatten(map[string]any{
		"Detection": map[string]any{"success": true, "accuracy": 1.0},
		"TTD":       3.0,
	})
	want := map[string]any{
		"Detection.success":  true,
		"Detection.accuracy": 1.0,
		"TTD":                3.0,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Flatten mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteCSVUnionHeaderAndEmptyCells(t *testing.T) {
	rows := []Row{
		{ProblemID: "p1", RunID: "r1", Fields: map[string]any{
			"Detection.success": true,
			"TTD":               3.0,
		}},
		{ProblemID: "p2", RunID: "r2", Fields: map[string]any{
			"Detection.success":     false,
			"Localization.accuracy": 0.5,
		}},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := [][]string{
		{"problem_id", "run_id", "Detection.success", "Localization.accuracy", "TTD"},
		{"p1", "r1", "true", "", "3.00"},
		{"p2", "r2", "false", "0.50", ""},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSummaryVerdicts(t *testing.T) {
	var buf bytes.Buffer
	RenderSummary(&buf, []Row{
		{ProblemID: "scale_pod_zero_social_net", RunID: "r1", Fields: map[string]any{
			"NOOP Detection.success": true,
			"Detection.success":      true,
			"Localization.success":   false,
			"TTD":                    42.0,
		}},
	})

	out := buf.String()
	if !strings.Contains(out, "scale_pod_zero_social_net") {
		t.Fatalf("problem ID missing:\n%s", out)
	}
	if !strings.Contains(out, "42.00") {
		t.Fatalf("TTD missing:\n%s", out)
	}
	// No mitigation stage ran, so its column reads "-".
	if !strings.Contains(out, "-") {
		t.Fatalf("missing stage placeholder absent:\n%s", out)
	}
}
