package conductor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseWrapped(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  Command
		isErr bool
	}{
		{
			name: "quoted string arg",
			in:   `submit("Yes")`,
			want: Command{API: "submit", Args: []any{"Yes"}},
		},
		{
			name: "list arg",
			in:   `submit(["user-service", "post-storage-service"])`,
			want: Command{API: "submit", Args: []any{[]any{"user-service", "post-storage-service"}}},
		},
		{
			name: "no args",
			in:   `submit()`,
			want: Command{API: "submit"},
		},
		{
			name: "unquoted arg kept as raw string",
			in:   `submit(Yes)`,
			want: Command{API: "submit", Args: []any{"Yes"}},
		},
		{
			name: "code fence with language tag",
			in:   "```python\nsubmit(\"No\")\n```",
			want: Command{API: "submit", Args: []any{"No"}},
		},
		{
			name: "inline backticks",
			in:   "`submit(\"No\")`",
			want: Command{API: "submit", Args: []any{"No"}},
		},
		{
			name: "other api name",
			in:   `get_logs("frontend")`,
			want: Command{API: "get_logs", Args: []any{"frontend"}},
		},
		{
			name:  "bare string",
			in:    "Yes",
			isErr: true,
		},
		{
			name:  "empty",
			in:    "",
			isErr: true,
		},
		{
			name:  "name with spaces",
			in:    `do something("x")`,
			isErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWrapped(tt.in)
			if tt.isErr {
				if err == nil {
					t.Fatalf("ParseWrapped(%q) = %+v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWrapped(%q): %v", tt.in, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseWrapped(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
