package progress

import (
	"bytes"
	"strings"
	"testing"

	"file-indexer/internal/indexer"
)

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		snap indexer.ProgressSnapshot
		want string
	}{
		{
			name: "streaming",
			snap: indexer.ProgressSnapshot{Processed: 12345, Rate: 1500.7},
			want: "Processing: 12,345 items [1,500/s]",
		},
		{
			name: "streaming with errors",
			snap: indexer.ProgressSnapshot{Processed: 10, Errors: 2},
			want: "Processing: 12 items, 2 errors [0/s]",
		},
		{
			name: "batch with total",
			snap: indexer.ProgressSnapshot{Processed: 500, Total: 2000, Rate: 10},
			want: "Processing: 500/2,000 (25.0%) [10/s]",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Format(tt.snap); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReporterThrottlesPlainOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := New(&buf)
	if r.tty {
		t.Fatal("Expected a buffer not to be treated as a terminal")
	}

	for i := int64(1); i <= 50; i++ {
		r.Update(indexer.ProgressSnapshot{Processed: i})
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 throttled line, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Processing: 1 items [0/s]" {
		t.Errorf("Unexpected first line %q", lines[0])
	}

	r.Finish(indexer.ProgressSnapshot{Processed: 50})
	if !strings.HasSuffix(buf.String(), "Processing: 50 items [0/s]\n") {
		t.Errorf("Expected final line to be rendered, got %q", buf.String())
	}
}
