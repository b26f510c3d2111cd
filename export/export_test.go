package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"telegram-parser/pkg/channel"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResult() *channel.Result {
	reactions := 8
	return &channel.Result{
		Channel: channel.Info{
			Title:       "Test Channel",
			Subscribers: "12.5K",
			Username:    "testchan",
			URL:         "https://t.me/testchan",
		},
		Posts: []channel.Post{
			{
				ID:        "101",
				Date:      "14:20",
				Timestamp: 1718020800,
				Datetime:  "2024-06-10T12:00:00Z",
				Content:   "hello, world",
				Views:     "1.2K",
				Reactions: &reactions,
				Comments:  "12",
				Media: []channel.Media{
					{Type: channel.MediaPhoto, URL: "https://cdn.example.org/a.jpg"},
					{Type: channel.MediaDocument, Name: "report.pdf"},
				},
				ForwardedFrom: "Origin Channel",
			},
			{ID: "102", Content: "second post"},
		},
		ParsedAt: "2024-06-10T12:05:00Z",
	}
}

func TestExportJSONRoundTrip(t *testing.T) {
	e, err := New(t.TempDir(), "json", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path, err := e.Export(sampleResult(), "Test Channel")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("Expected a .json file, got %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read export: %v", err)
	}
	var got channel.Result
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Export is not valid JSON: %v", err)
	}
	if got.Channel.Title != "Test Channel" {
		t.Errorf("Unexpected title: %q", got.Channel.Title)
	}
	if len(got.Posts) != 2 {
		t.Errorf("Expected 2 posts, got %d", len(got.Posts))
	}
	if got.Posts[0].Reactions == nil || *got.Posts[0].Reactions != 8 {
		t.Errorf("Reactions did not survive the round trip: %v", got.Posts[0].Reactions)
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	e, err := New(dir, "csv", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path, err := e.Export(sampleResult(), "Test Channel")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasSuffix(path, ".csv") {
		t.Fatalf("Expected a .csv file, got %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Export is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d rows", len(rows))
	}
	if rows[0][0] != "id" || rows[0][len(rows[0])-1] != "error" {
		t.Errorf("Unexpected header: %v", rows[0])
	}
	if rows[1][0] != "101" {
		t.Errorf("Expected first post id 101, got %q", rows[1][0])
	}
	mediaCol := -1
	for i, col := range rows[0] {
		if col == "media" {
			mediaCol = i
		}
	}
	if mediaCol < 0 {
		t.Fatal("No media column in header")
	}
	want := "https://cdn.example.org/a.jpg; report.pdf"
	if rows[1][mediaCol] != want {
		t.Errorf("Expected media cell %q, got %q", want, rows[1][mediaCol])
	}

	// The channel header rides along as a JSON side file.
	infos, err := filepath.Glob(filepath.Join(dir, "*_info_*.json"))
	if err != nil || len(infos) != 1 {
		t.Errorf("Expected one channel info file, got %v (err %v)", infos, err)
	}
}

func TestExportCSVWithoutPostsFallsBackToJSON(t *testing.T) {
	e, err := New(t.TempDir(), "csv", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res := &channel.Result{Channel: channel.Info{Title: "Empty"}, ParsedAt: "2024-06-10T12:05:00Z"}
	path, err := e.Export(res, "Empty")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("Expected JSON fallback for an empty channel, got %q", path)
	}
}

func TestExportUnknownFormatFallsBackToJSON(t *testing.T) {
	e, err := New(t.TempDir(), "parquet", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path, err := e.Export(sampleResult(), "Test Channel")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasSuffix(path, ".json") {
		t.Errorf("Expected JSON for an unknown format, got %q", path)
	}
}

func TestExportXLSX(t *testing.T) {
	e, err := New(t.TempDir(), "xlsx", testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	path, err := e.Export(sampleResult(), "Test Channel")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if !strings.HasSuffix(path, ".xlsx") {
		t.Errorf("Expected an .xlsx file, got %q", path)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("Expected a non-empty workbook at %q (err %v)", path, err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a/b\\c", "a_b_c"},
		{`news: "today"?`, "news_ _today__"},
		{"<ch>|x*", "_ch__x_"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlattenPostEmptyFields(t *testing.T) {
	row := flattenPost(&channel.Post{ID: "7"})
	if len(row) != len(postColumns) {
		t.Fatalf("Row width %d does not match %d columns", len(row), len(postColumns))
	}
	if row[0] != "7" {
		t.Errorf("Expected id in first cell, got %q", row[0])
	}
	for i := 1; i < len(row); i++ {
		if row[i] != "" {
			t.Errorf("Expected empty cell for %s, got %q", postColumns[i], row[i])
		}
	}
}
