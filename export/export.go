// Package export writes parsed channel results to disk as JSON, CSV, or
// XLSX, and optionally mirrors the files to Cloud Storage.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"telegram-parser/pkg/channel"
)

// filenameUnsafe matches the characters stripped from channel names before
// they become filenames.
var filenameUnsafe = regexp.MustCompile(`[\\/:*?"<>|]`)

func sanitizeFilename(name string) string {
	return filenameUnsafe.ReplaceAllString(name, "_")
}

// Exporter writes one result file per parsed channel into a directory.
type Exporter struct {
	dir    string
	format string
	logger *slog.Logger
}

// New creates an exporter writing files of the given format into dir,
// creating the directory if needed. Unrecognized formats fall back to JSON
// at export time.
func New(dir, format string, logger *slog.Logger) (*Exporter, error) {
	if dir == "" {
		dir = "output"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &Exporter{dir: dir, format: strings.ToLower(format), logger: logger}, nil
}

// Export writes res to a file named after the channel and the current time.
// CSV and XLSX exports fall back to JSON when they cannot represent the
// data, so a parse that produced anything always leaves a file behind.
func (e *Exporter) Export(res *channel.Result, channelName string) (string, error) {
	safe := sanitizeFilename(channelName)
	stamp := time.Now().Format("20060102_150405")

	switch e.format {
	case "", "json":
		return e.exportJSON(res, safe, stamp)
	case "csv":
		return e.exportCSV(res, safe, stamp)
	case "xlsx":
		return e.exportXLSX(res, safe, stamp)
	default:
		e.logger.Warn("unknown export format, defaulting to JSON", "format", e.format)
		return e.exportJSON(res, safe, stamp)
	}
}

func (e *Exporter) exportJSON(res *channel.Result, name, stamp string) (string, error) {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.json", name, stamp))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		// A channel name can still produce a path the filesystem rejects.
		// Retry once under a neutral name rather than losing the data.
		fallback := filepath.Join(e.dir, fmt.Sprintf("export_%s.json", stamp))
		e.logger.Error("writing export failed, retrying with fallback name",
			"path", path, "fallback", fallback, "error", err)
		if fbErr := os.WriteFile(fallback, data, 0o600); fbErr != nil {
			return "", fmt.Errorf("write export: %w", fbErr)
		}
		path = fallback
	}

	e.logger.Info("exported JSON", "path", path, "posts", len(res.Posts))
	return path, nil
}

func (e *Exporter) exportCSV(res *channel.Result, name, stamp string) (string, error) {
	if len(res.Posts) == 0 {
		e.logger.Warn("no posts to export as CSV, writing JSON instead", "channel", name)
		return e.exportJSON(res, name, stamp)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.csv", name, stamp))
	f, err := os.Create(path)
	if err != nil {
		e.logger.Error("creating CSV failed, falling back to JSON", "path", path, "error", err)
		return e.exportJSON(res, name, stamp)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(postColumns); err != nil {
		return "", fmt.Errorf("write CSV header: %w", err)
	}
	for i := range res.Posts {
		if err := w.Write(flattenPost(&res.Posts[i])); err != nil {
			return "", fmt.Errorf("write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush CSV: %w", err)
	}

	// CSV cannot carry the channel header, so it rides along as JSON.
	infoPath := filepath.Join(e.dir, fmt.Sprintf("%s_info_%s.json", name, stamp))
	if infoData, err := json.MarshalIndent(res.Channel, "", "  "); err == nil {
		if err := os.WriteFile(infoPath, infoData, 0o600); err != nil {
			e.logger.Warn("writing channel info failed", "path", infoPath, "error", err)
		}
	}

	e.logger.Info("exported CSV", "path", path, "posts", len(res.Posts))
	return path, nil
}
