package config

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"telegram-parser/pkg/channel"
)

// LoadChannels reads a channel list from a JSON or CSV file, keyed by the
// file extension. Entries without any usable identifier are logged and
// skipped.
func LoadChannels(path string, logger *slog.Logger) ([]channel.Target, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadChannelsJSON(path, logger)
	case ".csv":
		return loadChannelsCSV(path, logger)
	default:
		return nil, fmt.Errorf("unsupported channel file format: %s", filepath.Ext(path))
	}
}

// loadChannelsJSON accepts either a bare array of targets or an object with
// a "channels" key holding one.
func loadChannelsJSON(path string, logger *slog.Logger) ([]channel.Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read channel file: %w", err)
	}

	var targets []channel.Target
	if err := json.Unmarshal(data, &targets); err != nil {
		var wrapped struct {
			Channels []channel.Target `json:"channels"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("parse channel file %s: %w", path, err)
		}
		targets = wrapped.Channels
	}

	valid := keepIdentified(targets, logger)
	logger.Info("loaded channels", "path", path, "count", len(valid))
	return valid, nil
}

// loadChannelsCSV expects a header row naming any of the target fields.
func loadChannelsCSV(path string, logger *slog.Logger) ([]channel.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read channel file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse channel file %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	header := rows[0]
	var targets []channel.Target
	for _, row := range rows[1:] {
		var t channel.Target
		for i, col := range header {
			if i >= len(row) {
				break
			}
			v := strings.TrimSpace(row[i])
			switch strings.ToLower(strings.TrimSpace(col)) {
			case "name":
				t.Name = v
			case "username":
				t.Username = v
			case "id":
				t.ID = v
			case "url":
				t.URL = v
			}
		}
		targets = append(targets, t)
	}

	valid := keepIdentified(targets, logger)
	logger.Info("loaded channels", "path", path, "count", len(valid))
	return valid, nil
}

func keepIdentified(targets []channel.Target, logger *slog.Logger) []channel.Target {
	valid := targets[:0]
	for _, t := range targets {
		if t.Identifier() == "" {
			logger.Warn("skipping channel entry with no identifier")
			continue
		}
		valid = append(valid, t)
	}
	return valid
}
