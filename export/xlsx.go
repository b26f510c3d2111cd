package export

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"telegram-parser/pkg/channel"
)

// exportXLSX writes a workbook with three sheets: the flattened posts, the
// channel header, and run metadata.
func (e *Exporter) exportXLSX(res *channel.Result, name, stamp string) (string, error) {
	if len(res.Posts) == 0 {
		e.logger.Warn("no posts to export as XLSX, writing JSON instead", "channel", name)
		return e.exportJSON(res, name, stamp)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("%s_%s.xlsx", name, stamp))
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("closing workbook failed", "error", err)
		}
	}()

	const postsSheet = "Posts"
	if err := f.SetSheetName(f.GetSheetName(0), postsSheet); err != nil {
		return e.fallbackJSON(res, name, stamp, err)
	}
	if err := writeRow(f, postsSheet, 1, postColumns); err != nil {
		return e.fallbackJSON(res, name, stamp, err)
	}
	for i := range res.Posts {
		if err := writeRow(f, postsSheet, i+2, flattenPost(&res.Posts[i])); err != nil {
			return e.fallbackJSON(res, name, stamp, err)
		}
	}

	const infoSheet = "Channel Info"
	if _, err := f.NewSheet(infoSheet); err == nil {
		info := res.Channel
		writeSheetPairs(f, infoSheet, [][2]string{
			{"title", info.Title},
			{"description", info.Description},
			{"subscribers", info.Subscribers},
			{"username", info.Username},
			{"url", info.URL},
			{"error", info.Error},
		})
	}

	const metaSheet = "Metadata"
	if _, err := f.NewSheet(metaSheet); err == nil {
		writeSheetPairs(f, metaSheet, [][2]string{
			{"parsed_at", res.ParsedAt},
			{"total_posts", strconv.Itoa(len(res.Posts))},
			{"export_timestamp", stamp},
		})
	}

	if err := f.SaveAs(path); err != nil {
		return e.fallbackJSON(res, name, stamp, err)
	}

	e.logger.Info("exported XLSX", "path", path, "posts", len(res.Posts))
	return path, nil
}

func (e *Exporter) fallbackJSON(res *channel.Result, name, stamp string, cause error) (string, error) {
	e.logger.Error("XLSX export failed, falling back to JSON", "channel", name, "error", cause)
	return e.exportJSON(res, name, stamp)
}

// writeRow fills one 1-based row with values starting at column A.
func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// writeSheetPairs writes a header row of keys and one row of values.
func writeSheetPairs(f *excelize.File, sheet string, pairs [][2]string) {
	keys := make([]string, len(pairs))
	values := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p[0]
		values[i] = p[1]
	}
	if err := writeRow(f, sheet, 1, keys); err != nil {
		return
	}
	_ = writeRow(f, sheet, 2, values)
}
