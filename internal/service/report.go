package service

import (
	"encoding/csv"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/roster-import-api/internal/models"
	"github.com/rs/zerolog"
)

// reportEmitter writes the error and credentials CSV artifacts for one batch.
// Report emission is best-effort: a failed write is logged and the web path
// is simply omitted from the response, never failing the import itself.
type reportEmitter struct {
	dir     string
	webBase string
	log     zerolog.Logger
}

func newReportEmitter(dir, webBase string, log zerolog.Logger) *reportEmitter {
	return &reportEmitter{
		dir:     dir,
		webBase: webBase,
		log:     log.With().Str("component", "reports").Logger(),
	}
}

// WriteErrors emits the skipped-rows report (row_number, reason) and returns
// its web-accessible path, or "" when emission failed.
func (e *reportEmitter) WriteErrors(importErrors []models.ImportError) string {
	records := make([][]string, 0, len(importErrors)+1)
	records = append(records, []string{"row_number", "reason"})
	for _, ie := range importErrors {
		records = append(records, []string{strconv.Itoa(ie.Row), ie.Reason})
	}
	return e.write("bulk_errors", records)
}

// WriteCredentials emits the issued-credentials report. The file contains
// initial passwords and is meant for the uploading administrator only.
func (e *reportEmitter) WriteCredentials(creds []models.Credential) string {
	records := make([][]string, 0, len(creds)+1)
	records = append(records, []string{"username", "role", "full_name", "department", "initial_password", "source"})
	for _, c := range creds {
		records = append(records, []string{c.Username, c.Role, c.FullName, c.Department, c.InitialPassword, c.Source})
	}
	return e.write("bulk_credentials", records)
}

func (e *reportEmitter) write(kind string, records [][]string) string {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		e.log.Error().Err(err).Str("dir", e.dir).Msg("Failed to create reports directory")
		return ""
	}

	fname := kind + "_" + time.Now().Format("20060102_150405") + "_" + uuid.New().String()[:8] + ".csv"
	full := filepath.Join(e.dir, fname)

	f, err := os.Create(full)
	if err != nil {
		e.log.Error().Err(err).Str("file", full).Msg("Failed to create report file")
		return ""
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		e.log.Error().Err(err).Str("file", full).Msg("Failed to write report file")
		return ""
	}

	e.log.Info().Str("file", full).Int("rows", len(records)-1).Msg("Report written")
	return path.Join(e.webBase, fname)
}
