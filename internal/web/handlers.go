package web

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/JonMunkholm/sapclean/internal/core"
	"github.com/JonMunkholm/sapclean/internal/export"
	"github.com/JonMunkholm/sapclean/internal/logging"
	"github.com/JonMunkholm/sapclean/internal/report"
)

const (
	// multipartMemory is how much of an upload is held in memory before
	// spilling to a temp file.
	multipartMemory = 32 << 20

	defaultPreviewRows = 20
	maxPreviewRows     = 500
)

// sniffSize is how much of an upload is inspected for its type.
const sniffSize = 3072

// rejectedUploads are container formats sent by mistake instead of the
// unconverted text export. Subtypes such as xlsx match through their parent.
var rejectedUploads = []string{"application/zip", "application/pdf", "application/x-ole-storage"}

var contentTypes = map[export.Format]string{
	export.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	export.FormatCSV:  "text/csv; charset=utf-8",
}

// handleClean cleans an uploaded report and returns the cleaned table as
// an attachment. A workbook request falls back to CSV when the workbook
// cannot be produced; X-Export-Format names what was sent.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	format := s.format
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := export.ParseFormat(q)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		format = f
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer s.limiter.Release()

	run, err := s.cleanUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	var buf bytes.Buffer
	got, err := s.service.Render(r.Context(), &buf, run, format)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", contentTypes[got])
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": cleanedName(run.Source, got),
	}))
	h.Set("X-Export-Format", string(got))
	h.Set("X-Rows-Kept", strconv.Itoa(run.Result.Stats.KeptRows))
	h.Set("X-Rows-Deleted", strconv.Itoa(run.Result.Stats.Deleted()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("write cleaned report", "error", err)
	}
}

// previewResponse summarises a run without producing files.
type previewResponse struct {
	RunID         string             `json:"runId"`
	Source        string             `json:"source"`
	Anchor        report.Anchor      `json:"anchor"`
	AnchorFound   bool               `json:"anchorFound"`
	SourceHeaders []string           `json:"sourceHeaders"`
	Stats         report.Stats       `json:"stats"`
	Warnings      []string           `json:"warnings"`
	Columns       []string           `json:"columns"`
	Rows          [][]any            `json:"rows"`
	Rejections    []report.Rejection `json:"rejections"`
}

// handlePreview cleans an uploaded report and returns the counts, the
// header position and the first rows of both tables. ?rows=N sets how many
// rows are returned.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	limit, err := previewLimit(r.URL.Query().Get("rows"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	defer s.limiter.Release()

	run, err := s.cleanUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	res := run.Result

	resp := previewResponse{
		RunID:         run.ID,
		Source:        run.Source,
		Anchor:        res.Anchor,
		AnchorFound:   res.AnchorFound,
		SourceHeaders: res.SourceHeaders,
		Stats:         res.Stats,
		Warnings:      append([]string{}, res.Warnings...),
		Columns:       s.service.Schema().Names(),
		Rows:          make([][]any, 0, min(limit, len(res.Records))),
		Rejections:    append([]report.Rejection{}, res.Rejections[:min(limit, len(res.Rejections))]...),
	}
	for _, rec := range res.Records[:min(limit, len(res.Records))] {
		row := make([]any, len(rec.Fields))
		for i, f := range rec.Fields {
			row[i] = f.Value()
		}
		resp.Rows = append(resp.Rows, row)
	}

	writeJSON(w, http.StatusOK, resp)
}

// schemaResponse describes the layout the server cleans against.
type schemaResponse struct {
	Columns        report.Schema `json:"columns"`
	AnchorLabel    string        `json:"anchorLabel"`
	FallbackAnchor report.Anchor `json:"fallbackAnchor"`
	MarkerOffset   int           `json:"markerOffset"`
	Markers        []string      `json:"markers"`
	TextSentinels  []string      `json:"textSentinels"`
	Encoding       string        `json:"encoding"`
	DefaultFormat  export.Format `json:"defaultFormat"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	opts := s.service.Options()
	writeJSON(w, http.StatusOK, schemaResponse{
		Columns:        opts.Schema,
		AnchorLabel:    opts.AnchorLabel,
		FallbackAnchor: opts.FallbackAnchor,
		MarkerOffset:   opts.MarkerOffset,
		Markers:        opts.MarkerValues,
		TextSentinels:  opts.TextSentinels,
		Encoding:       opts.Encoding,
		DefaultFormat:  s.format,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"runs":   s.limiter.Status(),
	})
}

// cleanUpload reads the multipart "file" part and cleans it. The X-Run-ID
// header is set as soon as the run exists.
func (s *Server) cleanUpload(w http.ResponseWriter, r *http.Request) (*core.Run, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, errNoFile
		}
		return nil, fmt.Errorf("parse upload: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	br := bufio.NewReaderSize(file, sniffSize)
	head, _ := br.Peek(sniffSize)
	if err := checkUploadType(head); err != nil {
		return nil, err
	}

	run, err := s.service.Clean(r.Context(), header.Filename, br)
	if err != nil {
		return nil, err
	}
	w.Header().Set("X-Run-ID", run.ID)
	return run, nil
}

// checkUploadType rejects binary containers by their leading bytes.
func checkUploadType(head []byte) error {
	detected := mimetype.Detect(head)
	for mt := detected; mt != nil; mt = mt.Parent() {
		for _, rejected := range rejectedUploads {
			if mt.Is(rejected) {
				return fmt.Errorf("%w: %s", errUnsupportedUpload, detected.String())
			}
		}
	}
	return nil
}

// cleanedName builds the download name <stem>_cleaned.<format> from an
// uploaded file name, which may carry a client-side path.
func cleanedName(source string, format export.Format) string {
	base := path.Base(strings.ReplaceAll(source, `\`, "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" || stem == "." || stem == "/" {
		stem = "report"
	}
	return stem + "_cleaned." + string(format)
}

func previewLimit(q string) (int, error) {
	if q == "" {
		return defaultPreviewRows, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid rows parameter %q", q)
	}
	return min(n, maxPreviewRows), nil
}
