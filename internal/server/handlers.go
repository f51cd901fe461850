package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/textart/pkg/buildinfo"
	"github.com/matzehuels/textart/pkg/errors"
	"github.com/matzehuels/textart/pkg/observability"
	"github.com/matzehuels/textart/pkg/palette"
	"github.com/matzehuels/textart/pkg/pipeline"
	"github.com/matzehuels/textart/pkg/sink"
)

// Response headers describing a conversion.
const (
	headerRunID   = "X-Textart-Run-Id"
	headerCache   = "X-Textart-Cache"
	headerColumns = "X-Textart-Columns"
	headerRows    = "X-Textart-Rows"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// paletteInfo describes one preset in GET /v1/palettes.
type paletteInfo struct {
	Name        string `json:"name"`
	Glyphs      string `json:"glyphs"`
	Levels      int    `json:"levels"`
	Description string `json:"description"`
	Default     bool   `json:"default,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handlePalettes(w http.ResponseWriter, r *http.Request) {
	names := palette.Names()
	out := make([]paletteInfo, 0, len(names))
	for _, name := range names {
		p, err := palette.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, paletteInfo{
			Name:        name,
			Glyphs:      p.String(),
			Levels:      p.Len(),
			Description: palette.Describe(name),
			Default:     name == palette.DefaultName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTextArt(w http.ResponseWriter, r *http.Request) {
	opts, format, err := parseOptions(r, s.cfg.MaxDimension)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, r, errors.New(errors.ErrCodeImageTooLarge, "request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.runner.Execute(ctx, body, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cacheStatus := "miss"
	if result.CacheInfo.ArtHit {
		cacheStatus = "hit"
	}
	h := w.Header()
	h.Set("Content-Type", format.ContentType())
	h.Set(headerRunID, result.RunID.String())
	h.Set(headerCache, cacheStatus)
	h.Set(headerColumns, strconv.Itoa(result.Stats.Columns))
	h.Set(headerRows, strconv.Itoa(result.Stats.Rows))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[string(format)])
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeErrorStatus(w, r, http.StatusNotFound, errors.ErrCodeInvalidInput, "no route for "+r.URL.Path)
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeErrorStatus(w, r, http.StatusMethodNotAllowed, errors.ErrCodeInvalidInput, r.Method+" not allowed on "+r.URL.Path)
}

// parseOptions reads pipeline options from the query string. Exactly one
// format is rendered per request. max_dimension may lower the server's
// ceiling but never raise it.
func parseOptions(r *http.Request, maxDimension int) (pipeline.Options, sink.Format, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Palette:       q.Get("palette"),
		CustomPalette: q.Get("chars"),
		Filter:        q.Get("filter"),
		Luma:          q.Get("luma"),
		Alpha:         q.Get("alpha"),
	}

	var err error
	if opts.Width, err = intParam(q.Get("width"), "width"); err != nil {
		return opts, "", err
	}
	if opts.MaxDimension, err = intParam(q.Get("max_dimension"), "max_dimension"); err != nil {
		return opts, "", err
	}
	switch {
	case opts.MaxDimension > maxDimension:
		return opts, "", errors.New(errors.ErrCodeImageTooLarge, "max_dimension %d exceeds the server limit of %d", opts.MaxDimension, maxDimension)
	case opts.MaxDimension == 0:
		opts.MaxDimension = maxDimension
	}
	if v := q.Get("aspect"); v != "" {
		if opts.AspectCorrection, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, "", errors.New(errors.ErrCodeInvalidOption, "aspect must be a number, got %q", v)
		}
	}
	if v := q.Get("invert"); v != "" {
		if opts.Invert, err = strconv.ParseBool(v); err != nil {
			return opts, "", errors.New(errors.ErrCodeInvalidOption, "invert must be a boolean, got %q", v)
		}
	}
	opts.Refresh = q.Get("refresh") == "true"

	format := sink.FormatText
	if v := q.Get("format"); v != "" {
		if format, err = sink.ParseFormat(v); err != nil {
			return opts, "", err
		}
	} else if accept := r.Header.Get("Accept"); accept != "" {
		format = negotiate(accept)
	}
	opts.Formats = []string{string(format)}
	return opts, format, nil
}

func intParam(v, name string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidOption, "%s must be an integer, got %q", name, v)
	}
	return n, nil
}

// negotiate picks a format from an Accept header, defaulting to text.
func negotiate(accept string) sink.Format {
	for _, part := range strings.Split(accept, ",") {
		mediaType := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		for _, f := range sink.Formats {
			if strings.HasPrefix(f.ContentType(), mediaType) {
				return f
			}
		}
	}
	return sink.FormatText
}

// writeError maps err to a status code and a JSON body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)
	msg := errors.UserMessage(err)
	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "code", code, "error", err)
	}
	s.writeErrorStatus(w, r, status, code, msg)
}

func (s *Server) writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, code errors.Code, msg string) {
	writeJSON(w, status, errorResponse{
		Code:      code,
		Message:   msg,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
