package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"SessionScope/internal/auth"
	"SessionScope/internal/model"
	"SessionScope/internal/query"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	defaultTopLimit = 10
	maxTopLimit     = 50
	exportCap       = 10000
	exportPreview   = 10
)

type sessionListResponse struct {
	Data   []model.SessionRecord `json:"data"`
	Total  uint64                `json:"total"`
	Page   int                   `json:"page"`
	Size   int                   `json:"size"`
	Source query.Source          `json:"source"`
}

type statsResponse struct {
	model.Stats
	Source query.Source `json:"source"`
}

type timeRangeResponse struct {
	model.TimeRange
	Source query.Source `json:"source"`
}

type exportResponse struct {
	Data   []model.SessionRecord `json:"data"`
	Total  uint64                `json:"total"`
	Source query.Source          `json:"source"`
}

type exportPreviewResponse struct {
	Message      string                `json:"message"`
	TotalRecords int                   `json:"total_records"`
	Data         []model.SessionRecord `json:"data"`
	Source       query.Source          `json:"source"`
}

// filterFromQuery builds the session filter from the shared query
// parameters of the list and export endpoints.
func filterFromQuery(r *http.Request) model.SessionFilter {
	q := r.URL.Query()
	return model.SessionFilter{
		StartTime: q.Get("start_time"),
		EndTime:   q.Get("end_time"),
		SrcIP:     q.Get("src_ip"),
		DstIP:     q.Get("dst_ip"),
		Protocol:  q.Get("protocol"),
		AppName:   q.Get("app_name"),
	}
}

// intParam parses an optional integer query parameter with bounds.
// Absent means the default; present but unparsable or out of bounds is
// a validation error. A max of 0 means unbounded above.
func intParam(r *http.Request, name string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || (max > 0 && n > max) {
		if max > 0 {
			return 0, fmt.Errorf("%s must be an integer between %d and %d", name, min, max)
		}
		return 0, fmt.Errorf("%s must be an integer of at least %d", name, min)
	}
	return n, nil
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 1, 1, 0)
	if err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := intParam(r, "size", defaultPageSize, 1, maxPageSize)
	if err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	offset := (page - 1) * size
	result, source := s.gateway.ListSessions(r.Context(), filterFromQuery(r), size, offset)

	writeJSON(w, http.StatusOK, sessionListResponse{
		Data:   result.Data,
		Total:  result.Total,
		Page:   page,
		Size:   size,
		Source: source,
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, source := s.gateway.Stats(r.Context())
	writeJSON(w, http.StatusOK, statsResponse{Stats: stats, Source: source})
}

func (s *Server) topIPsHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultTopLimit, 1, maxTopLimit)
	if err != nil {
		auth.WriteDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, _ := s.gateway.TopIPs(r.Context(), limit)
	if entries == nil {
		entries = []model.TopIP{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) protocolsHandler(w http.ResponseWriter, r *http.Request) {
	entries, _ := s.gateway.ProtocolStats(r.Context())
	if entries == nil {
		entries = []model.ProtocolStat{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) timeRangeHandler(w http.ResponseWriter, r *http.Request) {
	tr, source := s.gateway.TimeRange(r.Context())
	writeJSON(w, http.StatusOK, timeRangeResponse{TimeRange: tr, Source: source})
}

func (s *Server) exportHandler(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "csv"
	}
	switch format {
	case "csv", "json", "xlsx":
	default:
		auth.WriteDetail(w, http.StatusBadRequest, "format must be one of csv, json, xlsx")
		return
	}

	// Export ignores caller paging; the cap bounds the result set.
	result, source := s.gateway.ListSessions(r.Context(), filterFromQuery(r), exportCap, 0)
	if result.Data == nil {
		result.Data = []model.SessionRecord{}
	}

	if format == "json" {
		writeJSON(w, http.StatusOK, exportResponse{
			Data:   result.Data,
			Total:  result.Total,
			Source: source,
		})
		return
	}

	// No file generation for csv/xlsx; return a bounded preview with
	// the record count.
	preview := result.Data
	if len(preview) > exportPreview {
		preview = preview[:exportPreview]
	}
	writeJSON(w, http.StatusOK, exportPreviewResponse{
		Message:      fmt.Sprintf("prepared %s export of %d records", format, len(result.Data)),
		TotalRecords: len(result.Data),
		Data:         preview,
		Source:       source,
	})
}
