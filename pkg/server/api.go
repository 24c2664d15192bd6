package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quizhub/aggregator/pkg/catalog"
	"quizhub/aggregator/pkg/gateway"
	"quizhub/aggregator/pkg/probe/history"
)

// maxHistoryLimit caps /api/availability/history responses.
const maxHistoryLimit = 1000

// MsgBadRequest is the envelope error for invalid API parameters.
const MsgBadRequest = "Invalid request"

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeData(w, s.client.ListProviders(r.Context()))
}

// handleSeries aggregates every provider's series and applies the q, price
// and sort parameters. provider restricts the batch to providers whose name
// or api matches.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	price, err := catalog.ParsePriceFilter(q.Get("price"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	order, err := catalog.ParseSortOrder(q.Get("sort"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	providers := s.client.ListProviders(r.Context())
	providers = catalog.SelectProviders(providers, q.Get("provider"))

	series := s.aggregator.FetchAll(r.Context(), providers)
	writeData(w, catalog.Filter(series, catalog.FilterOptions{
		Query: q.Get("q"),
		Price: price,
		Sort:  order,
	}))
}

func (s *Server) handleSubjects(w http.ResponseWriter, r *http.Request) {
	api, series, ok := required2(w, r, "api", "series")
	if !ok {
		return
	}
	writeData(w, s.client.ListSubjects(r.Context(), api, series))
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	api, series, ok := required2(w, r, "api", "series")
	if !ok {
		return
	}
	subject, ok := required(w, r, "subject")
	if !ok {
		return
	}
	writeData(w, s.client.ListTestTitles(r.Context(), api, series, subject))
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questionsURL, ok := required(w, r, "url")
	if !ok {
		return
	}
	writeData(w, s.client.FetchQuizQuestions(r.Context(), questionsURL))
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	report := s.prober.Last()
	if report == nil {
		gateway.WriteEnvelope(w, http.StatusNotFound,
			gateway.NewEnvelope("No probe report", "the availability probe has not completed a run"))
		return
	}
	writeData(w, report)
}

// handleHistory serves recorded probe results, newest first. provider,
// since (RFC 3339) and limit narrow the result.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := history.Query{Provider: strings.TrimSpace(params.Get("provider")), Limit: 100}

	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			badRequest(w, fmt.Sprintf("limit must be a positive integer, got %q", v))
			return
		}
		q.Limit = min(n, maxHistoryLimit)
	}
	if v := params.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(w, fmt.Sprintf("since must be an RFC 3339 time, got %q", v))
			return
		}
		q.Since = since
	}

	records, err := s.prober.History(r.Context(), q)
	if err != nil {
		s.component("api").ErrorContext(r.Context(), "probe history query failed", "error", err)
		gateway.WriteEnvelope(w, http.StatusInternalServerError,
			gateway.NewEnvelope("History unavailable", err.Error()))
		return
	}
	writeData(w, records)
}

func required(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		badRequest(w, fmt.Sprintf("query parameter %q is required", name))
		return "", false
	}
	return v, true
}

func required2(w http.ResponseWriter, r *http.Request, a, b string) (string, string, bool) {
	va, ok := required(w, r, a)
	if !ok {
		return "", "", false
	}
	vb, ok := required(w, r, b)
	if !ok {
		return "", "", false
	}
	return va, vb, true
}

func badRequest(w http.ResponseWriter, message string) {
	gateway.WriteEnvelope(w, http.StatusBadRequest, gateway.NewEnvelope(MsgBadRequest, message))
}

func writeData(w http.ResponseWriter, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		gateway.WriteEnvelope(w, http.StatusInternalServerError,
			gateway.NewEnvelope(gateway.MsgFetchFailed, err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
