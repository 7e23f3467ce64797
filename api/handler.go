package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"roofquote/adapters/export"
	"roofquote/adapters/storage"
	"roofquote/core/financing"
	"roofquote/core/types"
	"roofquote/internal/errors"
)

func decode(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidInput("invalid JSON body: %v", err)
	}
	return nil
}

func (s *Server) priceRequest(r *http.Request) (types.TierSet, error) {
	in := s.calc.Defaults()
	if err := decode(r, &in); err != nil {
		return types.TierSet{}, err
	}
	in, err := s.calc.NewInput(in)
	if err != nil {
		return types.TierSet{}, err
	}
	return s.calc.CalculateTiers(in)
}

// handleTiers handles POST /v1/tiers
func (s *Server) handleTiers(w http.ResponseWriter, r *http.Request) {
	set, err := s.priceRequest(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, set, http.StatusOK)
}

// handleTiersWorkbook handles POST /v1/tiers/workbook
func (s *Server) handleTiersWorkbook(w http.ResponseWriter, r *http.Request) {
	set, err := s.priceRequest(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	data, err := export.Workbook(&set, r.URL.Query().Get("title"))
	if err != nil {
		s.fail(w, errors.Internal("build workbook", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="roof-options.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleFinancing handles POST /v1/financing
func (s *Server) handleFinancing(w http.ResponseWriter, r *http.Request) {
	var req FinancingRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	model := s.calc.Model()
	if req.Lenders == nil {
		req.Lenders = model.Lenders
	}
	if req.Terms == nil {
		req.Terms = model.Terms
	}

	schedule, err := financing.BuildSchedule(req.Principal, req.Lenders, req.Terms)
	if err != nil {
		s.fail(w, err)
		return
	}
	options := financing.Rounded(schedule)
	resp := FinancingResponse{Options: options}
	if best, ok := financing.LowestMonthlyPayment(options); ok {
		resp.Headline = &best
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleLeadScore handles POST /v1/leads/score. With storage configured and
// a lead_ref given, the score is recorded together with its inputs.
func (s *Server) handleLeadScore(w http.ResponseWriter, r *http.Request) {
	var req LeadScoreRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	score, err := s.scorer.Score(req.LeadScoreInputs)
	if err != nil {
		s.fail(w, err)
		return
	}

	resp := LeadScoreResponse{LeadScore: score}
	if s.store != nil && req.LeadRef != "" {
		rec := &types.LeadRecord{LeadRef: req.LeadRef, Inputs: req.LeadScoreInputs, Score: score}
		if err := s.store.SaveLeadRecord(r.Context(), rec); err != nil {
			s.fail(w, errors.External("storage", err))
			return
		}
		resp.RecordID = rec.ID
	}
	s.writeJSON(w, resp, http.StatusOK)
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		s.writeError(w, "STORAGE_DISABLED", "storage is not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func listFilter(r *http.Request) (*storage.ListFilter, error) {
	q := r.URL.Query()
	f := &storage.ListFilter{
		SessionID: q.Get("session_id"),
		LeadRef:   q.Get("lead_ref"),
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"limit", &f.Limit}, {"offset", &f.Offset}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return nil, errors.InvalidInput("%s must be a non-negative integer", p.name)
			}
			*p.dst = n
		}
	}
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"since", &f.Since}, {"until", &f.Until}} {
		if v := q.Get(p.name); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return nil, errors.InvalidInput("%s must be RFC3339: %v", p.name, err)
			}
			*p.dst = t
		}
	}
	return f, nil
}

// handleListRuns handles GET /v1/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	f, err := listFilter(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	runs, err := s.store.ListPricingRuns(r.Context(), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	if runs == nil {
		runs = []*types.PricingRun{}
	}
	s.writeJSON(w, map[string]interface{}{"runs": runs, "count": len(runs)}, http.StatusOK)
}

// handleGetRun handles GET /v1/runs/{id}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	run, err := s.store.GetPricingRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, run, http.StatusOK)
}

// handleCompareRuns handles GET /v1/runs/compare?old=..&new=..&tier=..
func (s *Server) handleCompareRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	q := r.URL.Query()
	tier := types.TierName(q.Get("tier"))
	if tier == "" {
		tier = types.TierBetter
	}
	if q.Get("old") == "" || q.Get("new") == "" {
		s.fail(w, errors.InvalidInput("old and new run ids are required"))
		return
	}
	res, err := storage.Compare(r.Context(), s.store, q.Get("old"), q.Get("new"), tier)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, res, http.StatusOK)
}

// handleListLeads handles GET /v1/leads
func (s *Server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	f, err := listFilter(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	recs, err := s.store.ListLeadRecords(r.Context(), f)
	if err != nil {
		s.fail(w, err)
		return
	}
	if recs == nil {
		recs = []*types.LeadRecord{}
	}
	s.writeJSON(w, map[string]interface{}{"leads": recs, "count": len(recs)}, http.StatusOK)
}

// handleGetLead handles GET /v1/leads/{id}
func (s *Server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	rec, err := s.store.GetLeadRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, rec, http.StatusOK)
}
