package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"homebudget/internal/core"
)

type budgetList struct {
	Budgets []core.BudgetStatus `json:"budgets"`
	Totals  core.Totals         `json:"totals"`
}

// handleListBudgets returns every budget with its derived progress,
// remaining amount and tier.
func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	l := s.svc.Ledger()
	statuses := l.BudgetStatuses()
	if statuses == nil {
		statuses = []core.BudgetStatus{}
	}
	NewResponse().JSON(budgetList{Budgets: statuses, Totals: l.Totals()}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.bodyError(w, r, err)
		return
	}

	b, err := s.svc.AddBudget(r.Context(), p.BudgetInput())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		TriggerEntity(EventBudgetCreated, b.ID).
		Header("Location", "/api/budgets/"+b.ID).
		JSON(core.StatusOf(b)).
		Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed := s.svc.DeleteBudget(r.Context(), id)
	resp := NewResponse().Status(http.StatusNoContent)
	if removed {
		resp.TriggerEntity(EventBudgetDeleted, id)
	}
	resp.Write(w)
}

func (s *Server) handleBudgetTotals(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.svc.Ledger().Totals()).Write(w)
}

// handleScanBudgets publishes alerts for every budget at warning or over.
func (s *Server) handleScanBudgets(w http.ResponseWriter, r *http.Request) {
	flagged := s.svc.ScanBudgets(r.Context())
	if flagged == nil {
		flagged = []core.BudgetStatus{}
	}
	NewResponse().JSON(map[string]any{"flagged": flagged, "count": len(flagged)}).Write(w)
}
