package http

import (
	"net/http"

	"homebudget/internal/core"
)

type categoryList struct {
	Transaction []string `json:"transaction"`
	Budget      []string `json:"budget"`
}

// handleCategories lists the picker suggestions. Categories stay open
// strings, so nothing is rejected for being absent here.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(categoryList{
		Transaction: core.TransactionCategories,
		Budget:      core.BudgetCategories,
	}).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	l := s.svc.Ledger()
	NewResponse().JSON(l.Dashboard(l.Now())).Write(w)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(s.svc.Preferences()).Write(w)
}

// handleUpdateSettings applies a partial update: absent keys keep their value.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.bodyError(w, r, err)
		return
	}

	prefs := s.svc.Preferences()
	for key, dst := range map[string]*bool{
		"notifications": &prefs.Notifications,
		"budgetAlerts":  &prefs.BudgetAlerts,
	} {
		if !p.Has(key) {
			continue
		}
		v, err := p.Bool(key)
		if err != nil {
			ErrorFor(err).Write(w)
			return
		}
		*dst = v
	}

	updated := s.svc.UpdatePreferences(r.Context(), prefs)
	NewResponse().
		Trigger(EventSettingsUpdated, nil).
		JSON(updated).
		Write(w)
}
