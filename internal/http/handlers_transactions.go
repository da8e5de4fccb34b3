package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"homebudget/internal/core"
	"homebudget/internal/log"
)

type transactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Count        int                `json:"count"`
}

// handleListTransactions serves GET /api/transactions?q=&category=.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f := ParseFilterParams(r.URL.Query())
	txs := slices.Collect(s.svc.Ledger().FilterTransactions(f.Query, f.Category))
	if txs == nil {
		txs = []core.Transaction{}
	}
	NewResponse().JSON(transactionList{Transactions: txs, Count: len(txs)}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.bodyError(w, r, err)
		return
	}

	t, err := s.svc.AddTransaction(r.Context(), p.TransactionInput())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		TriggerEntity(EventTransactionCreated, t.ID).
		Header("Location", "/api/transactions/"+t.ID).
		JSON(t).
		Write(w)
}

// handleDeleteTransaction answers 204 whether or not the id existed.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed := s.svc.DeleteTransaction(r.Context(), id)
	resp := NewResponse().Status(http.StatusNoContent)
	if removed {
		resp.TriggerEntity(EventTransactionDeleted, id)
	}
	resp.Write(w)
}

type importResult struct {
	Accounts []string `json:"accounts"`
	Parsed   int      `json:"parsed"`
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// handleImportTransactions accepts an OFX/QFX statement either as the raw
// body or as the "file" field of a multipart form.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	var src io.Reader = r.Body
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			s.bodyError(w, r, err)
			return
		}
		defer file.Close()
		src = file
	}

	res, err := s.importer.Parse(r.Context(), src)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.bodyError(w, r, ErrBodyTooLarge)
			return
		}
		ErrorFor(err).Write(w)
		return
	}

	added, err := s.svc.ImportTransactions(r.Context(), res.Inputs)
	out := importResult{
		Accounts: res.Accounts,
		Parsed:   len(res.Inputs),
		Added:    added,
		Skipped:  res.Skipped,
	}
	if err != nil {
		out.Errors = unwrapAll(err)
		s.logger.WarnContext(r.Context(), "Some statement entries were rejected",
			log.FieldOperation, log.OpImport,
			"rejected", len(out.Errors))
	}

	status := http.StatusCreated
	if added == 0 && len(out.Errors) > 0 {
		status = http.StatusUnprocessableEntity
	}
	resp := NewResponse().Status(status).JSON(out)
	if added > 0 {
		resp.Trigger(EventTransactionsImport, map[string]int{"added": added})
	}
	resp.Write(w)
}

// unwrapAll flattens an errors.Join result into messages.
func unwrapAll(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, e.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

func (s *Server) bodyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrBodyTooLarge) {
		ErrorResponse(http.StatusRequestEntityTooLarge, err.Error()).Write(w)
		return
	}
	s.logger.DebugContext(r.Context(), "Unreadable request body", log.FieldError, err)
	BadRequestError("malformed request body").Write(w)
}
