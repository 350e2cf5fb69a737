package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"finance-tracker/internal/core"
	"finance-tracker/internal/export"
	"finance-tracker/internal/log"
	"finance-tracker/internal/views"

	"github.com/gorilla/mux"
)

// SheetsExporter pushes a transaction list to a spreadsheet.
type SheetsExporter interface {
	Export(ctx context.Context, txs []core.Transaction) error
}

type categoryRequest struct {
	Type core.TransactionType `json:"type"`
	Name string               `json:"name"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := s.clock()
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": now.UTC().Format(time.RFC3339),
		"uptime":    now.Sub(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, views.BuildDashboard(s.store.Snapshot(), q))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}
	list := views.FilterAndSort(s.store.Transactions(), q)
	if list == nil {
		list = []core.Transaction{}
	}
	writeJSON(w, r, http.StatusOK, list)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	tx, err := s.store.Transaction(id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var draft core.Draft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sanitizeDraft(&draft)

	tx, err := s.store.AddTransaction(r.Context(), draft)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	logger := log.FromContext(r.Context())
	logger.InfoContext(r.Context(), "Transaction created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithTransaction(tx.ID, tx.Type.String(), tx.Category, tx.Amount.String()).
			ToSlice()...,
	)
	writeJSON(w, r, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var draft core.Draft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sanitizeDraft(&draft)

	tx, err := s.store.UpdateTransaction(r.Context(), id, draft)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.store.Categories())
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	name := sanitizeInput(req.Name)
	if err := s.store.AddCategory(r.Context(), req.Type, name); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, s.store.Categories())
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.store.DeleteCategory(r.Context(), core.TransactionType(vars["type"]), vars["name"]); err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}
	list := views.FilterAndSort(s.store.Transactions(), q)

	w.Header().Set("Content-Type", export.ContentType+"; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(s.clock())+`"`)
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, list); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to write CSV export",
			log.FieldOperation, log.OpExport,
			log.FieldError, err.Error(),
		)
	}
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	q, ok := parseQuery(w, r)
	if !ok {
		return
	}
	list := views.FilterAndSort(s.store.Transactions(), q)
	if err := s.exporter.Export(r.Context(), list); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Sheets export failed",
			log.FieldOperation, log.OpExport,
			log.FieldError, err.Error(),
		)
		writeError(w, r, http.StatusBadGateway, "sheets export failed")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"exported": len(list)})
}

func parseQuery(w http.ResponseWriter, r *http.Request) (views.Query, bool) {
	v := r.URL.Query()
	q, err := views.ParseQuery(
		sanitizeInput(v.Get("type")),
		sanitizeInput(v.Get("category")),
		sanitizeInput(v.Get("sort")),
	)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return views.Query{}, false
	}
	return q, true
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid transaction id")
		return 0, false
	}
	return id, true
}

func sanitizeDraft(d *core.Draft) {
	d.Amount = sanitizeInput(d.Amount)
	d.Date = sanitizeInput(d.Date)
	d.Category = sanitizeInput(d.Category)
	d.Notes = sanitizeInput(d.Notes)
}
