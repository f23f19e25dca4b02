package http

import (
	"fmt"
	"net/http"
	"time"

	"spendtrack/internal/core"
	applog "spendtrack/internal/log"
)

// Amount travels as a decimal string ("12.34") so the client never does
// float arithmetic on money.
type appendExpenseRequest struct {
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Date        string `json:"date"`
	IsNecessary bool   `json:"is_necessary"`
	Description string `json:"description,omitempty"`
}

type appendExpenseResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleAppendExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}

	var req appendExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	parsed, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid date, expected YYYY-MM-DD")
		return
	}

	record := core.ExpenseRecord{
		Amount:      core.Money{Cents: cents},
		Category:    core.ParseCategory(req.Category),
		Date:        core.NewDate(parsed.Year(), int(parsed.Month()), parsed.Day()),
		IsNecessary: req.IsNecessary,
		Description: sanitizeInput(req.Description),
	}
	if err := record.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.ledger.AppendExpense(r.Context(), sess.UserID, record)
	if err != nil {
		s.slogger.LogError(r.Context(), "Expense append error", err,
			applog.ComponentLedger, applog.OpAppend,
			applog.NewFields().WithUser(sess.UserID))
		writeError(w, http.StatusInternalServerError, "failed to save expense")
		return
	}
	s.slogger.LogExpenseAppended(r.Context(), sess.UserID, id,
		record.Amount.Cents, string(record.Category), record.IsNecessary)

	// Every cached view of this user's ledger is now stale.
	s.reportCache.DeletePrefix(userCachePrefix(sess.UserID))

	writeJSON(w, http.StatusCreated, appendExpenseResponse{ID: id})
}

func userCachePrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}
