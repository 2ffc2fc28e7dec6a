package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/susu3304/partybot/internal/export"
	"github.com/susu3304/partybot/internal/ledger"
)

type memberView struct {
	Name  string      `json:"name"`
	Total json.Number `json:"total"`
}

type balanceView struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
}

type transferView struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount json.Number `json:"amount"`
}

type expenseView struct {
	ID          string      `json:"id,omitempty"`
	Payer       string      `json:"payer"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Timestamp   time.Time   `json:"timestamp"`
}

type summaryView struct {
	SessionID string         `json:"session_id"`
	Party     string         `json:"party"`
	CreatorID *int64         `json:"creator_id"`
	Total     json.Number    `json:"total"`
	Average   json.Number    `json:"average"`
	Members   []memberView   `json:"members"`
	Balances  []balanceView  `json:"balances"`
	Transfers []transferView `json:"transfers"`
	Expenses  []expenseView  `json:"expenses"`
	Settled   bool           `json:"settled"`
}

func amount(d decimal.Decimal) json.Number {
	return json.Number(ledger.FormatAmount(d))
}

func newSummaryView(sessionID string, p *ledger.Party) summaryView {
	res := p.Settle()
	v := summaryView{
		SessionID: sessionID,
		Party:     p.Name,
		CreatorID: p.CreatorID,
		Total:     amount(res.Total),
		Average:   amount(res.Average),
		Members:   make([]memberView, 0, len(p.Members)),
		Balances:  make([]balanceView, 0, len(res.Balances)),
		Transfers: make([]transferView, 0, len(res.Transfers)),
		Expenses:  make([]expenseView, 0, len(p.Expenses)),
		Settled:   res.Settled(),
	}
	for _, m := range p.Members {
		v.Members = append(v.Members, memberView{Name: m.Name, Total: amount(m.Total)})
	}
	for _, b := range res.Balances {
		v.Balances = append(v.Balances, balanceView{Name: b.Name, Amount: amount(b.Amount)})
	}
	for _, t := range res.Transfers {
		v.Transfers = append(v.Transfers, transferView{From: t.From, To: t.To, Amount: amount(t.Amount)})
	}
	for _, e := range p.Expenses {
		ev := expenseView{Payer: e.Payer, Amount: amount(e.Amount), Description: e.Description, Timestamp: e.Timestamp}
		if e.ID != uuid.Nil {
			ev.ID = e.ID.String()
		}
		v.Expenses = append(v.Expenses, ev)
	}
	return v
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Public handlers
func (a *API) handleListParties(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":    sessionID,
		"parties":       a.store.ListParties(sessionID),
		"current_party": a.store.CurrentParty(sessionID),
	})
}

func (a *API) lookupParty(w http.ResponseWriter, r *http.Request) (string, *ledger.Party, bool) {
	vars := mux.Vars(r)
	sessionID := vars["session_id"]
	p, err := a.store.Party(sessionID, vars["name"])
	if err != nil {
		http.Error(w, "party not found", http.StatusNotFound)
		return "", nil, false
	}
	return sessionID, p, true
}

func (a *API) handlePartySummary(w http.ResponseWriter, r *http.Request) {
	sessionID, p, ok := a.lookupParty(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSummaryView(sessionID, p))
}

func (a *API) handlePartyExport(w http.ResponseWriter, r *http.Request) {
	_, p, ok := a.lookupParty(w, r)
	if !ok {
		return
	}
	doc := export.Render(p, a.now())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	_, _ = w.Write([]byte(doc.Body))
}

// Protected handlers
func (a *API) handleUserParties(w http.ResponseWriter, r *http.Request) {
	refs := a.store.PartiesByCreator(requesterID(r))
	if refs == nil {
		refs = []ledger.PartyRef{}
	}
	writeJSON(w, http.StatusOK, refs)
}

func (a *API) handleDeleteParty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID, name := vars["session_id"], vars["name"]

	err := a.store.DeleteParty(r.Context(), sessionID, name, requesterID(r))
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "party not found", http.StatusNotFound)
		return
	case errors.Is(err, ledger.ErrPermissionDenied):
		http.Error(w, "only the party creator can delete it", http.StatusForbidden)
		return
	case err != nil:
		a.logger.Error("delete party",
			zap.String("session_id", sessionID),
			zap.String("party", name),
			zap.Error(err),
		)
		http.Error(w, "failed to delete party", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "party deleted"})
}
