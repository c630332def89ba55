package export

import (
	"fmt"
	"time"
)

// StatementEntry is one ledger movement on a credit statement
type StatementEntry struct {
	At           time.Time
	Kind         string
	Amount       int
	BalanceAfter int
	Description  string
}

// Statement is the credit statement of one account
type Statement struct {
	AccountName    string
	Email          string
	Balance        int
	PurchasedTotal int
	SpentTotal     int
	Entries        []StatementEntry
	GeneratedAt    time.Time
}

var kindLabels = map[string]string{
	"plan_floor":     "Recarga de plan",
	"referral_bonus": "Bono de referido",
	"lead_access":    "Acceso a lead",
	"claim_refund":   "Reembolso de reclamación",
	"adjustment":     "Ajuste",
}

// Document lays the statement out as a table, newest movement first
func (s *Statement) Document() *Document {
	rows := make([][]interface{}, 0, len(s.Entries))
	for _, e := range s.Entries {
		label, ok := kindLabels[e.Kind]
		if !ok {
			label = e.Kind
		}
		rows = append(rows, []interface{}{
			e.At.Format("2006-01-02 15:04"),
			label,
			e.Amount,
			e.BalanceAfter,
			e.Description,
		})
	}

	return &Document{
		Title:     "Extracto de créditos",
		Subtitle:  fmt.Sprintf("%s <%s>", s.AccountName, s.Email),
		CreatedAt: s.GeneratedAt,
		Summary: []SummaryLine{
			{Label: "Saldo actual", Value: fmt.Sprintf("%d", s.Balance)},
			{Label: "Créditos recibidos", Value: fmt.Sprintf("%d", s.PurchasedTotal)},
			{Label: "Créditos gastados", Value: fmt.Sprintf("%d", s.SpentTotal)},
		},
		Headers:        []string{"Fecha", "Concepto", "Importe", "Saldo", "Descripción"},
		Rows:           rows,
		NumericColumns: map[int]bool{2: true, 3: true},
		Style:          DefaultStyle(),
	}
}
