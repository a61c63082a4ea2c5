// Package report renders reminder notification content: the summary
// line and the monthly analytics attachment built from ledger entries.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"finbot/internal/reminder"
)

const DefaultCurrency = "EUR"

// Builder implements reminder.ContentBuilder.
type Builder struct {
	// Currency labels amounts in the summary and the attachment.
	// Defaults to EUR.
	Currency string
}

func (b *Builder) currency() string {
	if b.Currency == "" {
		return DefaultCurrency
	}
	return b.Currency
}

// Build renders the summary text, and the analytics document when the
// ledger has anything to report. An empty ledger still produces the text
// so the user learns their total is zero.
func (b *Builder) Build(expenses, income []reminder.Entry, settings reminder.Settings, now time.Time) (string, *reminder.Document, error) {
	total := sum(expenses)
	text := fmt.Sprintf("Reminder: total expenses now are %s %s (%d transactions).",
		FixedAmount(total), b.currency(), len(expenses))

	if len(expenses) == 0 && len(income) == 0 {
		return text, nil, nil
	}

	doc, err := b.monthlyAnalytics(expenses, income, settings.SavingsGoal, now)
	if err != nil {
		return "", nil, err
	}
	return text, &doc, nil
}

// monthlyAnalytics writes the attachment: an expenses section and an
// income section, each with a total row, plus goal lines when a savings
// goal is configured.
func (b *Builder) monthlyAnalytics(expenses, income []reminder.Entry, goal *float64, now time.Time) (reminder.Document, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	writeSection := func(title string, entries []reminder.Entry) error {
		if err := w.Write([]string{title, "", "", "", ""}); err != nil {
			return err
		}
		if err := w.Write([]string{"id", "amount", "category", "created_date", "currency"}); err != nil {
			return err
		}
		for _, e := range entries {
			rec := []string{
				strconv.FormatUint(e.ID, 10),
				FixedAmount(e.Amount),
				e.Category,
				e.CreatedAt.UTC().Format("2006-01-02 15:04"),
				b.currency(),
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return w.Write([]string{"Total", FixedAmount(sum(entries)), "", "", b.currency()})
	}

	if err := writeSection("Expenses", expenses); err != nil {
		return reminder.Document{}, err
	}
	if err := w.Write([]string{"", "", "", "", ""}); err != nil {
		return reminder.Document{}, err
	}
	if err := writeSection("Income", income); err != nil {
		return reminder.Document{}, err
	}

	if goal != nil {
		savings := sum(income) - sum(expenses)
		rows := [][]string{
			{"", "", "", "", ""},
			{"Savings goal", FixedAmount(*goal), "", "", b.currency()},
			{"Current savings", FixedAmount(savings), "", "", b.currency()},
			{"Goal delta", FixedAmount(savings - *goal), "", "", b.currency()},
		}
		for _, r := range rows {
			if err := w.Write(r); err != nil {
				return reminder.Document{}, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return reminder.Document{}, err
	}

	return reminder.Document{
		Bytes:    buf.Bytes(),
		Filename: fmt.Sprintf("monthly_analytics_%s.csv", now.UTC().Format("2006-01")),
	}, nil
}

// FixedAmount formats a monetary value with two decimals.
func FixedAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func sum(entries []reminder.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Amount
	}
	return total
}
