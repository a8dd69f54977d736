package i18n

import (
	"golang.org/x/text/language"

	"github.com/erp/finstate/internal/domain/billing"
	"github.com/erp/finstate/internal/domain/ordering"
)

// supported lists the locales with label catalogs; the first entry is the
// fallback when matching fails.
var supported = []language.Tag{
	language.English,
	language.German,
}

var matcher = language.NewMatcher(supported)

var orderStatusLabels = map[language.Tag]map[ordering.Status]string{
	language.English: {
		ordering.StatusInCreation:     "In creation",
		ordering.StatusPotential:      "Potential",
		ordering.StatusSubmitted:      "Submitted",
		ordering.StatusLetterOfIntent: "Letter of intent",
		ordering.StatusCommissioned:   "Commissioned",
		ordering.StatusEscalation:     "Escalation",
		ordering.StatusClosed:         "Closed",
		ordering.StatusRejected:       "Rejected",
		ordering.StatusReplaced:       "Replaced",
		ordering.StatusOptional:       "Optional",
	},
	language.German: {
		ordering.StatusInCreation:     "In Erstellung",
		ordering.StatusPotential:      "Potenzial",
		ordering.StatusSubmitted:      "Angebot abgegeben",
		ordering.StatusLetterOfIntent: "Absichtserklärung",
		ordering.StatusCommissioned:   "Beauftragt",
		ordering.StatusEscalation:     "Eskalation",
		ordering.StatusClosed:         "Abgeschlossen",
		ordering.StatusRejected:       "Abgelehnt",
		ordering.StatusReplaced:       "Ersetzt",
		ordering.StatusOptional:       "Optional",
	},
}

var invoiceStatusLabels = map[language.Tag]map[billing.InvoiceStatus]string{
	language.English: {
		billing.InvoiceStatusDraft:     "Draft",
		billing.InvoiceStatusIssued:    "Issued",
		billing.InvoiceStatusPaid:      "Paid",
		billing.InvoiceStatusCancelled: "Cancelled",
	},
	language.German: {
		billing.InvoiceStatusDraft:     "Entwurf",
		billing.InvoiceStatusIssued:    "Gestellt",
		billing.InvoiceStatusPaid:      "Bezahlt",
		billing.InvoiceStatusCancelled: "Storniert",
	},
}

// Match resolves the best supported locale for the given Accept-Language
// style preference list. Unknown or empty preferences fall back to English.
func Match(preferred ...string) language.Tag {
	tags := make([]language.Tag, 0, len(preferred))
	for _, p := range preferred {
		if tag, err := language.Parse(p); err == nil {
			tags = append(tags, tag)
		}
	}
	_, index, _ := matcher.Match(tags...)
	return supported[index]
}

// OrderStatusLabel returns the localized label for an order status. The
// raw status string is returned for statuses without a catalog entry.
func OrderStatusLabel(locale language.Tag, status ordering.Status) string {
	_, index, _ := matcher.Match(locale)
	if label, ok := orderStatusLabels[supported[index]][status]; ok {
		return label
	}
	return status.String()
}

// InvoiceStatusLabel returns the localized label for an invoice status.
func InvoiceStatusLabel(locale language.Tag, status billing.InvoiceStatus) string {
	_, index, _ := matcher.Match(locale)
	if label, ok := invoiceStatusLabels[supported[index]][status]; ok {
		return label
	}
	return string(status)
}
