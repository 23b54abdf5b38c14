// Package format turns raw bill fields into display strings.
package format

import (
	"fmt"
	"time"

	"github.com/Luca-B431/bill-app/internal/models"
)

// frenchMonths holds the first three letters of each month's French short
// name, capitalised. June and July both abbreviate to "Jui".
var frenchMonths = [12]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Jui",
	"Jui", "Aoû", "Sep", "Oct", "Nov", "Déc",
}

// Date renders an ISO date (YYYY-MM-DD) as "4 Avr. 04".
func Date(iso string) (string, error) {
	t, err := time.Parse(time.DateOnly, iso)
	if err != nil {
		return "", fmt.Errorf("format: invalid date %q: %w", iso, err)
	}
	return fmt.Sprintf("%d %s. %02d", t.Day(), frenchMonths[t.Month()-1], t.Year()%100), nil
}

// Status renders a workflow status. Unknown values are returned unchanged.
func Status(status models.Status) string {
	switch status {
	case models.StatusPending:
		return "En attente"
	case models.StatusAccepted:
		return "Accepté"
	case models.StatusRefused:
		return "Refused"
	default:
		return string(status)
	}
}
