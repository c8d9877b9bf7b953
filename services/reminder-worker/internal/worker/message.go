package worker

import (
	"fmt"
	"time"

	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/policy"
)

// RenderMessage builds the reminder text for one candidate and lead time.
// Phrasing follows the product copy: the day-ahead reminder says "amanhã",
// the short-notice one names the remaining time.
func RenderMessage(c policy.Candidate, lead time.Duration) string {
	at := c.StartAt.Format("15:04")

	var msg string
	switch {
	case lead >= 23*time.Hour:
		msg = fmt.Sprintf("Olá %s! Lembrete: você tem um agendamento amanhã às %s para %s.", c.CustomerName, at, c.ServiceName)
	case lead <= 90*time.Minute:
		msg = fmt.Sprintf("Olá %s! Lembrete: você tem um agendamento em 1 hora às %s para %s.", c.CustomerName, at, c.ServiceName)
	default:
		msg = fmt.Sprintf("Olá %s! Lembrete: você tem um agendamento às %s de %s para %s.", c.CustomerName, at, c.StartAt.Format("02/01"), c.ServiceName)
	}

	if c.Notes != "" {
		msg += fmt.Sprintf(" Observações: %s", c.Notes)
	}
	return msg
}
