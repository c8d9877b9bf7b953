package worker

import (
	"strings"
	"testing"
	"time"

	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/policy"
)

func TestRenderMessageDayAhead(t *testing.T) {
	c := policy.Candidate{
		CustomerName: "Maria",
		ServiceName:  "Corte de cabelo",
		StartAt:      time.Date(2026, 3, 11, 14, 30, 0, 0, time.UTC),
	}
	got := RenderMessage(c, 24*time.Hour)
	want := "Olá Maria! Lembrete: você tem um agendamento amanhã às 14:30 para Corte de cabelo."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderMessageOneHour(t *testing.T) {
	c := policy.Candidate{
		CustomerName: "João",
		ServiceName:  "Manicure",
		StartAt:      time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
	}
	got := RenderMessage(c, time.Hour)
	want := "Olá João! Lembrete: você tem um agendamento em 1 hora às 09:00 para Manicure."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderMessageAppendsNotes(t *testing.T) {
	c := policy.Candidate{
		CustomerName: "Maria",
		ServiceName:  "Corte de cabelo",
		Notes:        "trazer referência",
		StartAt:      time.Date(2026, 3, 11, 14, 30, 0, 0, time.UTC),
	}
	got := RenderMessage(c, time.Hour)
	if !strings.HasSuffix(got, " Observações: trazer referência") {
		t.Fatalf("notes not appended: %q", got)
	}
}
