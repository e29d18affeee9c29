package api

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/verk/worktime/attendance"
	"github.com/verk/worktime/generic"
)

// =============================================================================
// GERMAN MESSAGE CATALOGUE
// =============================================================================

var messages = map[attendance.ErrorKey]string{
	attendance.KeyMissingEndTime:      "Endzeit fehlt",
	attendance.KeyMissingStartTime:    "Startzeit fehlt",
	attendance.KeyEndBeforeStart:      "Endzeit muss nach Startzeit liegen",
	attendance.KeyBreakExceeds:        "Pausenzeit überschreitet Arbeitszeit",
	attendance.KeyDuplicateEntry:      "Für diesen Tag existiert bereits ein Eintrag",
	attendance.KeyFutureDate:          "Datum darf nicht in der Zukunft liegen",
	attendance.KeySubmittedReadonly:   "Abgeschlossene Einträge können nicht bearbeitet werden",
	attendance.KeyInvalidBreakMinutes: "Pausenzeit muss zwischen 0 und 480 Minuten liegen",
	attendance.KeyNotesTooLong:        "Notizen dürfen höchstens 500 Zeichen lang sein",
	attendance.KeyInvalidAbsenceType:  "Unbekannte Abwesenheitsart",
}

const (
	msgConflict         = "Eintrag wurde zwischenzeitlich geändert. Bitte laden Sie die Seite neu."
	msgSettingsConflict = "Einstellungen wurden zwischenzeitlich geändert. Bitte laden Sie die Seite neu."
	msgNotFound         = "Eintrag nicht gefunden"
	msgInvalidInput     = "Ungültige Eingabe"
	msgInvalidSettings  = "Ungültige Einstellungen"
	msgValidation       = "Eingaben sind ungültig"
	msgInternal         = "Interner Fehler"
)

// Message returns the German text for a validation key. Unknown keys fall
// back to the key itself.
func Message(key attendance.ErrorKey) string {
	if m, ok := messages[key]; ok {
		return m
	}
	return string(key)
}

func fieldErrors(keys []attendance.ErrorKey) []FieldErrorDTO {
	out := make([]FieldErrorDTO, len(keys))
	for i, k := range keys {
		out[i] = FieldErrorDTO{Key: string(k), Message: Message(k)}
	}
	return out
}

// vacationWarningMessage renders e.g. "5 Urlaubstage verfallen am 31.03.2026".
func vacationWarningMessage(days decimal.Decimal, cutoff generic.Date) string {
	return fmt.Sprintf("%s Urlaubstage verfallen am %s", days.String(), cutoff.GermanString())
}
