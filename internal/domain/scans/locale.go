package scans

import (
	"fmt"
	"time"
)

var italianWeekdays = [...]string{
	"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato",
}

var italianMonths = [...]string{
	"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
	"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
}

// FormatItalianDate renders t as a full Italian date with a short time,
// e.g. "lunedì 19 ottobre 2026 alle ore 10:58".
func FormatItalianDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%s %d %s %d alle ore %02d:%02d",
		italianWeekdays[t.Weekday()], t.Day(), italianMonths[t.Month()-1], t.Year(),
		t.Hour(), t.Minute())
}
