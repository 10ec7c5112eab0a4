package outreach

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Seedgta1/N8/internal/domain/compliance"
	domain "github.com/Seedgta1/N8/internal/domain/outreach"
	"github.com/Seedgta1/N8/internal/domain/scans"
)

// previewIssues is how many issues the email lists in full.
const previewIssues = 3

var italian = message.NewPrinter(language.Italian)

// FormatEUR renders an amount the way Italian readers expect, e.g. 20.000.
func FormatEUR(amount int) string {
	return italian.Sprintf("%d", amount)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

var bodyTmpl = template.Must(template.New("offer").Funcs(template.FuncMap{
	"eur":  FormatEUR,
	"orNA": orDefault,
}).Parse(`Gentile Team di {{.URL}},

Abbiamo effettuato una scansione preliminare di conformità GDPR del vostro sito web ({{.URL}}) in data {{.Date}} e sono emerse alcune criticità che richiedono la vostra attenzione.

**Riepilogo Scansione:**
- Sito Analizzato: {{.URL}}
- Problemi Rilevati: {{.Count}}
- Stima Multa Potenziale Totale: € {{eur .TotalFine}}

**Principali Problemi Riscontrati (con riferimenti normativi):**
{{range $i, $is := .Top}}{{if $i}}
{{end}}- {{$is.Text}}
  Criticità: {{$is.Criticality.Label}}
  Norma Potenziale: {{orNA $is.NormTitle "N/D"}} ({{orNA $is.GDPRArticle "N/A"}})
  Multa Stimata: € {{eur $is.FineAmountEUR}}
{{end}}{{if .Remaining}}
...e altri {{.Remaining}} problemi dettagliati nel report completo che possiamo fornirvi.
{{end}}
Queste non conformità potrebbero esporvi a significative sanzioni GDPR, oltre a minare la fiducia dei vostri utenti.

**La Nostra Soluzione:**
Il nostro team di esperti può aiutarvi a mettere in regola il vostro sito web in tempi brevi e con un approccio personalizzato. Offriamo un servizio di adeguamento GDPR completo con un **abbonamento mensile a partire da una tariffa minima e competitiva**. Il nostro pacchetto include:
- Analisi approfondita e report dettagliato con tutti i riferimenti normativi.
- Implementazione delle modifiche tecniche e legali necessarie (banner cookie, privacy policy aggiornata, gestione consensi, ecc.).
- Generazione di script e codice per l'adeguamento.
- Consulenza continua e supporto per gli aggiornamenti normativi.

**Non rischiate sanzioni!** Contattateci oggi stesso per una consulenza gratuita e un preventivo personalizzato.
Saremmo lieti di discutere come possiamo rendere il vostro sito {{.URL}} pienamente conforme al GDPR.

Cordiali saluti,

Il Team di GDPR Compliance Solutions
`))

// Subject returns the offer subject line for url.
func Subject(url string) string {
	return fmt.Sprintf("Report Conformità GDPR per %s - Azioni Urgenti Richieste", url)
}

// Compose renders the offer email of a non-compliant scan.
func Compose(scan *scans.Scan) (domain.Email, error) {
	if scan.IsCompliant || len(scan.Suggestions) == 0 {
		return domain.Email{}, domain.ErrCompliantScan
	}
	top := scan.Suggestions[:min(previewIssues, len(scan.Suggestions))]
	data := struct {
		URL       string
		Date      string
		Count     int
		TotalFine int
		Top       []compliance.IssueRecord
		Remaining int
	}{
		URL:       scan.URL,
		Date:      scan.ScanDateLocale,
		Count:     scan.IssuesCount,
		TotalFine: scan.PotentialFine(),
		Top:       top,
		Remaining: max(scan.IssuesCount-previewIssues, 0),
	}
	var buf bytes.Buffer
	if err := bodyTmpl.Execute(&buf, data); err != nil {
		return domain.Email{}, fmt.Errorf("render offer: %w", err)
	}
	return domain.Email{Subject: Subject(scan.URL), Body: strings.TrimSpace(buf.String())}, nil
}
