package prompt

import (
	"fmt"
	"strings"

	"github.com/Seedgta1/N8/internal/domain/ai"
)

// SystemPrompt gives strict directions for the correction script output.
func SystemPrompt() string {
	return `Sei un consulente tecnico GDPR e uno sviluppatore web senior. Produci UN SOLO script JavaScript
eseguibile nel browser (nessun markdown, nessun commento fuori dal codice, nessun blocco di codice).

Requisiti:
- Lo script deve essere autocontenuto e racchiuso in una IIFE.
- Per ogni problema ricevuto aggiungi un commento con il titolo del problema e l'articolo GDPR.
- Dove possibile correggi il problema lato client (banner cookie, blocco script di terze parti,
  checkbox di consenso deselezionate, link all'informativa privacy nel footer).
- Dove la correzione non è possibile lato client, registra un avviso con console.warn che spiega
  l'azione manuale necessaria.
- Non caricare risorse esterne e non inviare dati a terzi.`
}

// UserPrompt builds a compact user message listing the issues of one site.
func UserPrompt(req ai.ScriptRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sito: %s\nProblemi rilevati (%d):\n", req.SiteURL, len(req.Issues))
	for i, is := range req.Issues {
		fmt.Fprintf(&b, "%d. [%s] %s (%s)\n", i+1, is.Criticality.Label(), is.Text, orNA(is.GDPRArticle))
		if is.PracticalAdvice != "" {
			fmt.Fprintf(&b, "   Consiglio: %s\n", is.PracticalAdvice)
		}
	}
	b.WriteString("Genera lo script di correzione.")
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
