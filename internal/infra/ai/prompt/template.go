package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/Seedgta1/N8/internal/domain/ai"
	"github.com/Seedgta1/N8/internal/domain/compliance"
)

// snippets per category; each is emitted at most once per script
var snippets = map[compliance.Category]string{
	compliance.CategoryCookiesTracking: `  // Blocca gli script di tracciamento finché l'utente non acconsente
  var CONSENT_KEY = 'gdpr_consent';
  function hasConsent() { return localStorage.getItem(CONSENT_KEY) === 'granted'; }
  document.querySelectorAll('script[data-consent="analytics"]').forEach(function (s) {
    if (!hasConsent()) { s.type = 'text/plain'; }
  });
  if (!localStorage.getItem(CONSENT_KEY)) {
    var bar = document.createElement('div');
    bar.setAttribute('role', 'dialog');
    bar.style.cssText = 'position:fixed;bottom:0;left:0;right:0;padding:16px;background:#1e293b;color:#fff;z-index:9999';
    bar.innerHTML = 'Usiamo cookie tecnici e, previo consenso, cookie analitici. ' +
      '<button id="gdpr-accept">Accetta</button> <button id="gdpr-reject">Rifiuta</button>';
    document.body.appendChild(bar);
    document.getElementById('gdpr-accept').onclick = function () { localStorage.setItem(CONSENT_KEY, 'granted'); bar.remove(); location.reload(); };
    document.getElementById('gdpr-reject').onclick = function () { localStorage.setItem(CONSENT_KEY, 'denied'); bar.remove(); };
  }
`,
	compliance.CategoryPrivacyNotice: `  // Link all'informativa privacy nel footer
  var footer = document.querySelector('footer') || document.body;
  if (!footer.querySelector('a[href*="privacy"]')) {
    var link = document.createElement('a');
    link.href = '/privacy-policy';
    link.textContent = 'Informativa Privacy';
    footer.appendChild(link);
  }
`,
	compliance.CategoryDataCollectionConsent: `  // Checkbox di consenso deselezionate di default
  document.querySelectorAll('form input[type="checkbox"]').forEach(function (c) {
    if (/consen|newsletter|marketing|privacy/i.test(c.name || c.id)) { c.checked = false; c.defaultChecked = false; }
  });
`,
	compliance.CategoryDataSecurity: `  // Forza HTTPS
  if (location.protocol === 'http:' && location.hostname !== 'localhost') {
    location.replace('https://' + location.host + location.pathname + location.search);
  }
`,
}

// Template is the deterministic script generator used when no AI provider is reachable.
type Template struct{}

// GenerateScript renders a script for req; the same request always gives the same script.
func (Template) GenerateScript(_ context.Context, req ai.ScriptRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "// Script di correzione GDPR per %s\n", req.SiteURL)
	b.WriteString("// Generato automaticamente: verificare prima della pubblicazione.\n")
	b.WriteString("(function () {\n  'use strict';\n")

	seen := map[compliance.Category]bool{}
	for _, is := range req.Issues {
		fmt.Fprintf(&b, "\n  // [%s] %s (%s)\n", is.Criticality.Label(), is.Text, orNA(is.GDPRArticle))
		if snip, ok := snippets[is.Category]; ok {
			if !seen[is.Category] {
				b.WriteString(snip)
				seen[is.Category] = true
			}
			continue
		}
		advice := is.PracticalAdvice
		if advice == "" {
			advice = is.Description
		}
		fmt.Fprintf(&b, "  console.warn(%s);\n", jsString("Azione manuale richiesta: "+advice))
	}
	b.WriteString("})();\n")
	return b.String(), nil
}

// jsString quotes s as a single-quoted JavaScript literal.
func jsString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`, "</", `<\/`)
	return "'" + r.Replace(s) + "'"
}
