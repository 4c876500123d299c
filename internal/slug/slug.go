package slug

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const separator = '-'

// Make maps a title to a lowercase, filesystem-safe token.
// Accents are folded ("Códice" -> "codice"), other scripts are
// transliterated to ASCII ("Книга" -> "kniga") and every run of other
// characters becomes a single dash.
func Make(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, title)
	if err != nil {
		folded = title
	}
	folded = unidecode.Unidecode(folded)

	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteRune(separator)
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// Numbered appends a zero-padded sequence number: Numbered("scan", 2) == "scan_002".
func Numbered(base string, n int) string {
	return fmt.Sprintf("%s_%03d", base, n)
}
