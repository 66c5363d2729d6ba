// =============================================================================
// Payment Statement Merger - Text Normalization
// =============================================================================
//
// Payee names arrive from many different spreadsheets, some typed with an
// IME in full-width mode. Before a name is written to the statement, the
// full-width forms of ASCII digits and letters are folded to their half-width
// equivalents and the ideographic space becomes a plain space.
//
// FOLDED RANGES:
//   U+FF10..U+FF19  ０..９  ->  0..9
//   U+FF21..U+FF3A  Ａ..Ｚ  ->  A..Z
//   U+FF41..U+FF5A  ａ..ｚ  ->  a..z
//   U+3000          　      ->  ' '
//
// Everything else, including katakana and full-width punctuation, is left
// untouched.
//
// =============================================================================

package normalize

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// foldRune maps one rune of a folded range by fixed offset.
func foldRune(r rune) rune {
	switch {
	case r >= '０' && r <= '９':
		return r - '０' + '0'
	case r >= 'Ａ' && r <= 'Ｚ':
		return r - 'Ａ' + 'A'
	case r >= 'ａ' && r <= 'ｚ':
		return r - 'ａ' + 'a'
	case r == '　':
		return ' '
	}
	return r
}

// newFolder returns a fresh transformer; transformers carry state and must
// not be shared between goroutines.
func newFolder() transform.Transformer {
	return runes.Map(foldRune)
}

// FullToHalf folds full-width digits, letters and spaces to ASCII and strips
// exactly one leading space from the result.
//
// EXAMPLE:
//
//	FullToHalf("Ａｂｃ１２３　ｄ") == "Abc123 d"
//	FullToHalf("　Ｘ")            == "X"
func FullToHalf(s string) string {
	folded, _, err := transform.String(newFolder(), s)
	if err != nil {
		// runes.Map does not fail on its own; keep the plain fold as a fallback.
		folded = strings.Map(foldRune, s)
	}
	return strings.TrimPrefix(folded, " ")
}
