package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// minLineLength drops OCR noise: stray marks recognized as one or two chars.
const minLineLength = 3

var (
	hyphenBreakRE = regexp.MustCompile(`(\pL)-[ \t]*\n[ \t]*(\pL)`)
	spaceRunRE    = regexp.MustCompile(`[ \t]+`)
	percentHexRE  = regexp.MustCompile(`%[0-9A-Fa-f]{2}`)
)

// CleanText normalizes raw extractor output. It is a pure function of its
// input, deterministic, and applied to every successful extraction:
//   - strips zero-width and control characters (newlines and tabs survive),
//   - decodes percent-escaped punctuation artifacts left by text layers,
//   - merges word splits across hyphenated line breaks,
//   - collapses repeated whitespace within a line,
//   - drops lines shorter than minLineLength.
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}

	text := stripInvisible(raw)
	text = decodePercentArtifacts(text)
	text = hyphenBreakRE.ReplaceAllString(text, "$1$2")

	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(spaceRunRE.ReplaceAllString(line, " "))
		if len([]rune(line)) < minLineLength {
			continue
		}
		cleaned = append(cleaned, line)
	}

	return strings.Join(cleaned, "\n")
}

func stripInvisible(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\t':
			return r
		case '\u200b', '\u200c', '\u200d', '\ufeff':
			return -1
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// decodePercentArtifacts resolves sequences like %20 or %27 that some PDF
// text layers leak into extracted text. Only punctuation and space targets
// are decoded; anything else is assumed to be a literal percent sign.
func decodePercentArtifacts(s string) string {
	return percentHexRE.ReplaceAllStringFunc(s, func(m string) string {
		b := byte(hexVal(m[1])<<4 | hexVal(m[2]))
		r := rune(b)
		if r == ' ' || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return string(r)
		}
		return m
	})
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}
