package fit

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// WrapWidth is the character budget per wrapped line.
const WrapWidth = 40

// Wrap splits text on explicit newlines and greedily wraps every segment into
// lines of at most width characters. Runs of whitespace collapse into the
// words they separate, words longer than width are broken, and segments with
// no words produce no lines.
func Wrap(text string, width int) []string {
	return wrapBy(text, func(s string) bool {
		return utf8.RuneCountInString(s) <= max(width, 1)
	}, func(_, used string) int {
		return max(width, 1) - utf8.RuneCountInString(used)
	})
}

// wrapBy wraps with a pluggable fit predicate. room reports how many runes of a
// too-long word still fit after used.
func wrapBy(text string, fits func(line string) bool, room func(word, used string) int) []string {
	var lines []string
	for _, segment := range strings.Split(text, "\n") {
		lines = append(lines, wrapSegment(segment, fits, room)...)
	}
	return lines
}

func wrapSegment(segment string, fits func(line string) bool, room func(word, used string) int) []string {
	chunks := splitChunks(segment)
	var lines []string
	for len(chunks) > 0 {
		if len(lines) > 0 && isBlank(chunks[0]) {
			chunks = chunks[1:]
		}
		var cur strings.Builder
		for len(chunks) > 0 && fits(cur.String()+chunks[0]) {
			cur.WriteString(chunks[0])
			chunks = chunks[1:]
		}
		if len(chunks) > 0 && !fits(chunks[0]) {
			// a word that cannot fit on any line fills what is left of this one
			word := []rune(chunks[0])
			n := room(chunks[0], cur.String())
			if cur.Len() == 0 {
				n = max(n, 1)
			}
			if n > 0 {
				n = min(n, len(word))
				cur.WriteString(string(word[:n]))
				chunks[0] = string(word[n:])
				if chunks[0] == "" {
					chunks = chunks[1:]
				}
			}
		}
		line := strings.TrimRight(cur.String(), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

const tabSize = 8

// splitChunks turns a segment into alternating word and whitespace chunks.
// Tabs expand to the next multiple of tabSize columns, other ASCII whitespace
// becomes a plain space, and hyphenated words split after an inner hyphen
// that has two letters on each side.
func splitChunks(segment string) []string {
	runes := []rune(normalizeSpace(segment))
	var chunks []string
	var cur []rune
	inSpace := false
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		space := r == ' '
		if i > 0 && space != inSpace {
			flush()
		}
		inSpace = space
		cur = append(cur, r)
		if r == '-' && hyphenBreak(runes, i) {
			flush()
		}
	}
	flush()
	return chunks
}

func normalizeSpace(s string) string {
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := tabSize - col%tabSize
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			b.WriteRune(' ')
			col = 0
		case '\v', '\f':
			b.WriteRune(' ')
			col++
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

// hyphenBreak reports whether the hyphen at i ends a chunk: it must follow two
// letters (or letter, hyphen, letter) and precede a letter pair that may
// itself be hyphenated.
func hyphenBreak(runes []rune, i int) bool {
	at := func(j int) rune {
		if j < 0 || j >= len(runes) {
			return 0
		}
		return runes[j]
	}
	before := isLetter(at(i-1)) && (isLetter(at(i-2)) || at(i-2) == '-' && isLetter(at(i-3)))
	after := isLetter(at(i+1)) && (isLetter(at(i+2)) || at(i+2) == '-' && isLetter(at(i+3)))
	return before && after
}

// isLetter matches word characters other than digits.
func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
