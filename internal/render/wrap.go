package render

import (
	"strings"
	"unicode"
)

const tabWidth = 8

// Wrap breaks text into lines of at most width runes.
//
// Tabs expand to 8-column stops and every other whitespace character counts
// as one space. Whitespace inside a line is kept as written; it is dropped
// only where a line breaks, and leading whitespace survives on the first
// line alone. Hyphenated words may break after a hyphen that sits between
// letters. A chunk longer than width is split, at its last hyphen that fits
// if it has one, with the head filling what is left of the current line.
// Wrapping the newline-joined result again at the same width yields the
// same lines.
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}

	chunks := splitChunks(text)
	lines := make([]string, 0, len(chunks)/2+1)

	for i := 0; i < len(chunks); {
		if isBlank(chunks[i]) && len(lines) > 0 {
			i++
			continue
		}

		var cur [][]rune
		n := 0
		for i < len(chunks) && n+len(chunks[i]) <= width {
			cur = append(cur, chunks[i])
			n += len(chunks[i])
			i++
		}

		if i < len(chunks) && len(chunks[i]) > width {
			if room := width - n; room > 0 {
				c := chunks[i]
				end := room
				if h := lastHyphen(c[:room]); h > 0 {
					end = h + 1
				}
				cur = append(cur, c[:end])
				chunks[i] = c[end:]
			}
		}

		for len(cur) > 0 && isBlank(cur[len(cur)-1]) {
			cur = cur[:len(cur)-1]
		}
		if len(cur) > 0 {
			var b strings.Builder
			for _, c := range cur {
				b.WriteString(string(c))
			}
			lines = append(lines, b.String())
		}
	}

	return lines
}

// splitChunks cuts text into alternating whitespace runs and words, with
// hyphenated words further cut after each breakable hyphen.
func splitChunks(text string) [][]rune {
	r := normalizeSpace(text)
	var chunks [][]rune
	for i := 0; i < len(r); {
		j := i
		if r[i] == ' ' {
			for j < len(r) && r[j] == ' ' {
				j++
			}
			chunks = append(chunks, r[i:j])
			i = j
			continue
		}
		start := i
		for ; j < len(r) && r[j] != ' '; j++ {
			if r[j] == '-' && hyphenBreak(r, j) {
				chunks = append(chunks, r[start:j+1])
				start = j + 1
			}
		}
		if start < j {
			chunks = append(chunks, r[start:j])
		}
		i = j
	}
	return chunks
}

func normalizeSpace(text string) []rune {
	out := make([]rune, 0, len(text))
	col := 0
	for _, c := range text {
		switch c {
		case '\t':
			n := tabWidth - col%tabWidth
			for range n {
				out = append(out, ' ')
			}
			col += n
		case '\n', '\r':
			out = append(out, ' ')
			col = 0
		case '\v', '\f':
			out = append(out, ' ')
			col++
		default:
			out = append(out, c)
			col++
		}
	}
	return out
}

// hyphenBreak reports whether a line may break after the hyphen at r[i]:
// it must follow two letters (or a letter-hyphen-letter run) and precede
// two letters, optionally hyphen-separated.
func hyphenBreak(r []rune, i int) bool {
	letter := func(k int) bool { return k >= 0 && k < len(r) && unicode.IsLetter(r[k]) }

	before := (letter(i-1) && letter(i-2)) ||
		(letter(i-1) && i >= 2 && r[i-2] == '-' && letter(i-3))
	if !before || !letter(i+1) {
		return false
	}
	return letter(i+2) || (i+2 < len(r) && r[i+2] == '-' && letter(i+3))
}

// lastHyphen returns the index of the last hyphen in c that has a
// non-hyphen before it, or -1.
func lastHyphen(c []rune) int {
	h := -1
	for k := len(c) - 1; k > 0; k-- {
		if c[k] == '-' {
			h = k
			break
		}
	}
	if h <= 0 {
		return -1
	}
	for _, x := range c[:h] {
		if x != '-' {
			return h
		}
	}
	return -1
}

func isBlank(c []rune) bool {
	for _, x := range c {
		if x != ' ' {
			return false
		}
	}
	return true
}
