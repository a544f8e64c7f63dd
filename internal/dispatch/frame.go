package dispatch

import "strings"

// Frame turns a message into wire bytes: every line is newline terminated.
// Carriage returns are dropped and a multi-line message becomes several lines.
func Frame(msg string) []byte {
	lines := SplitLines(msg)
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// SplitLines splits s on \n, dropping carriage returns and one trailing newline.
// It always returns at least one (possibly empty) line.
func SplitLines(s string) []string {
	var lines []string
	var current strings.Builder
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, current.String())
			current.Reset()
		} else if r != '\r' {
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}
