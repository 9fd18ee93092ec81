package tty

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Strip removes terminal escape sequences and control characters from a
// line of subprocess output. Every piece of captured output passes through
// here before it is stored, logged, or rendered, so color codes from
// wrapped tools never leak into the UI or the on-disk logs.
func Strip(line string) string {
	if strings.IndexByte(line, 0x1b) < 0 && !hasControl(line) {
		return line
	}
	line = ansi.Strip(line)
	// ansi.Strip leaves bare control bytes (BEL, CR from progress bars)
	// untouched; drop those too.
	return strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, line)
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c != '\t' && (c < 0x20 || c == 0x7f) {
			return true
		}
	}
	return false
}
