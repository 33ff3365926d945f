package utils

import (
	"strings"
)

// Characters that may not appear in a note filename or an Obsidian link target.
const forbiddenTitleChars = `*"\/<>:|?`

var titleReplacer = newTitleReplacer()

func newTitleReplacer() *strings.Replacer {
	pairs := make([]string, 0, len(forbiddenTitleChars)*2)
	for _, r := range forbiddenTitleChars {
		pairs = append(pairs, string(r), "-")
	}
	return strings.NewReplacer(pairs...)
}

// NormalizeTitle maps a book title to a filesystem-safe note name by
// replacing every forbidden character with a hyphen, one for one.
// Nothing else is changed: no trimming, no collapsing, no length limit.
// The result is stable, so it is used both as a filename and as the
// [[link]] target inside highlight notes.
func NormalizeTitle(title string) string {
	return titleReplacer.Replace(title)
}
