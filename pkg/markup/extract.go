package markup

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var (
	patternMu    sync.RWMutex
	patternCache = make(map[string]*regexp.Regexp)
)

// fencePattern returns the compiled pattern matching fenced code blocks
// tagged with the given language. Patterns are cached per language.
func fencePattern(language string) *regexp.Regexp {
	patternMu.RLock()
	re, ok := patternCache[language]
	patternMu.RUnlock()
	if ok {
		return re
	}

	patternMu.Lock()
	defer patternMu.Unlock()
	if re, ok = patternCache[language]; ok {
		return re
	}
	re = regexp.MustCompile(fmt.Sprintf("(?s)```%s[ \t]*\r?\n(.*?)```", regexp.QuoteMeta(language)))
	patternCache[language] = re
	return re
}

// ExtractLastBlock scans text for fenced code blocks tagged with the
// given language and returns the trimmed inner content of the last one.
// Models often emit exploratory blocks before the final answer, so
// earlier blocks are ignored. The second return value is false when no
// tagged block exists; that is a designed absent result, not an error.
func ExtractLastBlock(text, language string) (string, bool) {
	matches := fencePattern(language).FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}
