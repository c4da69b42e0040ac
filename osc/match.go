package osc

import (
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Wildcard is the catch-all pattern: registered alone it matches every
// address, mirroring a global handler.
const Wildcard = "*"

const matcherCacheSize = 128

// matcher matches OSC 1.0 address patterns against concrete addresses.
// Compiled patterns are kept in an LRU cache since the same patterns come
// around on every pump pass.
type matcher struct {
	cache *lru.Cache[string, *regexp.Regexp]
}

func newMatcher() *matcher {
	cache, _ := lru.New[string, *regexp.Regexp](matcherCacheSize)
	return &matcher{cache: cache}
}

// match reports whether pattern matches addr. Exact equality and the
// literal Wildcard pattern are fast paths; anything containing OSC pattern
// syntax goes through a compiled regexp.
func (mc *matcher) match(pattern, addr string) bool {
	if pattern == addr || pattern == Wildcard {
		return true
	}
	if !strings.ContainsAny(pattern, "*?[]{}") {
		return false
	}

	r, ok := mc.cache.Get(pattern)
	if !ok {
		var err error
		if r, err = compilePattern(pattern); err != nil {
			return false
		}
		mc.cache.Add(pattern, r)
	}
	return r.MatchString(addr)
}

// compilePattern translates an OSC address pattern into an anchored regexp.
// '*' and '?' stay within one address segment, '[!abc]' negates a character
// class and '{a,b}' is alternation, per the OSC 1.0 pattern rules.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")

	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if inClass {
			switch c {
			case ']':
				inClass = false
				sb.WriteByte(']')
			case '!':
				if pattern[i-1] == '[' {
					sb.WriteByte('^')
				} else {
					sb.WriteByte('!')
				}
			case '\\':
				sb.WriteString(`\\`)
			default:
				sb.WriteByte(c)
			}
			continue
		}

		switch c {
		case '*':
			sb.WriteString("[^/]*")
		case '?':
			sb.WriteString("[^/]")
		case '[':
			inClass = true
			sb.WriteByte('[')
		case '{':
			sb.WriteByte('(')
		case ',':
			sb.WriteByte('|')
		case '}':
			sb.WriteByte(')')
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
