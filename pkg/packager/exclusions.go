package packager

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/aipagereader/xpipack/pkg/plog"
)

type exclusionMatchType int

const (
	literalMatch exclusionMatchType = iota
	prefixMatch
	suffixMatch
	globMatch
)

// exclusionSet holds the categorized exclusion patterns for efficient matching.
type exclusionSet struct {
	// literals are exact entry-name matches ("popup/debug.html").
	literals map[string]struct{}
	// basenameLiterals match a base name anywhere in the tree (".DS_Store").
	basenameLiterals map[string]struct{}
	// nonLiterals need wildcard or prefix logic.
	nonLiterals []exclusion
}

type exclusion struct {
	pattern       string
	cleanPattern  string
	matchType     exclusionMatchType
	matchBasename bool
}

// makeExclusionSet analyzes and categorizes patterns to enable optimized matching later.
// Patterns without a "/" match against the base name, like .gitignore.
func makeExclusionSet(patterns []string) exclusionSet {
	set := exclusionSet{
		literals:         make(map[string]struct{}),
		basenameLiterals: make(map[string]struct{}),
		nonLiterals:      make([]exclusion, 0, len(patterns)),
	}

	shouldMatchBasename := func(p string) bool { return !strings.Contains(p, "/") }

	for _, p := range patterns {
		p = normalizeExclusionPattern(p)
		if p == "" {
			continue
		}
		switch {
		case strings.ContainsAny(p, "*?[]"):
			switch {
			case strings.HasSuffix(p, "/*"):
				set.nonLiterals = append(set.nonLiterals, exclusion{
					pattern:      p,
					cleanPattern: strings.TrimSuffix(p, "/*"),
					matchType:    prefixMatch,
				})
			case strings.HasSuffix(p, "*") && !strings.ContainsAny(p[:len(p)-1], "*?[]"):
				set.nonLiterals = append(set.nonLiterals, exclusion{
					pattern:       p,
					cleanPattern:  strings.TrimSuffix(p, "*"),
					matchType:     prefixMatch,
					matchBasename: shouldMatchBasename(p),
				})
			case strings.HasPrefix(p, "*") && !strings.ContainsAny(p[1:], "*?[]"):
				set.nonLiterals = append(set.nonLiterals, exclusion{
					pattern:       p,
					cleanPattern:  p[1:],
					matchType:     suffixMatch,
					matchBasename: shouldMatchBasename(p),
				})
			default:
				set.nonLiterals = append(set.nonLiterals, exclusion{
					pattern: p, cleanPattern: p, matchType: globMatch, matchBasename: shouldMatchBasename(p),
				})
			}
		case strings.HasSuffix(p, "/"):
			set.nonLiterals = append(set.nonLiterals, exclusion{
				pattern:      p,
				cleanPattern: strings.TrimSuffix(p, "/"),
				matchType:    prefixMatch,
			})
		case shouldMatchBasename(p):
			set.basenameLiterals[p] = struct{}{}
		default:
			set.literals[p] = struct{}{}
		}
	}
	return set
}

// empty reports whether the set can never match.
func (es *exclusionSet) empty() bool {
	return len(es.literals) == 0 && len(es.basenameLiterals) == 0 && len(es.nonLiterals) == 0
}

// matches checks if an entry name matches any of the exclusion patterns.
func (es *exclusionSet) matches(name string) bool {
	if es.empty() {
		return false
	}
	normalizedPath := normalizeExclusionPattern(name)
	normalizedBasename := normalizedPath
	if i := strings.LastIndex(normalizedPath, "/"); i >= 0 {
		normalizedBasename = normalizedPath[i+1:]
	}

	if _, ok := es.literals[normalizedPath]; ok {
		return true
	}
	if _, ok := es.basenameLiterals[normalizedBasename]; ok {
		return true
	}

	for _, p := range es.nonLiterals {
		pathToCheck := normalizedPath
		if p.matchBasename {
			pathToCheck = normalizedBasename
		}

		switch p.matchType {
		case prefixMatch:
			if !strings.HasPrefix(pathToCheck, p.cleanPattern) {
				continue
			}
			// "build/" and "build/*" must not match "build-tools".
			if strings.HasSuffix(p.pattern, "/") || strings.HasSuffix(p.pattern, "/*") {
				if pathToCheck != p.cleanPattern && !strings.HasPrefix(pathToCheck, p.cleanPattern+"/") {
					continue
				}
			}
			return true
		case suffixMatch:
			if strings.HasSuffix(pathToCheck, p.cleanPattern) {
				return true
			}
		case globMatch:
			match, err := path.Match(p.cleanPattern, pathToCheck)
			if err != nil {
				plog.Warn("Invalid exclusion pattern", "pattern", p.cleanPattern, "error", err)
				continue
			}
			if match {
				return true
			}
		}
	}
	return false
}

// normalizeExclusionPattern converts a path or pattern into a standardized,
// case-insensitive key format (forward slashes, lowercase).
func normalizeExclusionPattern(p string) string {
	return strings.ToLower(filepath.ToSlash(strings.TrimSpace(p)))
}
