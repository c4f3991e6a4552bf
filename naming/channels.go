package naming

import (
	"regexp"
	"sort"
	"strings"
)

// Stage tells which step of ResolveChannel produced a match.
type Stage int

const (
	StageNone Stage = iota
	StageExact
	StageNumbered
	StageSuffixed
	StageKeyword
)

func (s Stage) String() string {
	switch s {
	case StageExact:
		return "exact"
	case StageNumbered:
		return "numbered"
	case StageSuffixed:
		return "suffixed"
	case StageKeyword:
		return "keyword"
	}
	return "none"
}

// ChannelRule describes how one semantic category is found among the
// blend-shape channel names of a mesh.
type ChannelRule struct {
	Names    []string
	Keywords *regexp.Regexp
}

var (
	numbered = regexp.MustCompile(`^(.*?[^0-9._-])([0-9]+)$`)
	suffixed = regexp.MustCompile(`^(.*?)[._-]([0-9]+)$`)
)

// ResolveChannel picks at most one channel for rule, so that alternates emitted
// by authoring tools ("endomorph", "endomorph.001") are never driven together.
//
// Order: exact case-insensitive name; a numbered variant without separator
// ("endomorph2"); the lexicographically first separator-suffixed variant
// ("endomorph.001"); the first channel matching the keyword regex. Channels in
// skip are ignored.
func ResolveChannel(names []string, rule ChannelRule, skip map[int]bool) (int, Stage) {
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = Fold(n)
	}
	for _, want := range rule.Names {
		w := Fold(want)
		for i, f := range folded {
			if !skip[i] && f == w {
				return i, StageExact
			}
		}
	}
	for _, want := range rule.Names {
		if i, ok := firstVariant(names, folded, Fold(want), numbered, skip); ok {
			return i, StageNumbered
		}
	}
	for _, want := range rule.Names {
		if i, ok := firstVariant(names, folded, Fold(want), suffixed, skip); ok {
			return i, StageSuffixed
		}
	}
	if rule.Keywords != nil {
		for i, n := range names {
			if !skip[i] && rule.Keywords.MatchString(n) {
				return i, StageKeyword
			}
		}
	}
	return -1, StageNone
}

func firstVariant(names, folded []string, base string, re *regexp.Regexp, skip map[int]bool) (int, bool) {
	var hits []int
	for i, f := range folded {
		if skip[i] {
			continue
		}
		m := re.FindStringSubmatch(f)
		if m != nil && m[1] == base {
			hits = append(hits, i)
		}
	}
	if len(hits) == 0 {
		return -1, false
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return strings.Compare(names[hits[a]], names[hits[b]]) < 0
	})
	return hits[0], true
}
