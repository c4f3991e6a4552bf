// Package naming binds semantic concepts (skin, pants, shirt, blend-shape
// categories) to authored asset names by pattern matching.
package naming

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Pattern classifies a name. Exclude takes precedence over Include: exclude sets
// list garment and accessory keywords that would otherwise hit the broader
// include set.
type Pattern struct {
	Include *regexp.Regexp
	Exclude *regexp.Regexp
}

var (
	Skin = Pattern{
		Include: regexp.MustCompile(`(?i)(body|skin|head|face|neck|torso|arm|forearm|hand|leg|thigh|calf|foot|toe|ear)`),
		Exclude: regexp.MustCompile(`(?i)(shirt|short|pant|jean|trouser|cloth|garment|upper|hair|brow|lash|eye|iris|pupil|teeth|tongue|gum|mouth|cap|hat|sock|shoe)`),
	}
	Pants = Pattern{
		Include: regexp.MustCompile(`(?i)(pant|pants|trouser|jean|denim|short|bottom|lower|legwear)`),
		Exclude: regexp.MustCompile(`(?i)(shirt|upper|top|dress|skirt|hood|sleeve|sock|shoe|boot)`),
	}

	// ShirtExact and ShirtLoose are tried in order against the mesh name only.
	ShirtExact = regexp.MustCompile(`(?i)^t[-\s_]?shirt$`)
	ShirtLoose = regexp.MustCompile(`(?i)upper|top`)

	BodyMesh = regexp.MustCompile(`(?i)human|body|character|avatar`)
)

// Match reports whether include matches and exclude does not.
func Match(name string, include, exclude *regexp.Regexp) bool {
	if include == nil || !include.MatchString(name) {
		return false
	}
	return exclude == nil || !exclude.MatchString(name)
}

func (p Pattern) Match(name string) bool {
	return Match(name, p.Include, p.Exclude)
}

// Compile builds a Pattern from profile strings. Empty strings leave the
// corresponding side of fallback unset.
func Compile(include, exclude string, fallback Pattern) (Pattern, error) {
	p := fallback
	if include != "" {
		re, err := regexp.Compile("(?i)" + include)
		if err != nil {
			return p, err
		}
		p.Include = re
	}
	if exclude != "" {
		re, err := regexp.Compile("(?i)" + exclude)
		if err != nil {
			return p, err
		}
		p.Exclude = re
	}
	return p, nil
}

// Label is the string classified for a mesh: its own name followed by the
// names of its materials.
func Label(meshName string, materialNames []string) string {
	mat := "(no material)"
	if len(materialNames) > 0 {
		names := make([]string, len(materialNames))
		for i, n := range materialNames {
			if n == "" {
				n = "Material"
			}
			names[i] = n
		}
		mat = strings.Join(names, ", ")
	}
	return strings.TrimSpace(meshName + " " + mat)
}

// Fold returns the case folded form used for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// EqualFold compares two authored names ignoring case.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
