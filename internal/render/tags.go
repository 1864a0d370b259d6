package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// CategorizeHexColor maps a hex color to a coarse category used for tag-based
// search. The thresholds (30, 50, 220) are load-bearing: stored tags were
// produced with exactly these rules, so changing them breaks catalog search.
func CategorizeHexColor(hex string) (string, bool) {
	r, g, b, ok := parseHexColor(hex)
	if !ok {
		return "", false
	}

	max := maxChannel(r, g, b)
	min := minChannel(r, g, b)

	if max-min < 30 {
		switch {
		case max < 50:
			return "black", true
		case max > 220:
			return "white", true
		default:
			return "gray", true
		}
	}

	switch {
	case r > g && r > b:
		if g-b > 30 {
			return "orange", true
		}
		return "red", true
	case g > r && g > b:
		if r-b > 30 {
			return "yellow", true
		}
		return "green", true
	case b > r && b > g:
		if r-g > 30 {
			return "purple", true
		}
		return "blue", true
	}
	return "", false
}

func parseHexColor(hex string) (r, g, b int, ok bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	value, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(value >> 16 & 0xFF), int(value >> 8 & 0xFF), int(value & 0xFF), true
}

func maxChannel(values ...int) int {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

func minChannel(values ...int) int {
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// NormalizeTag lower-cases a free-text value and collapses whitespace runs
// into single hyphens: "Matte Black " -> "matte-black".
func NormalizeTag(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(value))), "-")
}

// BuildTags assembles the deduplicated search tag set for an artifact from
// the request params. markers carries mode-specific fixed tags such as
// "custom-design" or the active workflow mode. Output is a sorted set; order
// of insertion does not matter.
func BuildTags(params domain.RequestParams, markers ...string) []string {
	set := make(map[string]struct{})
	add := func(value string) {
		tag := NormalizeTag(value)
		if tag != "" {
			set[tag] = struct{}{}
		}
	}

	add(params.Make)
	add(params.Model)
	if params.Year > 0 {
		add(strconv.Itoa(params.Year))
	}
	add(params.Category)
	add(params.StyleName)
	add(params.FinishType)
	if category, ok := CategorizeHexColor(params.ColorHex); ok {
		add(category)
	}
	if params.DesignAssetKey != "" {
		add("custom-design")
	}
	for _, marker := range markers {
		add(marker)
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
