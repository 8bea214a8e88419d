package pipeline

import (
	"regexp"
	"strings"

	"nabonassar/internal"
	"nabonassar/internal/util"
)

var (
	rePublicationLabel = regexp.MustCompile(`^publication-\d+-label$`)
	reMuseumLabel      = regexp.MustCompile(`^museum-label-\d+$`)
)

const (
	FieldPublicationLabels = "publication-labels"
	FieldMuseumLabels      = "museum-labels"
)

// NormalizeFieldnames builds the header crosswalk. Numbered label columns
// collapse into one multi-valued field each.
func NormalizeFieldnames(headers []string) internal.Crosswalk {
	out := make(internal.Crosswalk, len(headers))
	for _, h := range headers {
		out[h] = NormalizeFieldname(h)
	}
	return out
}

func NormalizeFieldname(header string) string {
	name := util.Slugify(header)
	name = strings.ReplaceAll(name, "musuem", "museum")
	switch {
	case rePublicationLabel.MatchString(name):
		return FieldPublicationLabels
	case reMuseumLabel.MatchString(name):
		return FieldMuseumLabels
	default:
		return name
	}
}
