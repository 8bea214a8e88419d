package pipeline

import (
	"log/slog"
	"sort"

	"nabonassar/internal"
	"nabonassar/internal/util"
)

// LabelContext is the label set of one record implicated in a duplicate group.
type LabelContext struct {
	RecordID string              `json:"id"`
	Labels   map[string][]string `json:"labels"`
}

type DuplicateGroup struct {
	Slug      string         `json:"slug"`
	RecordIDs []string       `json:"ids"`
	Records   []LabelContext `json:"records"`
}

// FindDuplicates groups records whose labels share a slug. Groups come back
// sorted by slug; ids keep record order.
func FindDuplicates(records []internal.Record, idField string, labelFields []string) []DuplicateGroup {
	bySlug := map[string][]string{}
	members := map[string]map[string]struct{}{}
	contexts := map[string]LabelContext{}

	for _, rec := range records {
		id := rec.ID(idField)
		ctx := LabelContext{RecordID: id, Labels: map[string][]string{}}
		for _, field := range labelFields {
			v, ok := rec.Get(field)
			if !ok {
				continue
			}
			labels := v.Strings()
			ctx.Labels[field] = labels
			for _, label := range labels {
				slug := util.Slugify(label)
				if slug == "" {
					continue
				}
				if members[slug] == nil {
					members[slug] = map[string]struct{}{}
				}
				if _, dup := members[slug][id]; dup {
					continue
				}
				members[slug][id] = struct{}{}
				bySlug[slug] = append(bySlug[slug], id)
			}
		}
		if len(ctx.Labels) > 0 {
			contexts[id] = ctx
		}
	}

	slugs := make([]string, 0, len(bySlug))
	for slug, ids := range bySlug {
		if len(ids) > 1 {
			slugs = append(slugs, slug)
		}
	}
	sort.Strings(slugs)

	out := make([]DuplicateGroup, 0, len(slugs))
	for _, slug := range slugs {
		ids := bySlug[slug]
		group := DuplicateGroup{Slug: slug, RecordIDs: ids}
		for _, id := range ids {
			group.Records = append(group.Records, contexts[id])
		}
		out = append(out, group)
	}
	return out
}

// CheckDuplicates logs every possible-duplicate group for review. It never
// fails the run.
func CheckDuplicates(logger *slog.Logger, records []internal.Record, idField string, labelFields []string) []DuplicateGroup {
	groups := FindDuplicates(records, idField, labelFields)
	for _, g := range groups {
		attrs := []any{slog.String("slug", g.Slug), slog.Any("ids", g.RecordIDs)}
		for _, rc := range g.Records {
			attrs = append(attrs, slog.Any(rc.RecordID, rc.Labels))
		}
		logger.Warn("possible duplicate records", attrs...)
	}
	if len(groups) > 0 {
		logger.Info("duplicate check done", slog.Int("groups", len(groups)))
	}
	return groups
}
