// Package grouping buckets versioned batches by a key extracted from their
// file names and optionally keeps only the highest version of each bucket.
package grouping

import (
	"log/slog"
	"regexp"
	"sort"

	"edlmatch/internal/editindex"
	"edlmatch/internal/logging"
)

// Options configures Apply.
type Options struct {
	GroupPattern string
	SortPattern  string
	HighestOnly  bool
}

// Enabled reports whether any grouping pattern is configured. Leaving both
// patterns empty is how grouping is switched off; a pattern that compiles
// but captures nothing still groups, with every key absent.
func (o Options) Enabled() bool {
	return o.GroupPattern != "" || o.SortPattern != ""
}

// Group is one bucket of batches sharing a group key, sorted by sort key.
type Group struct {
	Key     string
	HasKey  bool
	Batches []*editindex.Batch
}

// Apply assigns group and sort keys to every batch and returns the batches
// that survive grouping together with the groups. With an invalid pattern or
// grouping disabled the input slice is returned unchanged and groups is nil.
func Apply(batches []*editindex.Batch, opts Options, logger *slog.Logger) ([]*editindex.Batch, []Group) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if !opts.Enabled() {
		return batches, nil
	}
	groupRE, err := regexp.Compile(opts.GroupPattern)
	if err != nil {
		logging.WarnWithContext(logger, "group pattern is malformed; grouping skipped", "grouping_invalid",
			logging.String(logging.FieldRule, "grouping.group_pattern"),
			logging.String("pattern", opts.GroupPattern),
			logging.Error(err),
			logging.String(logging.FieldImpact, "every batch is used"),
		)
		return batches, nil
	}
	sortRE, err := regexp.Compile(opts.SortPattern)
	if err != nil {
		logging.WarnWithContext(logger, "sort pattern is malformed; grouping skipped", "grouping_invalid",
			logging.String(logging.FieldRule, "grouping.sort_pattern"),
			logging.String("pattern", opts.SortPattern),
			logging.Error(err),
			logging.String(logging.FieldImpact, "every batch is used"),
		)
		return batches, nil
	}

	for _, p := range []struct {
		rule string
		re   *regexp.Regexp
	}{{"grouping.group_pattern", groupRE}, {"grouping.sort_pattern", sortRE}} {
		if p.re.String() != "" && p.re.NumSubexp() == 0 {
			logging.WarnWithContext(logger, "grouping pattern has no capture group", "grouping_no_capture",
				logging.String(logging.FieldRule, p.rule),
				logging.String("pattern", p.re.String()),
				logging.String(logging.FieldImpact, "every batch gets an absent key for this pattern"),
				logging.String(logging.FieldErrorHint, "wrap the part of the name to compare in ( )"),
			)
		}
	}

	var groups []Group
	index := map[string]int{}
	absent := -1
	for _, b := range batches {
		b.GroupKey, b.HasGroupKey = capture(groupRE, b.Name())
		b.SortKey, b.HasSortKey = capture(sortRE, b.Name())

		slot := absent
		if b.HasGroupKey {
			if i, ok := index[b.GroupKey]; ok {
				slot = i
			} else {
				slot = -1
			}
		}
		if slot < 0 {
			groups = append(groups, Group{Key: b.GroupKey, HasKey: b.HasGroupKey})
			slot = len(groups) - 1
			if b.HasGroupKey {
				index[b.GroupKey] = slot
			} else {
				absent = slot
			}
		}
		groups[slot].Batches = append(groups[slot].Batches, b)
	}

	var kept []*editindex.Batch
	for i := range groups {
		members := groups[i].Batches
		sort.SliceStable(members, func(a, b int) bool {
			return less(members[a], members[b])
		})
		if opts.HighestOnly {
			kept = append(kept, members[len(members)-1])
		} else {
			kept = append(kept, members...)
		}
		logger.Debug("batch group resolved",
			logging.String("group", groups[i].Key),
			logging.Int("members", len(members)),
			logging.String("highest", members[len(members)-1].Name()),
		)
	}
	return kept, groups
}

// capture returns group 1 of the first match of re in name. A pattern without
// a capture group, or one that does not match, yields an absent key.
func capture(re *regexp.Regexp, name string) (string, bool) {
	m := re.FindStringSubmatchIndex(name)
	if len(m) < 4 || m[2] < 0 {
		return "", false
	}
	return name[m[2]:m[3]], true
}

// less orders absent sort keys before present ones, then by plain string
// comparison.
func less(a, b *editindex.Batch) bool {
	if a.HasSortKey != b.HasSortKey {
		return !a.HasSortKey
	}
	return a.SortKey < b.SortKey
}
