package ranking

import (
	"rankwatch/lib/textutil"
	"slices"

	"github.com/antzucaro/matchr"
)

// Match keeps the records whose trimmed raw name equals a trimmed target name
// exactly. When a target name appears more than once the last entry wins. A
// non-blank override category of the target replaces the record's category.
func Match(records []EnrichedRecord, targets []TargetEntry) []MatchedRecord {
	lookup := make(map[string]TargetEntry, len(targets))
	for _, target := range targets {
		key := textutil.TrimKey(target.Name)
		if key == "" {
			continue
		}
		lookup[key] = target
	}

	var out []MatchedRecord
	for _, record := range records {
		target, ok := lookup[textutil.TrimKey(record.Name)]
		if !ok {
			continue
		}
		matched := MatchedRecord{
			EnrichedRecord: record,
			DisplayName:    textutil.NormalizeName(record.Name),
		}
		override := textutil.TrimKey(target.OverrideCategory)
		if override != "" {
			matched.Category = override
		}
		out = append(out, matched)
	}
	return out
}

// NearMiss is a target that matched nothing exactly but resembles a scraped name.
type NearMiss struct {
	Target     string
	Candidate  string
	Similarity float64
}

// NearMisses finds, for every target without an exact match, the most similar
// scraped name by Jaro-Winkler similarity if it reaches threshold. It is purely
// diagnostic, Match never uses it.
func NearMisses(records []EnrichedRecord, targets []TargetEntry, threshold float64) []NearMiss {
	scraped := map[string]struct{}{}
	var names []string
	for _, record := range records {
		key := textutil.TrimKey(record.Name)
		if _, seen := scraped[key]; seen || key == "" {
			continue
		}
		scraped[key] = struct{}{}
		names = append(names, key)
	}

	var out []NearMiss
	reported := map[string]struct{}{}
	for _, target := range targets {
		key := textutil.TrimKey(target.Name)
		if key == "" {
			continue
		}
		if _, exact := scraped[key]; exact {
			continue
		}
		if _, done := reported[key]; done {
			continue
		}
		reported[key] = struct{}{}

		var best NearMiss
		for _, name := range names {
			similarity := matchr.JaroWinkler(key, name, false)
			if similarity > best.Similarity {
				best = NearMiss{Target: key, Candidate: name, Similarity: similarity}
			}
		}
		if best.Similarity >= threshold && best.Candidate != "" {
			out = append(out, best)
		}
	}

	slices.SortStableFunc(out, func(a, b NearMiss) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	return out
}
