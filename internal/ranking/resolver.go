package ranking

const (
	TYPE_DAILY            RankingType = "日間"
	TYPE_WEEKLY           RankingType = "週間"
	TYPE_MONTHLY          RankingType = "月間"
	TYPE_NEWCOMER_DAILY   RankingType = "新人日間"
	TYPE_NEWCOMER_WEEKLY  RankingType = "新人週間"
	TYPE_TIMESLOT_MORNING RankingType = "朝帯"
	TYPE_TIMESLOT_MIDDAY  RankingType = "昼帯"
	TYPE_TIMESLOT_NIGHT   RankingType = "夜帯"
)

const (
	LABEL_NEWCOMER = "新人"
	LABEL_TIMESLOT = "時間帯"
)

// Vocabulary is the ordered list of ranking types a source's columns map to.
type Vocabulary struct {
	Types []RankingType `json:"types"`
	// Cycle wraps columns past the end of Types around (column mod len), otherwise
	// they resolve to the last type.
	Cycle bool `json:"cycle"`
}

// Resolve maps a column index to a ranking type, it never fails for a
// non-empty vocabulary. Negative columns resolve to the first type.
func (v Vocabulary) Resolve(column int) RankingType {
	n := len(v.Types)
	if n == 0 {
		return ""
	}
	if column < 0 {
		return v.Types[0]
	}
	if column < n {
		return v.Types[column]
	}
	if v.Cycle {
		return v.Types[column%n]
	}
	return v.Types[n-1]
}

type Vocabularies struct {
	Default Vocabulary            `json:"default"`
	ByLabel map[string]Vocabulary `json:"by_label"`
}

func DefaultVocabularies() Vocabularies {
	return Vocabularies{
		Default: Vocabulary{
			Types: []RankingType{TYPE_DAILY, TYPE_WEEKLY, TYPE_MONTHLY},
		},
		ByLabel: map[string]Vocabulary{
			LABEL_NEWCOMER: {
				Types: []RankingType{TYPE_NEWCOMER_DAILY, TYPE_NEWCOMER_WEEKLY},
			},
			LABEL_TIMESLOT: {
				Types: []RankingType{TYPE_TIMESLOT_MORNING, TYPE_TIMESLOT_MIDDAY, TYPE_TIMESLOT_NIGHT},
				Cycle: true,
			},
		},
	}
}

// For returns the vocabulary of a source label, labels without a (non-empty)
// override use the default vocabulary.
func (v Vocabularies) For(label string) Vocabulary {
	vocab, ok := v.ByLabel[label]
	if ok && len(vocab.Types) > 0 {
		return vocab
	}
	return v.Default
}

func (v Vocabularies) Resolve(label string, column int) RankingType {
	return v.For(label).Resolve(column)
}
