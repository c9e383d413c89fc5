package mastery

import (
	"sort"

	"github.com/abhisek/quizpool/internal/question"
)

// Level is the display band of a proficiency score.
type Level string

const (
	LevelNew        Level = "new"
	LevelNovice     Level = "novice"
	LevelDeveloping Level = "developing"
	LevelProficient Level = "proficient"
	LevelMastered   Level = "mastered"
)

// Rank orders levels from LevelNew (0) to LevelMastered (4).
func (l Level) Rank() int {
	switch l {
	case LevelNovice:
		return 1
	case LevelDeveloping:
		return 2
	case LevelProficient:
		return 3
	case LevelMastered:
		return 4
	default:
		return 0
	}
}

// Band thresholds on the [0, 1] score.
const (
	DevelopingThreshold = 0.25
	ProficientThreshold = 0.5
	MasteredThreshold   = 0.8
)

// LevelOf maps a proficiency to its display band. Never-attempted
// entries are LevelNew regardless of score.
func LevelOf(p Proficiency) Level {
	if p.Attempts == 0 {
		return LevelNew
	}
	switch {
	case p.Score >= MasteredThreshold:
		return LevelMastered
	case p.Score >= ProficientThreshold:
		return LevelProficient
	case p.Score >= DevelopingThreshold:
		return LevelDeveloping
	default:
		return LevelNovice
	}
}

// Transition records a band change of one tag or type between two
// mastery records.
type Transition struct {
	Kind string // "tag" or "type"
	Key  string
	From Level
	To   Level
}

// Transitions lists every tag and type whose band differs between before
// and after, tags first, each group sorted by key.
func Transitions(before, after *LearnerMastery) []Transition {
	if after == nil {
		return nil
	}
	if before == nil {
		before = NewEmpty(after.LearnerID)
	}

	var out []Transition
	for _, tag := range sortedKeys(after.Tags) {
		from, to := LevelOf(before.Tags[tag]), LevelOf(after.Tags[tag])
		if from != to {
			out = append(out, Transition{Kind: "tag", Key: tag, From: from, To: to})
		}
	}
	types := make([]string, 0, len(after.Types))
	for t := range after.Types {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		qt := question.Type(t)
		from, to := LevelOf(before.Types[qt]), LevelOf(after.Types[qt])
		if from != to {
			out = append(out, Transition{Kind: "type", Key: t, From: from, To: to})
		}
	}
	return out
}

// Entry is one named row of a mastery listing.
type Entry struct {
	Key         string
	Proficiency Proficiency
}

// WeakestTags returns up to n attempted tags ordered by ascending score,
// ties broken by key. n <= 0 returns all of them.
func (m *LearnerMastery) WeakestTags(n int) []Entry {
	if m == nil {
		return nil
	}
	var out []Entry
	for _, tag := range sortedKeys(m.Tags) {
		if p := m.Tags[tag]; p.Attempts > 0 {
			out = append(out, Entry{Key: tag, Proficiency: p})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Proficiency.Score < out[j].Proficiency.Score
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// SortedTypes returns the type entries ordered by type name.
func (m *LearnerMastery) SortedTypes() []Entry {
	if m == nil {
		return nil
	}
	out := make([]Entry, 0, len(m.Types))
	for t, p := range m.Types {
		out = append(out, Entry{Key: string(t), Proficiency: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func sortedKeys(m map[string]Proficiency) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
