package normalize

import "strings"

// exerciseSynonyms folds common spelling variants onto one catalog name.
var exerciseSynonyms = map[string]string{
	"런닝":    "달리기",
	"러닝":    "달리기",
	"런닝머신":  "트레드밀",
	"워킹":    "걷기",
	"사이클":   "자전거",
	"사이클링":  "자전거",
	"팔굽혀펴기": "푸시업",
	"턱걸이":   "풀업",
	"윗몸일으키기": "싯업",
}

// ExerciseName canonicalizes an exercise name for catalog resolution: trims,
// collapses internal whitespace, lower-cases latin letters, and folds known
// synonyms.
func ExerciseName(name string) string {
	n := strings.Join(strings.Fields(name), " ")
	n = strings.ToLower(n)
	n = strings.ReplaceAll(n, "-", "")
	if canonical, ok := exerciseSynonyms[n]; ok {
		return canonical
	}
	return n
}
