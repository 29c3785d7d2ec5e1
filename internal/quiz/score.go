package quiz

import (
	"math"
	"slices"

	"github.com/stemsi/exstem-drill/internal/model"
)

// IsCorrect compares a selection with the canonical answer as sets.
func IsCorrect(answer, selection []string) bool {
	want := toSet(answer)
	got := toSet(selection)
	if len(want) != len(got) {
		return false
	}
	for k := range want {
		if _, ok := got[k]; !ok {
			return false
		}
	}
	return true
}

// Percent returns round(correct / total * 100), or 0 when total is 0.
func Percent(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

// Score aggregates selections by question index. Questions without a
// selection count as unanswered, never as incorrect.
func Score(questions []model.Question, selections map[int][]string) model.QuizResult {
	res := model.QuizResult{Questions: len(questions)}
	for i, q := range questions {
		sel := selections[i]
		if len(sel) == 0 {
			res.Unanswered++
			continue
		}
		if IsCorrect(q.Answer, sel) {
			res.Correct++
		} else {
			res.Incorrect++
		}
	}
	res.Total = res.Correct + res.Incorrect
	res.Percent = Percent(res.Correct, res.Total)
	return res
}

// Review lists the answered questions whose selection was incorrect.
func Review(questions []model.Question, selections map[int][]string) []model.ReviewItem {
	items := []model.ReviewItem{}
	for i, q := range questions {
		sel := selections[i]
		if len(sel) == 0 || IsCorrect(q.Answer, sel) {
			continue
		}
		items = append(items, model.ReviewItem{
			Index:       i,
			Question:    q.Clone(),
			Selection:   slices.Clone(sel),
			Answer:      slices.Clone(q.Answer),
			Explanation: q.Explanation,
		})
	}
	return items
}

func toSet(letters []string) map[string]struct{} {
	set := make(map[string]struct{}, len(letters))
	for _, l := range letters {
		set[l] = struct{}{}
	}
	return set
}
