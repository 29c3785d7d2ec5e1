package quiz

import "github.com/stemsi/exstem-drill/internal/model"

// MergeBanks overlays custom banks on built-in ones. A custom bank whose
// name matches a built-in bank takes that bank's position; the rest are
// appended in their own order. Neither input slice is modified.
func MergeBanks(builtin, custom []model.Bank) []model.Bank {
	merged := make([]model.Bank, len(builtin), len(builtin)+len(custom))
	copy(merged, builtin)

	pos := make(map[string]int, len(merged))
	for i, b := range merged {
		pos[b.Name] = i
	}

	for _, b := range custom {
		b.IsCustom = true
		if i, ok := pos[b.Name]; ok {
			merged[i] = b
			continue
		}
		pos[b.Name] = len(merged)
		merged = append(merged, b)
	}
	return merged
}

// FindBank returns the bank named name.
func FindBank(banks []model.Bank, name string) (model.Bank, bool) {
	for _, b := range banks {
		if b.Name == name {
			return b, true
		}
	}
	return model.Bank{}, false
}
