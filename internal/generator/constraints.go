package generator

import (
	"strings"

	"alcyxob/fitplan/internal/domain"
)

// Bodyweight is allowed for every user whatever their equipment list says.
const Bodyweight = "bodyweight"

// NormalizeEquipment lowercases and trims tags, dropping blanks and repeats.
// Order of first appearance is kept.
func NormalizeEquipment(tags []string) []string {
	return normalizeTags(tags)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// EnforceEquipment narrows plan.Equipment to the tags the user actually has.
// Only the plan-level list is touched.
func EnforceEquipment(plan *domain.WorkoutPlan, allowed []string) {
	allowedSet := map[string]struct{}{Bodyweight: {}}
	for _, a := range NormalizeEquipment(allowed) {
		allowedSet[a] = struct{}{}
	}

	kept := make([]string, 0, len(plan.Equipment))
	for _, e := range NormalizeEquipment(plan.Equipment) {
		if _, ok := allowedSet[e]; ok {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		kept = []string{Bodyweight}
	}
	plan.Equipment = kept
}
