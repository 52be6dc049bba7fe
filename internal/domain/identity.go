package domain

import "strings"

// ActivityID derives the dedup key of an activity from its period, course,
// due text and kind. Whitespace runs collapse to a single '-', so two
// renderings of the same row that only differ in spacing share an id.
//
// The id is not injective. A space and a hyphen inside a field render the
// same ("A B" and "A-B"), and since fields are joined with '-' a hyphen can
// move across a field boundary: course "X-1" with due "2" matches course
// "X" with due "1-2". Such rows are treated as one activity.
//
// The result depends on nothing but those four fields: no salt, no clock.
// Changing this function invalidates every stored snapshot.
func ActivityID(a Activity) string {
	raw := strings.Join([]string{
		strings.TrimSpace(a.Period),
		strings.TrimSpace(a.Course),
		strings.TrimSpace(a.DueText),
		strings.TrimSpace(a.Kind),
	}, "-")
	return strings.Join(strings.Fields(raw), "-")
}

// AssignIDs sets ID on every activity in place.
func AssignIDs(activities []Activity) {
	for i := range activities {
		activities[i].ID = ActivityID(activities[i])
	}
}
