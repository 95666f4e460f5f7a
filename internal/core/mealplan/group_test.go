package mealplan

import (
	"testing"

	"perfect-recipe/internal/pkg/common"
)

func entry(id int64, date, mealType string) Entry {
	return Entry{ID: id, Date: date, MealType: mealType, Recipe: RecipeRef{ID: id * 10, Title: "Recipe"}}
}

func TestGroupByDate(t *testing.T) {
	entries := []Entry{
		entry(1, "2024-03-20T00:00:00", MealBreakfast),
		entry(2, "2024-03-20T08:00:00", MealLunch),
		entry(3, "2024-03-21T00:00:00", MealDinner),
	}

	groups := GroupByDate(entries)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if groups[0].Date != "2024-03-20" || len(groups[0].Entries) != 2 {
		t.Errorf("groups[0] = %+v", groups[0])
	}
	if groups[1].Date != "2024-03-21" || len(groups[1].Entries) != 1 {
		t.Errorf("groups[1] = %+v", groups[1])
	}
	if groups[0].Entries[0].ID != 1 || groups[0].Entries[1].ID != 2 {
		t.Errorf("relative order not kept: %+v", groups[0].Entries)
	}
}

func TestGroupByDateEdgeCases(t *testing.T) {
	t.Run("DatelessExcluded", func(t *testing.T) {
		groups := GroupByDate([]Entry{entry(1, "", MealLunch), entry(2, "2024-03-20", MealDinner)})
		if len(groups) != 1 || groups[0].Entries[0].ID != 2 {
			t.Errorf("groups = %+v", groups)
		}
	})

	t.Run("FirstAppearanceOrder", func(t *testing.T) {
		groups := GroupByDate([]Entry{
			entry(1, "2024-03-22T12:00:00", MealLunch),
			entry(2, "2024-03-20T12:00:00", MealLunch),
			entry(3, "2024-03-22T19:00:00", MealDinner),
		})
		if len(groups) != 2 || groups[0].Date != "2024-03-22" || groups[1].Date != "2024-03-20" {
			t.Errorf("groups = %+v", groups)
		}
		if len(groups[0].Entries) != 2 || groups[0].Entries[1].ID != 3 {
			t.Errorf("groups[0] = %+v", groups[0])
		}
	})

	t.Run("SpaceSeparatedTimestamp", func(t *testing.T) {
		if got := DateKey("2024-03-20 08:00:00"); got != "2024-03-20" {
			t.Errorf("DateKey() = %q", got)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if groups := GroupByDate(nil); groups == nil || len(groups) != 0 {
			t.Errorf("GroupByDate(nil) = %#v", groups)
		}
	})
}

func TestPreferencesValidate(t *testing.T) {
	if err := DefaultPreferences().Validate(); err != nil {
		t.Errorf("default preferences invalid: %v", err)
	}

	tests := []struct {
		name      string
		prefs     Preferences
		wantField string
	}{
		{"ZeroDays", Preferences{NumDays: 0, MealTypes: []string{MealLunch}}, "num_days"},
		{"TooManyDays", Preferences{NumDays: 31, MealTypes: []string{MealLunch}}, "num_days"},
		{"NoMealTypes", Preferences{NumDays: 3}, "meal_types"},
		{"UnknownMealType", Preferences{NumDays: 3, MealTypes: []string{"Brunch"}}, "meal_types"},
		{"NegativeCookingTime", Preferences{NumDays: 3, MealTypes: []string{MealSnack}, MaxCookingTime: -1}, "max_cooking_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, ok := common.AsCustomError(tt.prefs.Validate())
			if !ok || ce.Code != common.ErrCodeValidation {
				t.Fatalf("Validate() = %v, want validation error", ce)
			}
			if ce.Fields[tt.wantField] == "" {
				t.Errorf("Fields = %v, want %s", ce.Fields, tt.wantField)
			}
		})
	}
}
