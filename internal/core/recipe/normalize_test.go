package recipe

import (
	"encoding/json"
	"reflect"
	"testing"
)

func obj(kv ...interface{}) map[string]interface{} {
	m := map[string]interface{}{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

func TestNormalizeIngredients(t *testing.T) {
	tests := []struct {
		name        string
		raw         []RawEntry
		want        []Ingredient
		wantDropped []int
	}{
		{
			name: "CanonicalObject",
			raw:  Entries(obj("name", "Water", "amount", "1L")),
			want: []Ingredient{{Name: "Water", Amount: "1L"}},
		},
		{
			name: "TrimsValues",
			raw:  Entries(obj("name", "  Salt ", "amount", " 1 tsp ")),
			want: []Ingredient{{Name: "Salt", Amount: "1 tsp"}},
		},
		{
			name: "FallbackKeys",
			raw:  Entries(obj("ingredient", "Flour", "quantity", "200g")),
			want: []Ingredient{{Name: "Flour", Amount: "200g"}},
		},
		{
			name: "EmptyPrimaryFallsBack",
			raw:  Entries(obj("name", "", "ingredient", "Egg", "amount", "  ", "quantity", "2")),
			want: []Ingredient{{Name: "Egg", Amount: "2"}},
		},
		{
			name: "NumericAmount",
			raw:  Entries(obj("name", "Eggs", "amount", json.Number("3"))),
			want: []Ingredient{{Name: "Eggs", Amount: "3"}},
		},
		{
			name: "ColonString",
			raw:  Entries("Sugar: 2 tbsp", "Time: 10:30"),
			want: []Ingredient{{Name: "Sugar", Amount: "2 tbsp"}, {Name: "Time", Amount: "10:30"}},
		},
		{
			name:        "StringWithoutColon",
			raw:         Entries("just pepper"),
			want:        []Ingredient{},
			wantDropped: []int{0},
		},
		{
			name:        "ColonWithEmptySide",
			raw:         Entries(": 1 cup", "Milk:   "),
			want:        []Ingredient{},
			wantDropped: []int{0, 1},
		},
		{
			name: "MissingKeysDropped",
			raw: Entries(
				obj("name", "Oil", "amount", "1 tbsp"),
				obj("name", "Rice"),
				obj("amount", "1 cup"),
				obj("label", "Basil", "size", "a handful"),
				obj("name", "Garlic", "quantity", "2 cloves"),
			),
			want: []Ingredient{
				{Name: "Oil", Amount: "1 tbsp"},
				{Name: "Garlic", Amount: "2 cloves"},
			},
			wantDropped: []int{1, 2, 3},
		},
		{
			name:        "NestedValuesAreNotText",
			raw:         Entries(obj("name", obj("en", "Lime"), "amount", []interface{}{"1"})),
			want:        []Ingredient{},
			wantDropped: []int{0},
		},
		{
			name:        "OtherShapesDropped",
			raw:         Entries(float64(42), nil, []interface{}{"a"}, obj("name", "Lemon", "amount", "1")),
			want:        []Ingredient{{Name: "Lemon", Amount: "1"}},
			wantDropped: []int{0, 1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeIngredients(tt.raw)
			if !reflect.DeepEqual(got.Entries, tt.want) {
				t.Errorf("Entries = %+v, want %+v", got.Entries, tt.want)
			}
			if !reflect.DeepEqual(got.Dropped, tt.wantDropped) {
				t.Errorf("Dropped = %v, want %v", got.Dropped, tt.wantDropped)
			}
			if len(got.Entries)+len(got.Dropped) != len(tt.raw) {
				t.Errorf("every entry must be kept or dropped exactly once")
			}
		})
	}
}

func TestNormalizeSteps(t *testing.T) {
	raw := Entries(
		obj("description", "Boil water"),
		obj("instruction", "Add pasta"),
		obj("step", "Drain"),
		obj("description", "  ", "instruction", "Serve"),
		"  Plate it  ",
		"   ",
		obj("order", 3),
	)

	got := NormalizeSteps(raw)
	want := []Step{
		{Description: "Boil water"},
		{Description: "Add pasta"},
		{Description: "Drain"},
		{Description: "Serve"},
		{Description: "Plate it"},
	}
	if !reflect.DeepEqual(got.Entries, want) {
		t.Errorf("Entries = %+v, want %+v", got.Entries, want)
	}
	if !reflect.DeepEqual(got.Dropped, []int{5, 6}) {
		t.Errorf("Dropped = %v", got.Dropped)
	}
}

func TestNormalizeTips(t *testing.T) {
	got := NormalizeTips(Entries(obj("tip", "Salt the water"), obj("description", "Use fresh herbs"), "Rest the dough", ""))
	want := []Tip{
		{Description: "Salt the water"},
		{Description: "Use fresh herbs"},
		{Description: "Rest the dough"},
	}
	if !reflect.DeepEqual(got.Entries, want) {
		t.Errorf("Entries = %+v, want %+v", got.Entries, want)
	}

	t.Run("AllEmptyIsNotAnError", func(t *testing.T) {
		got := NormalizeTips(Entries("", obj("tip", " ")))
		if got.Entries == nil || len(got.Entries) != 0 {
			t.Errorf("Entries = %#v, want empty non-nil slice", got.Entries)
		}
	})
}

func TestNormalizeEmptyInput(t *testing.T) {
	if got := NormalizeIngredients(nil).Entries; got == nil || len(got) != 0 {
		t.Errorf("NormalizeIngredients(nil) = %#v", got)
	}
	if got := NormalizeSteps([]RawEntry{}).Entries; got == nil || len(got) != 0 {
		t.Errorf("NormalizeSteps([]) = %#v", got)
	}
	if got := NormalizeTips([]RawEntry{}).Entries; got == nil || len(got) != 0 {
		t.Errorf("NormalizeTips([]) = %#v", got)
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	raw := Entries(
		obj("name", "Water", "amount", "1L"),
		"Salt: pinch",
		obj("ingredient", "Pepper"),
		"noise",
	)

	first := NormalizeIngredients(raw)
	second := NormalizeIngredients(raw)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization is not deterministic: %+v vs %+v", first, second)
	}
}

func TestRawEntryJSON(t *testing.T) {
	var raw []RawEntry
	input := `[{"name":"Water","amount":"1L"},"Salt: pinch",7,null,{"quantity":2,"ingredient":"Eggs"}]`
	if err := json.Unmarshal([]byte(input), &raw); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	kinds := []EntryKind{EntryObject, EntryString, EntryInvalid, EntryInvalid, EntryObject}
	for i, k := range kinds {
		if raw[i].Kind() != k {
			t.Errorf("raw[%d].Kind() = %s, want %s", i, raw[i].Kind(), k)
		}
	}

	got := NormalizeIngredients(raw)
	want := []Ingredient{
		{Name: "Water", Amount: "1L"},
		{Name: "Salt", Amount: "pinch"},
		{Name: "Eggs", Amount: "2"},
	}
	if !reflect.DeepEqual(got.Entries, want) {
		t.Errorf("Entries = %+v, want %+v", got.Entries, want)
	}

	out, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `[{"amount":"1L","name":"Water"},"Salt: pinch",7,null,{"ingredient":"Eggs","quantity":2}]` {
		t.Errorf("Marshal() = %s", out)
	}
}
