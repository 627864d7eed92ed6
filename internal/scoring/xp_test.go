package scoring

import (
	"errors"
	"testing"

	"github.com/mmynk/littertag/internal/models"
)

func TestPhotoXP(t *testing.T) {
	tests := []struct {
		name       string
		tags       []models.Tag
		customTags int
		want       int
	}{
		{
			name: "single category tag counts its quantity",
			tags: []models.Tag{{Category: "smoking", Item: "butts", Quantity: 3}},
			want: 3,
		},
		{
			name:       "custom tags count one each",
			customTags: 3,
			want:       3,
		},
		{
			name:       "category and custom tags sum independently",
			tags:       []models.Tag{{Category: "smoking", Item: "butts", Quantity: 3}},
			customTags: 3,
			want:       6,
		},
		{
			name: "multiple categories",
			tags: []models.Tag{
				{Category: "smoking", Item: "butts", Quantity: 3},
				{Category: "alcohol", Item: "beerCan", Quantity: 2},
				{Category: "coffee", Item: "coffeeCups", Quantity: 1},
			},
			want: 6,
		},
		{
			name: "nothing earns nothing",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PhotoXP(tt.tags, tt.customTags)
			if got != tt.want {
				t.Errorf("PhotoXP() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPhotoXP_AcrossPhotos(t *testing.T) {
	// The same payload applied to two photos earns twice the per-photo XP.
	tags := []models.Tag{{Category: "smoking", Item: "butts", Quantity: 3}}

	total := 0
	for i := 0; i < 2; i++ {
		total += PhotoXP(tags, 3)
	}
	if total != 12 {
		t.Errorf("total XP = %d, want 12", total)
	}
}

func TestCategoryTotals(t *testing.T) {
	totals := CategoryTotals([]models.Tag{
		{Category: "smoking", Item: "butts", Quantity: 3},
		{Category: "smoking", Item: "lighters", Quantity: 1},
		{Category: "food", Item: "napkins", Quantity: 2},
	})

	if totals["smoking"] != 4 {
		t.Errorf("smoking = %d, want 4", totals["smoking"])
	}
	if totals["food"] != 2 {
		t.Errorf("food = %d, want 2", totals["food"])
	}
	if len(totals) != 2 {
		t.Errorf("expected 2 categories, got %d", len(totals))
	}
}

func TestResultString(t *testing.T) {
	got := ResultString([]models.Tag{
		{Category: "smoking", Item: "butts", Quantity: 3},
		{Category: "alcohol", Item: "beerCan", Quantity: 1},
	})
	want := "alcohol.beerCan 1,smoking.butts 3"
	if got != want {
		t.Errorf("ResultString() = %q, want %q", got, want)
	}

	if got := ResultString(nil); got != "" {
		t.Errorf("ResultString(nil) = %q, want empty", got)
	}
}

func TestFlattenTags(t *testing.T) {
	tests := []struct {
		name    string
		in      map[string]map[string]int
		wantErr error
		wantLen int
	}{
		{
			name:    "valid payload",
			in:      map[string]map[string]int{"smoking": {"butts": 3, "lighters": 1}, "coffee": {"coffeeCups": 2}},
			wantLen: 3,
		},
		{
			name:    "unknown category",
			in:      map[string]map[string]int{"spaceships": {"butts": 1}},
			wantErr: ErrUnknownCategory,
		},
		{
			name:    "unknown item",
			in:      map[string]map[string]int{"smoking": {"pizza_box": 1}},
			wantErr: ErrUnknownItem,
		},
		{
			name:    "zero quantity",
			in:      map[string]map[string]int{"smoking": {"butts": 0}},
			wantErr: ErrQuantity,
		},
		{
			name:    "quantity over the limit",
			in:      map[string]map[string]int{"smoking": {"butts": MaxQuantity + 1}},
			wantErr: ErrQuantity,
		},
		{
			name:    "empty payload",
			in:      nil,
			wantLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags, err := FlattenTags(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FlattenTags() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FlattenTags() unexpected error: %v", err)
			}
			if len(tags) != tt.wantLen {
				t.Errorf("len(tags) = %d, want %d", len(tags), tt.wantLen)
			}
		})
	}
}

func TestFlattenTags_Sorted(t *testing.T) {
	tags, err := FlattenTags(map[string]map[string]int{
		"smoking": {"lighters": 1, "butts": 2},
		"alcohol": {"pint": 1},
	})
	if err != nil {
		t.Fatalf("FlattenTags() unexpected error: %v", err)
	}

	want := []string{"alcohol.pint", "smoking.butts", "smoking.lighters"}
	for i, tag := range tags {
		if got := tag.Category + "." + tag.Item; got != want[i] {
			t.Errorf("tags[%d] = %s, want %s", i, got, want[i])
		}
	}
}

func TestNormalizeCustomTags(t *testing.T) {
	t.Run("trims and keeps order", func(t *testing.T) {
		got, err := NormalizeCustomTags([]string{" tag1", "tag2 ", "tag3"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"tag1", "tag2", "tag3"}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("rejects short tags", func(t *testing.T) {
		if _, err := NormalizeCustomTags([]string{"ab"}); !errors.Is(err, ErrCustomTag) {
			t.Errorf("error = %v, want %v", err, ErrCustomTag)
		}
	})

	t.Run("rejects case-insensitive duplicates", func(t *testing.T) {
		if _, err := NormalizeCustomTags([]string{"Beach", "beach"}); !errors.Is(err, ErrDuplicateTag) {
			t.Errorf("error = %v, want %v", err, ErrDuplicateTag)
		}
	})

	t.Run("rejects too many tags", func(t *testing.T) {
		in := make([]string, MaxCustomTags+1)
		for i := range in {
			in[i] = "tag-" + string(rune('a'+i))
		}
		if _, err := NormalizeCustomTags(in); !errors.Is(err, ErrTooManyTags) {
			t.Errorf("error = %v, want %v", err, ErrTooManyTags)
		}
	})
}
