package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/littertag/internal/models"
)

const (
	// MaxQuantity is the largest quantity accepted for a single tag.
	MaxQuantity = 100

	MinCustomTagLength = 3
	MaxCustomTagLength = 100

	// MaxCustomTags is the most custom tags accepted in one request.
	MaxCustomTags = 10
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrUnknownItem     = errors.New("unknown item")
	ErrQuantity        = fmt.Errorf("quantity must be between 1 and %d", MaxQuantity)
	ErrCustomTag       = fmt.Errorf("custom tags must be between %d and %d characters", MinCustomTagLength, MaxCustomTagLength)
	ErrTooManyTags     = fmt.Errorf("at most %d custom tags are allowed", MaxCustomTags)
	ErrDuplicateTag    = errors.New("duplicate custom tag")
)

// FlattenTags validates a {category: {item: quantity}} payload against the
// catalog and returns it as a list sorted by category then item.
func FlattenTags(in map[string]map[string]int) ([]models.Tag, error) {
	var tags []models.Tag
	for category, items := range in {
		if !models.IsCategory(category) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		for item, qty := range items {
			if !models.IsCategoryItem(category, item) {
				return nil, fmt.Errorf("%w: %q in %q", ErrUnknownItem, item, category)
			}
			if qty < 1 || qty > MaxQuantity {
				return nil, fmt.Errorf("%w: %s.%s=%d", ErrQuantity, category, item, qty)
			}
			tags = append(tags, models.Tag{Category: category, Item: item, Quantity: qty})
		}
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Category != tags[j].Category {
			return tags[i].Category < tags[j].Category
		}
		return tags[i].Item < tags[j].Item
	})
	return tags, nil
}

// NormalizeCustomTags trims custom tags and checks length, count and
// case-insensitive uniqueness. Input order is preserved.
func NormalizeCustomTags(in []string) ([]string, error) {
	if len(in) > MaxCustomTags {
		return nil, ErrTooManyTags
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		tag := strings.TrimSpace(raw)
		n := utf8.RuneCountInString(tag)
		if n < MinCustomTagLength || n > MaxCustomTagLength {
			return nil, fmt.Errorf("%w: %q", ErrCustomTag, tag)
		}
		key := strings.ToLower(tag)
		if seen[key] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTag, tag)
		}
		seen[key] = true
		out = append(out, tag)
	}
	return out, nil
}
