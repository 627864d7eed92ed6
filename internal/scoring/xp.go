// Package scoring implements the XP rule and the tag arithmetic behind it.
package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mmynk/littertag/internal/models"
)

// UploadXP is awarded for every uploaded photo and taken back when it is deleted.
const UploadXP = 1

// CustomTagXP is awarded per custom tag newly attached to a photo.
const CustomTagXP = 1

// PhotoXP computes the XP earned by tagging one photo.
// Each category tag is worth its quantity; each newly attached custom tag
// is worth CustomTagXP. The two kinds are summed independently.
//
// Example: smoking.butts=3 plus three custom tags gives 3 + 3 = 6.
func PhotoXP(tags []models.Tag, newCustomTags int) int {
	return TotalLitter(tags) + newCustomTags*CustomTagXP
}

// TotalLitter sums the quantities of tags.
func TotalLitter(tags []models.Tag) int {
	total := 0
	for _, t := range tags {
		total += t.Quantity
	}
	return total
}

// CategoryTotals sums quantities per category.
func CategoryTotals(tags []models.Tag) map[string]int {
	totals := make(map[string]int)
	for _, t := range tags {
		totals[t.Category] += t.Quantity
	}
	return totals
}

// ResultString compiles a stable summary of tags in the form
// "category.item quantity", sorted and comma separated.
func ResultString(tags []models.Tag) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = fmt.Sprintf("%s.%s %d", t.Category, t.Item, t.Quantity)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
