package models

import "sort"

// Tag is a category tag on a photo, e.g. smoking.butts with quantity 3.
type Tag struct {
	Category string `json:"category"`
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// CustomTag is a free-text label attached to a photo.
type CustomTag struct {
	// ID is the unique identifier for the custom tag (UUID format).
	ID string `json:"id"`

	PhotoID string `json:"photo_id"`
	Tag     string `json:"tag"`

	// CreatedAt is the Unix timestamp when the tag was attached.
	CreatedAt int64 `json:"created_at"`
}

// catalog lists the items that may be tagged in each category.
var catalog = map[string][]string{
	"smoking": {
		"butts", "lighters", "cigaretteBox", "tobaccoPouch", "skins",
		"smoking_plastic", "filters", "filterbox", "vape_pen", "vape_oil",
	},
	"food": {
		"sweetWrappers", "paperFoodPackaging", "plasticFoodPackaging", "plasticCutlery",
		"crisp_small", "crisp_large", "styrofoam_plate", "napkins", "sauce_packet",
		"glass_jar", "glass_jar_lid", "pizza_box", "aluminium_foil",
	},
	"coffee": {
		"coffeeCups", "coffeeLids",
	},
	"alcohol": {
		"beerBottle", "spiritBottle", "wineBottle", "beerCan", "brokenGlass",
		"bottleTops", "paperCardAlcoholPackaging", "plasticAlcoholPackaging",
		"six_pack_rings", "alcohol_plastic_cups", "pint",
	},
	"softdrinks": {
		"waterBottle", "fizzyDrinkBottle", "tinCan", "bottleLid", "bottleLabel",
		"sportsDrink", "straws", "plastic_cups", "plastic_cup_tops", "milk_bottle",
		"milk_carton", "paper_cups", "juice_cartons", "juice_bottles", "juice_packet",
		"ice_tea_bottles", "ice_tea_can", "energy_can", "pullring", "strawpacket",
		"styro_cup",
	},
	"sanitary": {
		"gloves", "facemask", "condoms", "nappies", "menstral", "deodorant",
		"ear_swabs", "tooth_pick", "tooth_brush", "wetwipes", "hand_sanitiser",
	},
	"other": {
		"dogshit", "pooinbag", "plastic", "dump", "metal", "plastic_bags",
		"election_posters", "forsale_posters", "books", "magazine", "paper",
		"stationary", "washing_up", "hair_tie", "ear_plugs", "batteries",
		"elec_small", "elec_large", "random_litter", "balloons", "bags_litter",
		"cable_tie", "tyre", "overflowing_bins",
	},
	"coastal": {
		"microplastics", "mediumplastics", "macroplastics", "rope_small",
		"rope_medium", "rope_large", "fishing_gear_nets", "buoys",
		"degraded_plasticbottle", "degraded_plasticbag", "degraded_straws",
		"degraded_lighters", "balloons", "lego", "shotgun_cartridges",
		"styro_small", "styro_medium", "styro_large",
	},
}

var catalogIndex = func() map[string]map[string]bool {
	idx := make(map[string]map[string]bool, len(catalog))
	for category, items := range catalog {
		set := make(map[string]bool, len(items))
		for _, item := range items {
			set[item] = true
		}
		idx[category] = set
	}
	return idx
}()

// IsCategory reports whether category exists in the catalog.
func IsCategory(category string) bool {
	_, ok := catalogIndex[category]
	return ok
}

// IsCategoryItem reports whether item may be tagged under category.
func IsCategoryItem(category, item string) bool {
	return catalogIndex[category][item]
}

// Categories returns the catalog's category names in sorted order.
func Categories() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryItems returns a copy of the items allowed in category.
func CategoryItems(category string) []string {
	return append([]string(nil), catalog[category]...)
}
