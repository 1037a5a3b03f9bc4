package expand

// The expansion tables are scanned in declaration order; changing entry order
// changes the term order of expanded output, which is part of the observable
// contract (expansion must be deterministic).

type tableEntry struct {
	key   string
	terms []string
}

// synonymTable maps common search phrases to equivalent terms.
var synonymTable = []tableEntry{
	{"apple phone", []string{"iphone", "ios phone", "apple smartphone"}},
	{"apple", []string{"iphone", "ios", "apple inc", "apple device"}},
	{"samsung phone", []string{"samsung", "galaxy", "android samsung"}},
	{"android phone", []string{"android smartphone", "google android", "android device"}},
	{"oneplus", []string{"one plus", "oneplus phone", "android oneplus"}},
	{"one plus", []string{"oneplus", "oneplus device"}},
	{"car", []string{"vehicle", "automobile", "motor vehicle", "auto"}},
	{"bike", []string{"bicycle", "motorcycle", "two wheeler"}},
	{"motorcycle", []string{"bike", "motorbike", "two wheeler"}},
	{"boat", []string{"watercraft", "vessel", "marine vehicle", "water vehicle"}},
	{"dog", []string{"canine", "puppy", "pet dog", "dog pet"}},
	{"cat", []string{"feline", "kitten", "pet cat", "cat pet"}},
	{"pet", []string{"animal", "companion animal"}},
	{"laptop", []string{"notebook", "computer", "portable computer", "notebook computer"}},
	{"phone", []string{"smartphone", "mobile", "cell phone", "mobile phone"}},
	{"tv", []string{"television", "smart tv", "display"}},
	{"house", []string{"home", "property", "residence", "dwelling"}},
	{"apartment", []string{"flat", "unit", "condo"}},
	{"furniture", []string{"furnishing", "home furniture"}},
	{"clothes", []string{"clothing", "apparel", "garments", "wear"}},
	{"book", []string{"books", "literature", "reading material"}},
	{"toy", []string{"toys", "plaything", "children toy"}},
	{"food", []string{"edible", "cuisine", "meal"}},
	{"game", []string{"gaming", "video game", "board game"}},
}

// brandTable maps brand mentions to their product lines.
var brandTable = []tableEntry{
	{"apple", []string{"iphone", "ipad", "macbook", "airpods", "apple watch", "imac"}},
	{"samsung", []string{"galaxy", "samsung phone", "samsung tablet", "samsung tv"}},
	{"oneplus", []string{"oneplus phone", "one plus device", "android phone"}},
	{"one plus", []string{"oneplus phone", "oneplus device", "android phone"}},
	{"lexus", []string{"lexus car", "luxury vehicle", "toyota luxury", "premium car"}},
	{"toyota", []string{"toyota car", "toyota vehicle", "automobile"}},
	{"honda", []string{"honda car", "honda vehicle", "motorcycle"}},
	{"bmw", []string{"bmw car", "luxury car", "german car"}},
	{"mercedes", []string{"mercedes car", "luxury vehicle", "german car"}},
	{"nike", []string{"nike shoes", "sportswear", "athletic wear"}},
	{"adidas", []string{"adidas shoes", "sportswear", "athletic wear"}},
	{"sony", []string{"sony electronics", "playstation", "sony tv"}},
	{"lg", []string{"lg electronics", "lg tv", "lg appliance"}},
}

// categoryTable maps spoken category names to related keywords. Keys use
// spaces, not the underscore form of the category enum.
var categoryTable = []tableEntry{
	{"electronics", []string{"electronic device", "gadget", "tech", "technology"}},
	{"vehicles", []string{"car", "auto", "automobile", "transport", "vehicle"}},
	{"pets", []string{"animal", "pet", "companion", "dog", "cat"}},
	{"furniture", []string{"home furniture", "furnishing", "household"}},
	{"clothing", []string{"clothes", "apparel", "wear", "garment", "fashion"}},
	{"books", []string{"book", "literature", "reading", "publication"}},
	{"sports", []string{"sporting goods", "athletic", "fitness", "sports equipment"}},
	{"toys", []string{"toy", "plaything", "children", "kids"}},
	{"home garden", []string{"home", "garden", "house", "yard", "outdoor"}},
	{"health beauty", []string{"health", "beauty", "cosmetics", "wellness", "personal care"}},
	{"food beverages", []string{"food", "drink", "beverage", "edible", "cuisine"}},
}

// tagRule expands a single listing tag into related corpus terms. Rules are
// checked in order and the first match wins for a given tag.
type tagRule struct {
	contains []string
	excludes []string
	terms    []string
}

var tagRules = []tagRule{
	{contains: []string{"iphone", "apple"}, terms: []string{"Apple smartphone", "iOS phone", "Apple device"}},
	{contains: []string{"samsung"}, terms: []string{"Samsung smartphone", "Android phone", "Galaxy device"}},
	{contains: []string{"oneplus", "one plus"}, terms: []string{"OnePlus smartphone", "Android phone", "One Plus device"}},
	{contains: []string{"lexus"}, terms: []string{"Lexus vehicle", "luxury car", "Toyota premium brand"}},
	{contains: []string{"toyota"}, terms: []string{"Toyota vehicle", "automobile", "car"}},
	{contains: []string{"honda"}, terms: []string{"Honda vehicle", "automobile", "car", "motorcycle"}},
	{contains: []string{"retriever", "dog"}, terms: []string{"pet dog", "canine", "puppy", "animal companion"}},
	{contains: []string{"cat"}, terms: []string{"pet cat", "feline", "kitten", "animal companion"}},
	{contains: []string{"boat"}, terms: []string{"water vessel", "marine vehicle", "watercraft"}},
	{contains: []string{"laptop", "notebook"}, terms: []string{"portable computer", "laptop computer", "notebook computer"}},
	{contains: []string{"phone"}, excludes: []string{"iphone"}, terms: []string{"smartphone", "mobile phone", "cell phone"}},
}
