package genre

// CanonicalAliases maps slugified spellings that fans type to canonical genre slugs.
var CanonicalAliases = map[string][]string{
	// Electronic
	"edm":           {"electronic"},
	"electronica":   {"electronic"},
	"dnb":           {"drum-and-bass"},
	"d-b":           {"drum-and-bass"},
	"drum-n-bass":   {"drum-and-bass"},
	"drum-bass":     {"drum-and-bass"},
	"jungle":        {"drum-and-bass"},
	"deep":          {"deep-house"},
	"tech":          {"tech-house"},
	"trance-music":  {"trance"},
	"dubstep-music": {"dubstep"},

	// Hip-Hop
	"hiphop":  {"hip-hop"},
	"hip-hop": {"hip-hop"},
	"rap":     {"hip-hop"},
	"r-b":     {"r-and-b"},
	"rnb":     {"r-and-b"},

	// Rock
	"rock-n-roll": {"rock"},
	"alt-rock":    {"alternative-rock"},
	"alternative": {"alternative-rock"},
	"punk-rock":   {"punk"},
	"metal":       {"heavy-metal"},

	// Mixed bills
	"indie-electronic": {"indie", "electronic"},
	"jazz-funk":        {"jazz", "funk"},
}

// NormalizeToSlugs maps a raw genre string to canonical slug(s).
// Unknown spellings come back as their own slug.
func NormalizeToSlugs(raw string) []string {
	slug := Slugify(raw)
	if slug == "" {
		return nil
	}
	if canonical, ok := CanonicalAliases[slug]; ok {
		return canonical
	}
	return []string{slug}
}
