package genre

// Seed defines a genre for seeding the default taxonomy.
type Seed struct {
	Name     string
	Children []Seed
}

// DefaultGenres is the taxonomy created on first start.
// Editors can reshape it afterwards from the admin pages.
var DefaultGenres = []Seed{
	{
		Name: "Electronic",
		Children: []Seed{
			{
				Name: "House",
				Children: []Seed{
					{Name: "Deep House"},
					{Name: "Tech House"},
					{Name: "Progressive House"},
					{Name: "Afro House"},
				},
			},
			{
				Name: "Techno",
				Children: []Seed{
					{Name: "Minimal Techno"},
					{Name: "Hard Techno"},
					{Name: "Melodic Techno"},
				},
			},
			{Name: "Drum & Bass"},
			{Name: "Dubstep"},
			{Name: "Trance"},
			{Name: "Ambient"},
		},
	},
	{
		Name: "Rock",
		Children: []Seed{
			{Name: "Alternative Rock"},
			{Name: "Indie"},
			{Name: "Punk"},
			{Name: "Heavy Metal"},
			{Name: "Classic Rock"},
		},
	},
	{
		Name: "Hip-Hop",
		Children: []Seed{
			{Name: "Trap"},
			{Name: "Boom Bap"},
			{Name: "Grime"},
		},
	},
	{
		Name: "R&B",
		Children: []Seed{
			{Name: "Soul"},
			{Name: "Neo Soul"},
		},
	},
	{
		Name: "Jazz",
		Children: []Seed{
			{Name: "Bebop"},
			{Name: "Jazz Fusion"},
			{Name: "Funk"},
		},
	},
	{
		Name: "Pop",
		Children: []Seed{
			{Name: "K-Pop"},
			{Name: "Synth-Pop"},
			{Name: "Dance Pop"},
		},
	},
	{Name: "Latin", Children: []Seed{{Name: "Reggaeton"}, {Name: "Salsa"}}},
	{Name: "Classical", Children: []Seed{{Name: "Opera"}, {Name: "Chamber Music"}}},
	{Name: "Country"},
	{Name: "Folk"},
}

// SeedCount returns the number of genres in seeds, including nested children.
func SeedCount(seeds []Seed) int {
	n := len(seeds)
	for _, s := range seeds {
		n += SeedCount(s.Children)
	}
	return n
}
