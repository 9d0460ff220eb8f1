// Package categorizer assigns one of a fixed set of civic issue categories to
// a citizen report using a multimodal model backend.
package categorizer

// Category is one of the five civic issue classifications.
type Category string

const (
	Garbage      Category = "garbage"
	Drainage     Category = "drainage"
	Potholes     Category = "potholes"
	Streetlights Category = "streetlights"
	Other        Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{Garbage, Drainage, Potholes, Streetlights, Other}

func (c Category) String() string { return string(c) }

// Valid reports whether c is a member of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Parse maps raw backend text onto a Category. Only an exact member of the set
// is accepted.
func Parse(s string) (Category, bool) {
	c := Category(s)
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// Names returns the categories as plain strings.
func Names() []string {
	out := make([]string, len(Categories))
	for i, c := range Categories {
		out[i] = string(c)
	}
	return out
}
