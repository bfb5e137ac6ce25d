package core

// DefaultCategories is the fixed category set offered by the entry form.
var DefaultCategories = []string{
	"Food",
	"Transport",
	"Housing",
	"Utilities",
	"Entertainment",
	"Health",
	"Shopping",
	"Education",
	"Salary",
	"Other",
}

// CategorySet is a lookup of allowed category labels. A nil set allows any
// non-empty label.
type CategorySet map[string]struct{}

func NewCategorySet(names []string) CategorySet {
	set := make(CategorySet, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Allows reports whether name may be used as a category.
func (s CategorySet) Allows(name string) bool {
	if s == nil {
		return name != ""
	}
	_, ok := s[name]
	return ok
}
