package patterns

import (
	"fmt"
	"regexp"
	"sort"
)

// #region category

// Category is a named, ordered list of compiled case-insensitive patterns.
// A Category is immutable once compiled.
type Category struct {
	name     string
	sources  []string
	compiled []*regexp.Regexp
}

// Compile builds a Category. An invalid pattern is a construction error.
func Compile(name string, sources []string) (Category, error) {
	c := Category{
		name:     name,
		sources:  append([]string(nil), sources...),
		compiled: make([]*regexp.Regexp, 0, len(sources)),
	}
	for _, src := range sources {
		re, err := regexp.Compile("(?i)" + src)
		if err != nil {
			return Category{}, fmt.Errorf("compile %s pattern %q: %w", name, src, err)
		}
		c.compiled = append(c.compiled, re)
	}
	return c, nil
}

// MustCompile is Compile for static tables; it panics on an invalid pattern.
func MustCompile(name string, sources ...string) Category {
	c, err := Compile(name, sources)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the category name.
func (c Category) Name() string { return c.name }

// Sources returns a copy of the pattern sources in declaration order.
func (c Category) Sources() []string {
	return append([]string(nil), c.sources...)
}

// Count sums every non-overlapping match of every pattern in text.
func (c Category) Count(text string) int {
	n := 0
	for _, re := range c.compiled {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n
}

// Any reports whether at least one pattern matches text.
func (c Category) Any(text string) bool {
	for _, re := range c.compiled {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// #endregion category

// #region table

// Table maps category names to pattern sources. It is the swappable,
// serializable form of a Library.
type Table map[string][]string

// MergeMode controls how an override Table is applied to a base Table.
type MergeMode string

const (
	// MergeReplace swaps a category's patterns for the override's.
	MergeReplace MergeMode = "replace"
	// MergeExtend appends the override's patterns after the base patterns.
	MergeExtend MergeMode = "extend"
)

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Merge returns a new Table with override applied to a copy of t.
// Neither t nor override is modified. An empty mode means MergeReplace.
func (t Table) Merge(override Table, mode MergeMode) (Table, error) {
	if mode == "" {
		mode = MergeReplace
	}
	if mode != MergeReplace && mode != MergeExtend {
		return nil, fmt.Errorf("unknown merge mode %q", mode)
	}
	out := t.Clone()
	for k, v := range override {
		if mode == MergeExtend {
			out[k] = append(out[k], v...)
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out, nil
}

// #endregion table

// #region library

// Library is an ordered set of compiled categories.
type Library struct {
	order []string
	cats  map[string]Category
}

// NewLibrary compiles the categories listed in order from table. Every name
// in order must be present in table; names not in order are rejected so a
// misspelt override cannot be silently ignored.
func NewLibrary(order []string, table Table) (*Library, error) {
	lib := &Library{
		order: append([]string(nil), order...),
		cats:  make(map[string]Category, len(order)),
	}
	known := make(map[string]bool, len(order))
	for _, name := range order {
		known[name] = true
		sources, ok := table[name]
		if !ok {
			return nil, fmt.Errorf("missing category %q", name)
		}
		cat, err := Compile(name, sources)
		if err != nil {
			return nil, err
		}
		lib.cats[cat.Name()] = cat
	}
	var unknown []string
	for name := range table {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown categories %v", unknown)
	}
	return lib, nil
}

// Names returns the category names in declaration order.
func (l *Library) Names() []string {
	return append([]string(nil), l.order...)
}

// Category returns the named category.
func (l *Library) Category(name string) (Category, bool) {
	c, ok := l.cats[name]
	return c, ok
}

// Count returns the match count for one category, 0 if it is unknown.
func (l *Library) Count(name, text string) int {
	c, ok := l.cats[name]
	if !ok {
		return 0
	}
	return c.Count(text)
}

// Counts returns the match count of every category.
func (l *Library) Counts(text string) map[string]int {
	out := make(map[string]int, len(l.order))
	for _, name := range l.order {
		out[name] = l.cats[name].Count(text)
	}
	return out
}

// Table returns the source table the library was compiled from.
func (l *Library) Table() Table {
	out := make(Table, len(l.order))
	for _, name := range l.order {
		out[name] = l.cats[name].Sources()
	}
	return out
}

// #endregion library
