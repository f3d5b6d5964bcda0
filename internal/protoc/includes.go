package protoc

import "path/filepath"

// IncludeSet is an ordered set of -I directories. Empty entries are
// dropped and duplicates (after filepath.Clean) collapse to the first.
type IncludeSet struct {
	dirs []string
	seen map[string]struct{}
}

func NewIncludeSet(dirs ...string) *IncludeSet {
	s := &IncludeSet{seen: make(map[string]struct{})}
	s.Add(dirs...)
	return s
}

func (s *IncludeSet) Add(dirs ...string) {
	for _, d := range dirs {
		if d == "" {
			continue
		}
		key := filepath.Clean(d)
		if _, ok := s.seen[key]; ok {
			continue
		}
		s.seen[key] = struct{}{}
		s.dirs = append(s.dirs, d)
	}
}

func (s *IncludeSet) Dirs() []string {
	out := make([]string, len(s.dirs))
	copy(out, s.dirs)
	return out
}
