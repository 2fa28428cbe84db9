package idgen

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorGeneratesUniqueSortableIDs(t *testing.T) {
	g := NewULIDGenerator()

	prev := ""
	seen := make(map[string]struct{})
	for range 1000 {
		id := g.Generate()

		if _, err := ulid.ParseStrict(id); err != nil {
			t.Fatalf("generated id %q is not a ULID: %v", id, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %q after %q", id, prev)
		}

		seen[id] = struct{}{}
		prev = id
	}
}
