package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Identifier is an opaque vendor identifier. The vendor emits ids as strings
// or numbers depending on the environment; both decode to the same value and a
// blank id decodes to the zero Identifier ("absent").
type Identifier string

func (id Identifier) String() string { return string(id) }

func (id Identifier) Empty() bool { return id == "" }

func (id *Identifier) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*id = Identifier(strings.TrimSpace(raw))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		// Objects, arrays and booleans are not identifiers.
		*id = ""
		return nil
	}
	*id = Identifier(num.String())
	return nil
}

// IdentifierSet is the equivalence class of identifiers that refer to the same
// logical entitlement across environments and snapshots. The zero value is an
// empty, usable set. Members keep insertion order.
type IdentifierSet struct {
	order   []string
	members map[string]struct{}
}

// NewIdentifierSet builds a set from the non-empty identifiers given.
func NewIdentifierSet(ids ...Identifier) IdentifierSet {
	var set IdentifierSet
	for _, id := range ids {
		set.Add(id)
	}
	return set
}

// Add inserts id unless it is empty or already present.
func (s *IdentifierSet) Add(id Identifier) {
	if id.Empty() {
		return
	}
	if s.members == nil {
		s.members = make(map[string]struct{})
	}
	if _, ok := s.members[string(id)]; ok {
		return
	}
	s.members[string(id)] = struct{}{}
	s.order = append(s.order, string(id))
}

// Has reports whether id is a member. The empty identifier is never a member.
func (s IdentifierSet) Has(id Identifier) bool {
	if id.Empty() {
		return false
	}
	_, ok := s.members[string(id)]
	return ok
}

func (s IdentifierSet) Len() int { return len(s.order) }

func (s IdentifierSet) Empty() bool { return len(s.order) == 0 }

// Values returns a copy of the members in insertion order.
func (s IdentifierSet) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
