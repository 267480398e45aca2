package zone

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Record type names that are part of every zone and therefore exempt from
// ownership conflict checks.
const (
	RRTypeSOA = "SOA"
	RRTypeNS  = "NS"
	RRTypeTXT = "TXT"
)

// Changetypes understood by the PowerDNS zone PATCH endpoint.
const (
	ChangeReplace = "REPLACE"
	ChangeDelete  = "DELETE"
)

// Key identifies an RRSet within a zone.
type Key struct {
	Name string
	Type string
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s", k.Name, k.Type)
}

// Record is a single resource record within an RRSet. SetPTR is only
// populated for records whose input item requested a reverse pointer; the
// server never returns it.
type Record struct {
	Content  string `json:"content"`
	Disabled bool   `json:"disabled"`
	SetPTR   *bool  `json:"set-ptr,omitempty"`
}

// RRSet is a set of resource records sharing one name, type and TTL.
type RRSet struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Records []Record `json:"records"`
	TTL     uint32   `json:"ttl"`
}

// Key returns the identity of the RRSet within its zone.
func (rs RRSet) Key() Key {
	return Key{Name: rs.Name, Type: rs.Type}
}

// Normalized returns a copy of the RRSet with its records sorted by content.
// Equality between desired and fetched state is always decided on the
// normalized form; the receiver is left untouched.
func (rs RRSet) Normalized() RRSet {
	normalized := rs
	normalized.Records = append([]Record(nil), rs.Records...)
	sort.SliceStable(normalized.Records, func(i, j int) bool {
		return normalized.Records[i].Content < normalized.Records[j].Content
	})
	return normalized
}

// Equal reports whether two RRSets match on name, type, TTL and record
// content, ignoring record order.
func Equal(a, b RRSet) bool {
	if a.Name != b.Name || a.Type != b.Type || a.TTL != b.TTL {
		return false
	}
	return reflect.DeepEqual(a.Normalized().Records, b.Normalized().Records)
}

// Index maps every RRSet of a zone by its (name, type) key. An Index holds
// either the desired target state or the fetched remote state.
type Index map[Key]RRSet

// NewIndex builds an Index from a list of RRSets, enforcing key uniqueness.
func NewIndex(sets []RRSet) (Index, error) {
	index := make(Index, len(sets))
	for _, rs := range sets {
		key := rs.Key()
		if _, exists := index[key]; exists {
			return nil, fmt.Errorf("duplicate RRset for key '%s'", key)
		}
		index[key] = rs
	}
	return index, nil
}

// Clone returns a deep copy of the index. Record slices are copied so that
// callers can extend or rewrite the clone without touching the original
// snapshot.
func (idx Index) Clone() Index {
	clone := make(Index, len(idx))
	for key, rs := range idx {
		rs.Records = append([]Record(nil), rs.Records...)
		clone[key] = rs
	}
	return clone
}

// SortedKeys returns the index keys in a stable order. Iteration order is
// not semantically significant, but deterministic output keeps the emitted
// patch list reproducible.
func (idx Index) SortedKeys() []Key {
	keys := make([]Key, 0, len(idx))
	for key := range idx {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Type < keys[j].Type
	})
	return keys
}

// KeySet is the set of (name, type) keys this tool is permitted to manage.
type KeySet map[Key]struct{}

func (s KeySet) Add(key Key) {
	s[key] = struct{}{}
}

func (s KeySet) Contains(key Key) bool {
	_, ok := s[key]
	return ok
}

// Patch is one REPLACE or DELETE instruction for the zone PATCH endpoint.
// DELETE patches omit records and TTL.
type Patch struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Records    []Record `json:"records,omitempty"`
	TTL        uint32   `json:"ttl,omitempty"`
	ChangeType string   `json:"changetype"`
}

// MakeDomainCanonical appends the trailing dot to a domain if it is missing.
func MakeDomainCanonical(domain string) string {
	if strings.HasSuffix(domain, ".") {
		return domain
	}
	return fmt.Sprintf("%s.", domain)
}
