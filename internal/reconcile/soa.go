package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ansible-pdns-api/upsert-records/internal/zone"
)

// AutoSerial is the sentinel serial token that requests adoption of the
// remote zone's current serial.
const AutoSerial = "AUTO"

const serialToken = 2

var (
	// ErrMissingSOA indicates a zone index without exactly one SOA record.
	ErrMissingSOA = errors.New("zone has no SOA record")

	// ErrMultipleSOA indicates an SOA RRset carrying more than one record.
	ErrMultipleSOA = errors.New("zone has SOA RRset with multiple records")
)

// ResolveSOASerial returns a copy of the desired index whose SOA record has
// its serial resolved against the remote SOA: the AUTO sentinel is replaced
// by the remote serial, any literal serial is kept as-is. All other SOA
// tokens come from the desired value; all other RRsets are unchanged.
func ResolveSOASerial(desired zone.Index, remote zone.Index, zoneID string) (zone.Index, error) {
	desiredSOA, err := extractSOA(desired, zoneID)
	if err != nil {
		return nil, fmt.Errorf("desired state: %w", err)
	}
	remoteSOA, err := extractSOA(remote, zoneID)
	if err != nil {
		return nil, fmt.Errorf("remote state: %w", err)
	}

	tokens := strings.Split(desiredSOA, " ")
	if len(tokens) <= serialToken {
		return nil, fmt.Errorf("malformed SOA content %q in desired state", desiredSOA)
	}

	if tokens[serialToken] == AutoSerial {
		remoteTokens := strings.Split(remoteSOA, " ")
		if len(remoteTokens) <= serialToken {
			return nil, fmt.Errorf("malformed SOA content %q in remote state", remoteSOA)
		}
		tokens[serialToken] = remoteTokens[serialToken]
	}

	resolved := desired.Clone()
	key := zone.Key{Name: zone.MakeDomainCanonical(zoneID), Type: zone.RRTypeSOA}
	rs := resolved[key]
	rs.Records[0].Content = strings.Join(tokens, " ")
	resolved[key] = rs

	return resolved, nil
}

// extractSOA returns the content of the zone's single SOA record.
func extractSOA(index zone.Index, zoneID string) (string, error) {
	key := zone.Key{Name: zone.MakeDomainCanonical(zoneID), Type: zone.RRTypeSOA}

	rs, ok := index[key]
	if !ok {
		return "", fmt.Errorf("%w: no RRset for key '%s'", ErrMissingSOA, key)
	}
	if len(rs.Records) < 1 {
		return "", fmt.Errorf("%w: SOA RRset has zero records", ErrMissingSOA)
	}
	if len(rs.Records) > 1 {
		return "", fmt.Errorf("%w: %d records", ErrMultipleSOA, len(rs.Records))
	}

	return rs.Records[0].Content, nil
}
