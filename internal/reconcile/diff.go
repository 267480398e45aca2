package reconcile

import (
	"errors"
	"fmt"

	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"go.uber.org/zap"
)

// ErrOwnershipConflict indicates the desired state would overwrite a remote
// RRset that carries no heritage marker and is not NS/SOA.
var ErrOwnershipConflict = errors.New("attempted to overwrite foreign-owned record(s)")

// Diff compares the annotated desired index against the remote index and
// emits the minimal patch list: one REPLACE per desired RRset that does not
// already match remotely, one DELETE per owned remote RRset that is no
// longer desired. REPLACE patches come before DELETE patches.
//
// Writing over a remote key that is neither owned nor of type NS/SOA is a
// conflict; every zone inherently carries NS and SOA regardless of marker
// presence, so those types are exempt. Remote keys that are not owned are
// never deleted.
func Diff(logger *zap.Logger, desired zone.Index, remote zone.Index, owned zone.KeySet) ([]zone.Patch, error) {
	var conflicts []zone.Key
	for _, key := range desired.SortedKeys() {
		if _, exists := remote[key]; !exists {
			continue
		}
		if owned.Contains(key) || key.Type == zone.RRTypeNS || key.Type == zone.RRTypeSOA {
			continue
		}
		conflicts = append(conflicts, key)
	}

	if len(conflicts) > 0 {
		for _, key := range conflicts {
			for _, record := range desired[key].Records {
				logger.Error("Could not write record.",
					zap.String("name", key.Name),
					zap.String("type", key.Type),
					zap.String("content", record.Content))
			}
			for _, record := range remote[key].Records {
				logger.Error("Hint: would overwrite.",
					zap.String("name", key.Name),
					zap.String("type", key.Type),
					zap.String("content", record.Content))
			}
		}
		return nil, fmt.Errorf("%w: %d conflicting RRset(s)", ErrOwnershipConflict, len(conflicts))
	}

	var patches []zone.Patch

	for _, key := range desired.SortedKeys() {
		rs := desired[key]
		if remoteSet, exists := remote[key]; exists && zone.Equal(rs, remoteSet) {
			continue
		}
		// Record order is preserved verbatim; only the equality check above
		// is order-independent.
		patches = append(patches, zone.Patch{
			Name:       rs.Name,
			Type:       rs.Type,
			Records:    rs.Records,
			TTL:        rs.TTL,
			ChangeType: zone.ChangeReplace,
		})
	}

	for _, key := range remote.SortedKeys() {
		if _, exists := desired[key]; exists {
			continue
		}
		if !owned.Contains(key) {
			continue
		}
		patches = append(patches, zone.Patch{
			Name:       key.Name,
			Type:       key.Type,
			ChangeType: zone.ChangeDelete,
		})
	}

	return patches, nil
}
