package reconcile

import (
	"testing"

	"github.com/ansible-pdns-api/upsert-records/internal/heritage"
	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// applyPatches simulates the remote server applying a patch list.
func applyPatches(remote zone.Index, patches []zone.Patch) zone.Index {
	updated := remote.Clone()
	for _, patch := range patches {
		key := zone.Key{Name: patch.Name, Type: patch.Type}
		switch patch.ChangeType {
		case zone.ChangeReplace:
			rs := zone.RRSet{
				Name:    patch.Name,
				Type:    patch.Type,
				Records: append([]zone.Record(nil), patch.Records...),
				TTL:     patch.TTL,
			}
			updated[key] = rs.Normalized()
		case zone.ChangeDelete:
			delete(updated, key)
		}
	}
	return updated
}

func TestPlanIdempotence(t *testing.T) {
	desired := indexOf(
		rrset("example.com.", "SOA", 3600, "ns1.example.com. hostmaster.example.com. 7 10800 3600"),
		rrset("www.example.com.", "A", 300, "192.0.2.10", "192.0.2.11"),
	)
	remote := indexOf(
		rrset("example.com.", "SOA", 3600, "ns1.example.com. hostmaster.example.com. 1 10800 3600"),
		// A stale RRset from an earlier run, complete with its marker.
		rrset("old.example.com.", "A", 300, "192.0.2.20"),
		zone.RRSet{
			Name:    heritage.MarkerPrefix + "old.example.com.",
			Type:    "TXT",
			TTL:     3600,
			Records: []zone.Record{{Content: heritage.MarkerContent("A")}},
		},
	)

	patches, err := Plan(zap.NewNop(), desired, remote, "example.com", 3600)
	require.NoError(t, err)
	require.NotEmpty(t, patches)

	var deletes []zone.Patch
	for _, patch := range patches {
		if patch.ChangeType == zone.ChangeDelete {
			deletes = append(deletes, patch)
		}
	}
	assert.Len(t, deletes, 2, "the stale RRset and its marker are both deleted")

	// Recomputing against the updated remote state must converge.
	updated := applyPatches(remote, patches)
	patches, err = Plan(zap.NewNop(), desired, updated, "example.com", 3600)
	require.NoError(t, err)
	assert.Empty(t, patches)
}

func TestPlanConflictFailsWithoutPatches(t *testing.T) {
	desired := indexOf(
		rrset("example.com.", "SOA", 3600, "ns1.example.com. hostmaster.example.com. 1 10800 3600"),
		rrset("www.example.com.", "A", 300, "192.0.2.10"),
	)
	remote := indexOf(
		rrset("example.com.", "SOA", 3600, "ns1.example.com. hostmaster.example.com. 1 10800 3600"),
		// Same key exists remotely but carries no heritage marker.
		rrset("www.example.com.", "A", 300, "192.0.2.99"),
	)

	patches, err := Plan(zap.NewNop(), desired, remote, "example.com", 3600)

	require.ErrorIs(t, err, ErrOwnershipConflict)
	assert.Nil(t, patches)
}

func TestPlanResolvesAutoSerial(t *testing.T) {
	desired := indexOf(
		rrset("example.com.", "SOA", 3600, "ns1.example.com. hostmaster.example.com. AUTO 10800 3600"),
	)
	remote := indexOf(
		rrset("example.com.", "SOA", 3600, "ns1.example.com. hostmaster.example.com. 2024010100 10800 3600"),
	)

	patches, err := Plan(zap.NewNop(), desired, remote, "example.com", 3600)
	require.NoError(t, err)

	var soaPatch *zone.Patch
	for i := range patches {
		if patches[i].Type == zone.RRTypeSOA {
			soaPatch = &patches[i]
		}
	}
	require.Nil(t, soaPatch, "an AUTO serial adopts the remote SOA, so no SOA patch is emitted")
}
