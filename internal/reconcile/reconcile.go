// Package reconcile computes the minimal patch list that makes a remote
// zone match a desired record configuration without touching records owned
// by other tooling.
package reconcile

import (
	"github.com/ansible-pdns-api/upsert-records/internal/heritage"
	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"go.uber.org/zap"
)

// Plan runs the full reconciliation pipeline over a desired and a fetched
// remote index: SOA serial resolution, heritage annotation, ownership
// derivation and diffing. It is a pure transform; fetching the remote state
// and applying the returned patches are the caller's I/O boundaries. An
// empty patch list means the zone is already convergent.
func Plan(logger *zap.Logger, desired zone.Index, remote zone.Index, zoneID string, defaultTTL uint32) ([]zone.Patch, error) {
	resolved, err := ResolveSOASerial(desired, remote, zoneID)
	if err != nil {
		return nil, err
	}

	annotated := heritage.Annotate(resolved, defaultTTL)
	owned := heritage.OwnedKeys(logger, remote)

	return Diff(logger, annotated, remote, owned)
}
