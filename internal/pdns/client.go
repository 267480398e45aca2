// Package pdns is the boundary to the PowerDNS Authoritative HTTP API. It
// converts between the wire RRset shape and the internal zone model; list
// metadata that plays no role in comparisons (comments) is stripped on the
// way in.
package pdns

import (
	"fmt"

	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/joeig/go-powerdns/v2"
	"go.uber.org/zap"
)

// Client talks to one PowerDNS server.
type Client struct {
	pdns     *powerdns.Client
	location string
	serverID string
	logger   *zap.Logger
}

// NewClient creates a client for the API at location, addressing the given
// server id. The API key is sent as the X-API-Key header on every request.
func NewClient(location string, serverID string, apiKey string, logger *zap.Logger) *Client {
	httpClient := retryablehttp.NewClient()

	// A failed call is fatal for the whole run, retrying would only delay
	// the failure.
	httpClient.RetryMax = 0
	httpClient.Logger = &leveledLogger{logger: logger}

	pdnsClient := powerdns.NewClient(location, serverID, map[string]string{"X-API-Key": apiKey},
		httpClient.StandardClient())

	return &Client{
		pdns:     pdnsClient,
		location: location,
		serverID: serverID,
		logger:   logger,
	}
}

// FetchZoneIndex gets the zone's RRsets and returns them as a normalized
// index keyed by (name, type).
func (c *Client) FetchZoneIndex(zoneID string) (zone.Index, error) {
	c.logger.Info("GET", zap.String("url", c.zoneURL(zoneID)))

	remoteZone, err := c.pdns.Zones.Get(zone.MakeDomainCanonical(zoneID))
	if err != nil {
		return nil, fmt.Errorf("failed to get zone %s: %w", zoneID, err)
	}

	sets := make([]zone.RRSet, 0, len(remoteZone.RRsets))
	for _, rrSet := range remoteZone.RRsets {
		sets = append(sets, fromWire(rrSet).Normalized())
	}

	return zone.NewIndex(sets)
}

// ApplyPatches sends the full patch list to the zone PATCH endpoint in a
// single request.
func (c *Client) ApplyPatches(zoneID string, patches []zone.Patch) error {
	c.logger.Info("PATCH", zap.String("url", c.zoneURL(zoneID)))

	sets := powerdns.RRsets{Sets: make([]powerdns.RRset, 0, len(patches))}
	for _, patch := range patches {
		sets.Sets = append(sets.Sets, toWire(patch))
	}

	if err := c.pdns.Records.Patch(zone.MakeDomainCanonical(zoneID), &sets); err != nil {
		return fmt.Errorf("failed to patch zone %s: %w", zoneID, err)
	}

	return nil
}

func (c *Client) zoneURL(zoneID string) string {
	return fmt.Sprintf("%s/api/v1/servers/%s/zones/%s", c.location, c.serverID,
		zone.MakeDomainCanonical(zoneID))
}

func fromWire(rrSet powerdns.RRset) zone.RRSet {
	records := make([]zone.Record, 0, len(rrSet.Records))
	for _, record := range rrSet.Records {
		records = append(records, zone.Record{
			Content:  stringValue(record.Content),
			Disabled: boolValue(record.Disabled),
			SetPTR:   record.SetPTR,
		})
	}

	var recordType string
	if rrSet.Type != nil {
		recordType = string(*rrSet.Type)
	}

	return zone.RRSet{
		Name:    stringValue(rrSet.Name),
		Type:    recordType,
		Records: records,
		TTL:     uint32Value(rrSet.TTL),
	}
}

func toWire(patch zone.Patch) powerdns.RRset {
	rrSet := powerdns.RRset{
		Name:       powerdns.String(patch.Name),
		Type:       powerdns.RRTypePtr(powerdns.RRType(patch.Type)),
		ChangeType: powerdns.ChangeTypePtr(powerdns.ChangeType(patch.ChangeType)),
	}

	if patch.ChangeType != zone.ChangeReplace {
		return rrSet
	}

	rrSet.TTL = powerdns.Uint32(patch.TTL)
	rrSet.Records = make([]powerdns.Record, 0, len(patch.Records))
	for _, record := range patch.Records {
		rrSet.Records = append(rrSet.Records, powerdns.Record{
			Content:  powerdns.String(record.Content),
			Disabled: powerdns.Bool(record.Disabled),
			SetPTR:   record.SetPTR,
		})
	}

	return rrSet
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func boolValue(b *bool) bool {
	if b == nil {
		return false
	}
	return *b
}

func uint32Value(u *uint32) uint32 {
	if u == nil {
		return 0
	}
	return *u
}
