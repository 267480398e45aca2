// Package heritage tracks RRset ownership through TXT marker records stored
// in the zone itself. A marker of the form
//
//	_ansible-pdns-api.<name> TXT "heritage=ansible-pdns-api,type=<type>"
//
// claims ownership of the RRset (<name>, <type>) and of the marker itself.
package heritage

import (
	"fmt"
	"strings"

	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"go.uber.org/zap"
)

const (
	// MarkerPrefix is prepended to an RRset name to form its marker name.
	MarkerPrefix = "_ansible-pdns-api."

	contentPrefix = `"heritage=ansible-pdns-api,type=`
	contentSuffix = `"`
)

// MarkerContent returns the TXT content claiming ownership of an RRset of
// the given type. The quotes are part of the TXT record content.
func MarkerContent(recordType string) string {
	return fmt.Sprintf(`"heritage=ansible-pdns-api,type=%s"`, recordType)
}

// OwnedKeys scans the fetched remote index for heritage markers and returns
// every key this tool is permitted to mutate or delete. Marker records with
// content that does not match the heritage pattern are logged and skipped;
// they contribute no ownership claim.
func OwnedKeys(logger *zap.Logger, remote zone.Index) zone.KeySet {
	owned := make(zone.KeySet)

	for _, key := range remote.SortedKeys() {
		rs := remote[key]
		if rs.Type != zone.RRTypeTXT || !strings.HasPrefix(rs.Name, MarkerPrefix) {
			continue
		}

		// The marker record owns itself.
		owned.Add(zone.Key{Name: rs.Name, Type: zone.RRTypeTXT})

		ownedName := strings.TrimPrefix(rs.Name, MarkerPrefix)
		for _, record := range rs.Records {
			ownedType, ok := parseContent(record.Content)
			if !ok {
				logger.Warn("Malformed heritage record.",
					zap.String("name", rs.Name),
					zap.String("type", rs.Type),
					zap.String("content", record.Content))
				continue
			}
			owned.Add(zone.Key{Name: ownedName, Type: ownedType})
		}
	}

	return owned
}

func parseContent(content string) (string, bool) {
	if !strings.HasPrefix(content, contentPrefix) || !strings.HasSuffix(content, contentSuffix) {
		return "", false
	}
	ownedType := content[len(contentPrefix) : len(content)-len(contentSuffix)]
	if ownedType == "" {
		return "", false
	}
	return ownedType, true
}

// Annotate returns a copy of the desired index extended with one heritage
// marker content record per RRset, creating marker TXT RRsets with
// defaultTTL where missing. Desired RRsets sharing a name collect their
// claims under the same marker. The input index is never modified.
func Annotate(desired zone.Index, defaultTTL uint32) zone.Index {
	annotated := desired.Clone()

	for _, key := range desired.SortedKeys() {
		rs := desired[key]
		markerKey := zone.Key{Name: MarkerPrefix + rs.Name, Type: zone.RRTypeTXT}

		marker, exists := annotated[markerKey]
		if !exists {
			marker = zone.RRSet{
				Name:    markerKey.Name,
				Type:    zone.RRTypeTXT,
				Records: []zone.Record{},
				TTL:     defaultTTL,
			}
		}
		marker.Records = append(marker.Records, zone.Record{
			Content:  MarkerContent(rs.Type),
			Disabled: false,
		})
		annotated[markerKey] = marker
	}

	return annotated
}
