package zone

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRecordItem indicates a record item carried keys other than
	// the ones its variant allows.
	ErrInvalidRecordItem = errors.New("illegal key(s) in record item")

	// ErrDuplicateTTLDirective indicates more than one TTL directive was
	// given for a single RRset.
	ErrDuplicateTTLDirective = errors.New("duplicate TTL directive")
)

// VarFile is the on-disk desired state document. Zones are keyed by zone id
// (domain without trailing dot).
type VarFile struct {
	Zones map[string]ZoneVars `json:"pdns_auth_api_zones"`
}

// ZoneVars holds the desired records of one zone. Records are keyed by
// domain, then by record type; each entry is a list of record items.
type ZoneVars struct {
	DefaultTTL uint32                             `json:"defaultTTL"`
	Records    map[string]map[string][]RecordItem `json:"records"`
}

// RecordItem is one entry of an RRset description. It is either a content
// item ("c" plus optional reverse-pointer flag "r") or a TTL directive
// ("t"). Any other key is illegal.
type RecordItem map[string]interface{}

type contentItem struct {
	Content        string `mapstructure:"c"`
	ReversePointer *bool  `mapstructure:"r"`
}

type ttlItem struct {
	TTL uint32 `mapstructure:"t"`
}

// LoadVarFile reads and decodes a varfile from disk.
func LoadVarFile(path string) (*VarFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read varfile: %w", err)
	}

	var varFile VarFile
	if err := json.Unmarshal(data, &varFile); err != nil {
		return nil, fmt.Errorf("failed to decode varfile %s: %w", path, err)
	}

	return &varFile, nil
}

// BuildIndex expands the compact desired-state record format into an Index
// of canonical RRsets. Domains gain a trailing dot; RRsets without a TTL
// directive get defaultTTL.
func BuildIndex(logger *zap.Logger, records map[string]map[string][]RecordItem, defaultTTL uint32) (Index, error) {
	var sets []RRSet

	// The input is keyed by domain and type already, so duplicate keys are
	// impossible here; sorting only makes the walk deterministic.
	domains := make([]string, 0, len(records))
	for domain := range records {
		domains = append(domains, domain)
	}
	sort.Strings(domains)

	for _, domain := range domains {
		recordsByType := records[domain]

		types := make([]string, 0, len(recordsByType))
		for recordType := range recordsByType {
			types = append(types, recordType)
		}
		sort.Strings(types)

		for _, recordType := range types {
			rs, err := buildRRSet(logger, domain, recordType, recordsByType[recordType], defaultTTL)
			if err != nil {
				return nil, err
			}
			sets = append(sets, rs)
		}
	}

	return NewIndex(sets)
}

func buildRRSet(logger *zap.Logger, domain string, recordType string, items []RecordItem, defaultTTL uint32) (RRSet, error) {
	name := MakeDomainCanonical(domain)

	var rrsetRecords []Record
	var ttlDirective *uint32

	for _, item := range items {
		switch {
		case item.has("c"):
			var content contentItem
			if err := decodeItem(logger, item, &content, name, recordType); err != nil {
				return RRSet{}, err
			}
			record := Record{Content: content.Content, Disabled: false}
			if content.ReversePointer != nil {
				record.SetPTR = content.ReversePointer
			}
			rrsetRecords = append(rrsetRecords, record)
		case item.has("t"):
			var directive ttlItem
			if err := decodeItem(logger, item, &directive, name, recordType); err != nil {
				return RRSet{}, err
			}
			if ttlDirective != nil {
				return RRSet{}, fmt.Errorf("%w for RRset '%s %s'", ErrDuplicateTTLDirective, name, recordType)
			}
			ttlDirective = &directive.TTL
		}
	}

	ttl := defaultTTL
	if ttlDirective != nil {
		ttl = *ttlDirective
	}

	return RRSet{
		Name:    name,
		Type:    recordType,
		Records: rrsetRecords,
		TTL:     ttl,
	}, nil
}

func (item RecordItem) has(key string) bool {
	_, ok := item[key]
	return ok
}

// decodeItem decodes a raw record item into its typed variant. Keys the
// variant does not declare are reported through the logger and rejected.
func decodeItem(logger *zap.Logger, item RecordItem, result interface{}, name string, recordType string) error {
	var metadata mapstructure.Metadata

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &metadata,
		Result:           result,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create record item decoder: %w", err)
	}

	if err := decoder.Decode(map[string]interface{}(item)); err != nil {
		return fmt.Errorf("failed to decode record item for RRset '%s %s': %w", name, recordType, err)
	}

	if len(metadata.Unused) > 0 {
		for _, key := range metadata.Unused {
			logger.Error("Illegal key in record item.",
				zap.String("key", key),
				zap.String("name", name),
				zap.String("type", recordType))
		}
		return fmt.Errorf("%w for RRset '%s %s'", ErrInvalidRecordItem, name, recordType)
	}

	return nil
}
