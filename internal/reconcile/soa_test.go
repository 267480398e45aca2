package reconcile

import (
	"testing"

	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indexWithSOA(soaContent string) zone.Index {
	return zone.Index{
		{Name: "example.com.", Type: "SOA"}: {
			Name:    "example.com.",
			Type:    "SOA",
			TTL:     3600,
			Records: []zone.Record{{Content: soaContent}},
		},
		{Name: "www.example.com.", Type: "A"}: {
			Name:    "www.example.com.",
			Type:    "A",
			TTL:     300,
			Records: []zone.Record{{Content: "192.0.2.10"}},
		},
	}
}

func soaContent(index zone.Index) string {
	return index[zone.Key{Name: "example.com.", Type: "SOA"}].Records[0].Content
}

func TestResolveSOASerialAuto(t *testing.T) {
	desired := indexWithSOA("ns1.example.com. hostmaster.example.com. AUTO 10800 3600")
	remote := indexWithSOA("ns9.example.com. other.example.com. 2024010100 999 999")

	resolved, err := ResolveSOASerial(desired, remote, "example.com")
	require.NoError(t, err)

	assert.Equal(t, "ns1.example.com. hostmaster.example.com. 2024010100 10800 3600", soaContent(resolved),
		"only the serial token comes from the remote SOA")
	assert.Equal(t, "ns1.example.com. hostmaster.example.com. AUTO 10800 3600", soaContent(desired),
		"input index must stay untouched")
}

func TestResolveSOASerialLiteral(t *testing.T) {
	desired := indexWithSOA("ns1.example.com. hostmaster.example.com. 42 10800 3600")
	remote := indexWithSOA("ns1.example.com. hostmaster.example.com. 2024010100 10800 3600")

	resolved, err := ResolveSOASerial(desired, remote, "example.com")
	require.NoError(t, err)

	assert.Equal(t, "ns1.example.com. hostmaster.example.com. 42 10800 3600", soaContent(resolved))
}

func TestResolveSOASerialMissingSOA(t *testing.T) {
	withSOA := indexWithSOA("ns1.example.com. hostmaster.example.com. 1 10800 3600")
	withoutSOA := zone.Index{}

	_, err := ResolveSOASerial(withoutSOA, withSOA, "example.com")
	require.ErrorIs(t, err, ErrMissingSOA)

	_, err = ResolveSOASerial(withSOA, withoutSOA, "example.com")
	require.ErrorIs(t, err, ErrMissingSOA)
}

func TestResolveSOASerialZeroRecords(t *testing.T) {
	desired := indexWithSOA("unused")
	rs := desired[zone.Key{Name: "example.com.", Type: "SOA"}]
	rs.Records = nil
	desired[zone.Key{Name: "example.com.", Type: "SOA"}] = rs

	remote := indexWithSOA("ns1.example.com. hostmaster.example.com. 1 10800 3600")

	_, err := ResolveSOASerial(desired, remote, "example.com")
	require.ErrorIs(t, err, ErrMissingSOA)
}

func TestResolveSOASerialMultipleRecords(t *testing.T) {
	desired := indexWithSOA("ns1.example.com. hostmaster.example.com. 1 10800 3600")
	rs := desired[zone.Key{Name: "example.com.", Type: "SOA"}]
	rs.Records = append(rs.Records, zone.Record{Content: "ns2.example.com. hostmaster.example.com. 2 10800 3600"})
	desired[zone.Key{Name: "example.com.", Type: "SOA"}] = rs

	remote := indexWithSOA("ns1.example.com. hostmaster.example.com. 1 10800 3600")

	_, err := ResolveSOASerial(desired, remote, "example.com")
	require.ErrorIs(t, err, ErrMultipleSOA)
}

func TestResolveSOASerialMalformedContent(t *testing.T) {
	desired := indexWithSOA("only-two tokens")
	remote := indexWithSOA("ns1.example.com. hostmaster.example.com. 1 10800 3600")

	_, err := ResolveSOASerial(desired, remote, "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed SOA")
}
