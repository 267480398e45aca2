// Package plan renders a computed patch list for human review.
package plan

import (
	"fmt"

	"github.com/ansible-pdns-api/upsert-records/internal/zone"
	"github.com/xlab/treeprint"
)

// Render returns a tree view of the patch list: zone, change kind, RRset,
// records. An empty patch list renders as a single note under the zone.
func Render(zoneID string, patches []zone.Patch) string {
	tree := treeprint.New()
	zoneBranch := tree.AddBranch(zone.MakeDomainCanonical(zoneID))

	if len(patches) == 0 {
		zoneBranch.AddNode("zone is already convergent")
		return tree.String()
	}

	var replaceBranch, deleteBranch treeprint.Tree

	for _, patch := range patches {
		switch patch.ChangeType {
		case zone.ChangeReplace:
			if replaceBranch == nil {
				replaceBranch = zoneBranch.AddBranch(zone.ChangeReplace)
			}
			rrSetBranch := replaceBranch.AddBranch(fmt.Sprintf("%s %s (ttl %d)", patch.Name, patch.Type, patch.TTL))
			for _, record := range patch.Records {
				node := record.Content
				if record.Disabled {
					node = fmt.Sprintf("%s (disabled)", node)
				}
				rrSetBranch.AddNode(node)
			}
		case zone.ChangeDelete:
			if deleteBranch == nil {
				deleteBranch = zoneBranch.AddBranch(zone.ChangeDelete)
			}
			deleteBranch.AddNode(fmt.Sprintf("%s %s", patch.Name, patch.Type))
		}
	}

	return tree.String()
}
