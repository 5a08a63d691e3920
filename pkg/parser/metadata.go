package parser

import (
	"encoding/json"
	"maps"
	"regexp"
	"strings"

	"github.com/matzehuels/stackflow/pkg/diagram"
)

var metadataCommentRe = regexp.MustCompile(`^\s*%%\s*(\{.*\})\s*$`)

type metadataComment struct {
	ID       string           `json:"id"`
	Metadata diagram.Metadata `json:"metadata"`
}

// ExtractMetadata collects structured metadata comments of the form
//
//	%% {"id": "nodeId", "metadata": {...}}
//
// keyed by node id. Comments that are not valid JSON, or that lack an id or a
// metadata object, are ignored. Repeated comments for one id are merged, later
// keys winning.
func ExtractMetadata(src string) map[string]diagram.Metadata {
	out := make(map[string]diagram.Metadata)
	for _, line := range strings.Split(src, "\n") {
		m := metadataCommentRe.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		var c metadataComment
		if err := json.Unmarshal([]byte(m[1]), &c); err != nil {
			continue
		}
		if c.ID == "" || c.Metadata == nil {
			continue
		}
		if existing, ok := out[c.ID]; ok {
			maps.Copy(existing, c.Metadata)
			continue
		}
		out[c.ID] = c.Metadata
	}
	return out
}

// attachMetadata returns a copy of nodes with metadata merged onto matching
// ids. Unknown ids are ignored.
func attachMetadata(nodes []diagram.Node, md map[string]diagram.Metadata) []diagram.Node {
	if len(md) == 0 {
		return nodes
	}
	out := make([]diagram.Node, len(nodes))
	for i, n := range nodes {
		if extra, ok := md[n.ID]; ok {
			merged := make(diagram.Metadata, len(n.Metadata)+len(extra))
			maps.Copy(merged, n.Metadata)
			maps.Copy(merged, extra)
			n.Metadata = merged
		}
		out[i] = n
	}
	return out
}
