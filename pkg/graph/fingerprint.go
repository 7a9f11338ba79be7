package graph

import (
	"encoding/binary"
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Fingerprint returns a hex BLAKE3 digest of the graph's topology, levels and
// shortcut metadata. Two graphs with the same fingerprint answer every query
// identically. Coordinates are not included.
func Fingerprint(g *Graph) string {
	h := blake3.New(32, nil)

	var counts [3]uint32
	counts[0] = uint32(g.NumNodes())
	counts[1] = uint32(g.NumEdges())
	counts[2] = uint32(g.NumShortcuts())
	binary.Write(h, binary.LittleEndian, counts)

	cols := toColumns(g)
	// Writes into a hash never fail.
	_ = cols.writeTo(h)

	return hex.EncodeToString(h.Sum(nil))
}
