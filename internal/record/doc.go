// Package record models the two save layouts that carry a mod list and
// locates the <UsedMods> span inside a save blob.
//
// A padded save embeds the marker pair somewhere in an otherwise opaque
// binary stream and must keep its exact size. A length-prefixed save starts
// with a 4-byte signature and a little-endian uint32 description length,
// followed by the description text and an opaque remainder:
//
//	[signature:4][L:4][description:L][remainder...]
//
// Only the description is searched in the length-prefixed case.
package record
