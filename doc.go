// Package cleaner removes the list of active modifications that Warhorse
// games embed in their save files, so a save no longer reveals which mods
// were used when it was written.
//
// A save stores the list as text between a <UsedMods> and a </UsedMods>
// marker. [Cleaner.Patch] erases everything between the markers and writes
// the save back in a form the game still accepts. Two layouts are supported:
//   - Padded saves (Kingdom Come: Deliverance) have a fixed size; the erased
//     region is filled with spaces so the file keeps its exact length.
//   - Length-prefixed saves (Kingdom Come: Deliverance II) carry a
//     description length in their header; the header is rewritten to match
//     the shorter description and the rest of the file is copied verbatim.
//
// # Quick Start
//
//	c, err := cleaner.New(
//	    cleaner.WithLayout(cleaner.LayoutLengthPrefixed),
//	    cleaner.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    return err
//	}
//	outcome, err := c.Patch(ctx, "playline0/quicksave.whs")
//
// Saves without a mod list are left untouched and reported as
// [NothingToDo]. Malformed saves are never written.
//
// Watching a save directory and sweeping existing saves live in the
// [watch] subpackage.
package cleaner
