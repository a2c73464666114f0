package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/neonizer/KCD2-Modlist-Cleaner/internal/record"
)

// Profile describes how one game writes its saves.
type Profile struct {
	Name string

	// Layout of the save metadata.
	Layout record.Layout

	// WatchWrites reacts to rewrites of existing saves, not only creates.
	WatchWrites bool

	// SlotGlob restricts sweeps to matching subdirectories of the root.
	// Empty sweeps the whole tree.
	SlotGlob string

	// root is the save directory relative to the user's home.
	root []string
}

// DefaultRoot returns the save directory below home.
func (p Profile) DefaultRoot(home string) string {
	return filepath.Join(append([]string{home}, p.root...)...)
}

var profiles = map[string]Profile{
	"kcd1": {
		Name:        "kcd1",
		Layout:      record.LayoutPadded,
		WatchWrites: true,
		root:        []string{"Documents", "KingdomComeDeliverance", "user", "savegames"},
	},
	"kcd2": {
		Name:     "kcd2",
		Layout:   record.LayoutLengthPrefixed,
		SlotGlob: "playline*",
		root:     []string{"Saved Games", "kingdomcome2", "saves"},
	},
}

// LookupProfile returns the profile with the given name.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (want one of %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the known profiles in order.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
