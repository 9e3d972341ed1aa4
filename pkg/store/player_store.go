// Package store holds PlayerStore, the in-memory realm/name-keyed character
// map. It performs no locking of its own: the Scheduler serializes access
// under its engine mutex (spec.md §5).
package store

import (
	"sort"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
)

// PlayerStore holds every observed character, keyed realm -> name. Never
// deletes: characters persist for the lifetime of the process once seen.
type PlayerStore struct {
	realms map[string]map[string]models.Character
}

// New returns an empty PlayerStore.
func New() *PlayerStore {
	return &PlayerStore{realms: make(map[string]map[string]models.Character)}
}

// Get returns the character at (realm, name), creating a zero-initialized
// one on first observation. Never fails.
func (s *PlayerStore) Get(realm, name string) models.Character {
	byName, ok := s.realms[realm]
	if !ok {
		byName = make(map[string]models.Character)
		s.realms[realm] = byName
	}
	ch, ok := byName[name]
	if !ok {
		ch = models.NewCharacter(realm, name)
		byName[name] = ch
	}
	return ch
}

// Update replaces the stored character in place.
func (s *PlayerStore) Update(ch models.Character) {
	byName, ok := s.realms[ch.Realm]
	if !ok {
		byName = make(map[string]models.Character)
		s.realms[ch.Realm] = byName
	}
	byName[ch.Name] = ch
}

// MarkExported sets last_exported = t for (realm, name), leaving every other
// field untouched. A miss is a no-op: there is nothing to mark.
func (s *PlayerStore) MarkExported(realm, name string, t int64) {
	byName, ok := s.realms[realm]
	if !ok {
		return
	}
	ch, ok := byName[name]
	if !ok {
		return
	}
	ch.LastExported = t
	byName[name] = ch
}

// Snapshot returns every character in stable order: realm name ascending,
// then character name ascending (spec.md §4.2), for the exporter and
// QueueBuilder to iterate deterministically.
func (s *PlayerStore) Snapshot() []models.Character {
	realmNames := make([]string, 0, len(s.realms))
	for realm := range s.realms {
		realmNames = append(realmNames, realm)
	}
	sort.Strings(realmNames)

	var out []models.Character
	for _, realm := range realmNames {
		byName := s.realms[realm]
		names := make([]string, 0, len(byName))
		for name := range byName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, byName[name])
		}
	}
	return out
}

// Merge absorbs a fresh AddonCodec.ReadAll scan (spec.md §4.6 step 2)
// without discarding live session state. Characters never seen before are
// taken wholesale, including whatever ranking data the scan's import
// absorption produced. For characters already held, only the addon-reported
// bookkeeping fields (LastSeen, Faction, ClassID, Level, Priority,
// Encounters) are refreshed when the scan observed something newer;
// Rankings/LastLogs/LastExported are left alone, since a fetch performed
// during this session is always at least as fresh as anything the addon or
// our own export file can report back.
func (s *PlayerStore) Merge(fresh map[string]map[string]models.Character) {
	for realm, byName := range fresh {
		for name, incoming := range byName {
			existing, known := s.realms[realm][name]
			if !known {
				s.Update(incoming)
				continue
			}
			if incoming.LastSeen > existing.LastSeen {
				existing.LastSeen = incoming.LastSeen
				existing.Faction = incoming.Faction
				existing.ClassID = incoming.ClassID
				existing.Level = incoming.Level
				existing.Priority = incoming.Priority
				existing.Encounters = incoming.Encounters
			}
			s.Update(existing)
		}
	}
}

// Len reports the total number of characters across all realms.
func (s *PlayerStore) Len() int {
	n := 0
	for _, byName := range s.realms {
		n += len(byName)
	}
	return n
}
