package addon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ForsakenNGS/LogTrackerApp/pkg/models"
)

// ErrInvalidGameDir is returned when the configured game directory has no
// WTF child, i.e. it is not a game installation at all.
var ErrInvalidGameDir = errors.New("addon: game directory has no WTF subdirectory")

// Top-level global bindings the addon itself reads and writes. These are
// fixed by the addon's own SavedVariables declarations, not by this engine.
const (
	bindingSavedVariables = "LogTrackerDB"
	bindingBaseData       = "LogTracker_BaseData"
	bindingAppData        = "LogTracker_AppData"
)

const fileExt = "lua"

// Codec reads the three declarative-text input families and writes the
// export file, tracking a modification-time high-water-mark so the
// Scheduler can tell when the addon has produced new data worth reloading.
type Codec struct {
	highWaterMark time.Time
}

// NewCodec returns a Codec with no recorded high-water-mark.
func NewCodec() *Codec {
	return &Codec{}
}

func savedVariablesGlob(gameDir string) string {
	return filepath.Join(gameDir, "WTF", "Account", "*", "SavedVariables", "LogTracker."+fileExt)
}

func baseDataPath(gameDir string) string {
	return filepath.Join(gameDir, "Interface", "AddOns", "LogTracker_BaseData", "LogTracker_BaseData."+fileExt)
}

func exportPath(gameDir string) string {
	return filepath.Join(gameDir, "Interface", "AddOns", "LogTracker", "AppData."+fileExt)
}

// ValidateGameDir returns ErrInvalidGameDir unless gameDir/WTF exists.
func ValidateGameDir(gameDir string) error {
	info, err := os.Stat(filepath.Join(gameDir, "WTF"))
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidGameDir, gameDir)
	}
	return nil
}

// MaybeReload stats every saved-variables file under gameDir and reports
// whether any is newer than the remembered high-water-mark (spec.md §4.6
// step 2). It updates the high-water-mark as a side effect of the check.
func (c *Codec) MaybeReload(gameDir string) (bool, error) {
	paths, err := filepath.Glob(savedVariablesGlob(gameDir))
	if err != nil {
		return false, fmt.Errorf("addon: glob saved variables: %w", err)
	}
	changed := false
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(c.highWaterMark) {
			changed = true
			c.highWaterMark = info.ModTime()
		}
	}
	return changed, nil
}

// ReadResult bundles everything ReadAll extracts from the three input
// families, keyed realm -> character name, matching PlayerStore's key shape.
type ReadResult struct {
	Characters map[string]map[string]models.Character
	Base       models.BaseData
}

// ReadAll loads saved variables, BaseData, and the previously exported
// AppData file (if present) under gameDir, applying the precedence rule
// from SPEC_FULL.md's "Import-file absorption" feature: saved-variables
// observations always win over a stale import.
func (c *Codec) ReadAll(gameDir string) (ReadResult, error) {
	result := ReadResult{
		Characters: make(map[string]map[string]models.Character),
		Base:       models.NewBaseData(),
	}

	paths, err := filepath.Glob(savedVariablesGlob(gameDir))
	if err != nil {
		return result, fmt.Errorf("addon: glob saved variables: %w", err)
	}
	for _, p := range paths {
		if err := c.readSavedVariablesFile(p, result.Characters); err != nil {
			return result, err
		}
	}

	if base, err := c.readBaseDataFile(baseDataPath(gameDir)); err == nil {
		result.Base = base
	} else if !os.IsNotExist(err) {
		return result, err
	}

	if err := c.readExportFile(exportPath(gameDir), result.Characters); err != nil && !os.IsNotExist(err) {
		return result, err
	}

	return result, nil
}

func storeChar(chars map[string]map[string]models.Character, ch models.Character) {
	byName, ok := chars[ch.Realm]
	if !ok {
		byName = make(map[string]models.Character)
		chars[ch.Realm] = byName
	}
	byName[ch.Name] = ch
}

func getChar(chars map[string]map[string]models.Character, realm, name string) models.Character {
	if byName, ok := chars[realm]; ok {
		if ch, ok := byName[name]; ok {
			return ch
		}
	}
	return models.NewCharacter(realm, name)
}

// readSavedVariablesFile parses one WTF/Account/*/SavedVariables/LogTracker.lua
// file and merges its characters into chars. A file that does not parse
// yields an ErrMalformedTable error; ReadAll returns that error at once and
// does not read the remaining saved-variables files, BaseData or the export.
func (c *Codec) readSavedVariablesFile(path string, chars map[string]map[string]models.Character) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("addon: read %s: %w", path, err)
	}
	bindings, err := parseDocument(string(raw))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedTable, path, err)
	}
	root, ok := bindings[bindingSavedVariables]
	if !ok {
		return nil
	}
	rootTbl, ok := root.AsTable()
	if !ok {
		return fmt.Errorf("%w: %s: %s is not a table", ErrMalformedTable, path, bindingSavedVariables)
	}
	playerDataVal, ok := rootTbl.GetString("playerData")
	if !ok {
		return nil
	}
	playerData, ok := playerDataVal.AsTable()
	if !ok {
		return fmt.Errorf("%w: %s: playerData is not a table", ErrMalformedTable, path)
	}
	for _, realmEntry := range playerData.Entries() {
		if !realmEntry.Key.IsString {
			continue
		}
		realmName := realmEntry.Key.Str
		realmTbl, ok := realmEntry.Value.AsTable()
		if !ok {
			continue
		}
		for _, charEntry := range realmTbl.Entries() {
			if !charEntry.Key.IsString {
				continue
			}
			charTbl, ok := charEntry.Value.AsTable()
			if !ok {
				continue
			}
			ch := decodeSavedCharacter(realmName, charEntry.Key.Str, charTbl)
			storeChar(chars, ch)
		}
	}
	return nil
}

func decodeSavedCharacter(realm, name string, t *Table) models.Character {
	ch := models.NewCharacter(realm, name)
	if v, ok := t.GetString("lastUpdate"); ok {
		if n, ok := v.AsInt(); ok {
			ch.LastSeen = int64(n)
			// Freshly observed from the addon: nothing new to export yet
			// until a fetch (or a later save) bumps LastSeen further.
			ch.LastExported = int64(n)
		}
	}
	if v, ok := t.GetString("lastUpdateLogs"); ok {
		if n, ok := v.AsInt(); ok {
			ch.LastLogs = int64(n)
		}
	}
	if v, ok := t.GetString("priority"); ok {
		if n, ok := v.AsInt(); ok {
			ch.Priority = n
		}
	}
	ch.Faction = "Unknown"
	if v, ok := t.GetString("faction"); ok {
		if s, ok := v.AsString(); ok {
			ch.Faction = s
		}
	}
	if v, ok := t.GetString("class"); ok {
		if n, ok := v.AsInt(); ok {
			ch.ClassID = n
		}
	}
	if v, ok := t.GetString("level"); ok {
		if n, ok := v.AsInt(); ok {
			ch.Level = n
		}
	}
	if v, ok := t.GetString("encounters"); ok {
		if tbl, ok := v.AsTable(); ok {
			ch.Encounters = decodeEncounters(tbl)
		}
	}
	return ch
}

// decodeEncounters parses `map<zone_id_str, "k,d,l/k,d,l/...">` into
// zoneID -> ordered EncounterKill list per spec.md §4.1.
func decodeEncounters(t *Table) map[int][]models.EncounterKill {
	out := make(map[int][]models.EncounterKill)
	for _, e := range t.Entries() {
		if !e.Key.IsString {
			continue
		}
		zoneID, err := strconv.Atoi(e.Key.Str)
		if err != nil {
			continue
		}
		s, ok := e.Value.AsString()
		if !ok {
			continue
		}
		if s == "" {
			continue
		}
		var kills []models.EncounterKill
		for _, boss := range strings.Split(s, "/") {
			fields := strings.SplitN(boss, ",", 3)
			if len(fields) != 3 {
				continue
			}
			killCount, err1 := strconv.Atoi(fields[0])
			difficulty, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				continue
			}
			kills = append(kills, models.EncounterKill{
				KillCount:          killCount,
				HardmodeDifficulty: difficulty,
				HardmodeLabel:      fields[2],
			})
		}
		out[zoneID] = kills
	}
	return out
}

func (c *Codec) readBaseDataFile(path string) (models.BaseData, error) {
	base := models.NewBaseData()
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	bindings, err := parseDocument(string(raw))
	if err != nil {
		return base, fmt.Errorf("%w: %s: %v", ErrMalformedTable, path, err)
	}
	root, ok := bindings[bindingBaseData]
	if !ok {
		return base, nil
	}
	rootTbl, ok := root.AsTable()
	if !ok {
		return base, fmt.Errorf("%w: %s: %s is not a table", ErrMalformedTable, path, bindingBaseData)
	}
	if classesVal, ok := rootTbl.GetString("classes"); ok {
		if classesTbl, ok := classesVal.AsTable(); ok {
			for _, classEntry := range classesTbl.Entries() {
				classTbl, ok := classEntry.Value.AsTable()
				if !ok {
					continue
				}
				cls := decodeClass(classTbl)
				base.Classes[cls.ID] = cls
			}
		}
	}
	if regionsVal, ok := rootTbl.GetString("regionByServerName"); ok {
		if regionsTbl, ok := regionsVal.AsTable(); ok {
			for _, e := range regionsTbl.Entries() {
				if !e.Key.IsString {
					continue
				}
				if s, ok := e.Value.AsString(); ok {
					base.RegionByServer[e.Key.Str] = s
				}
			}
		}
	}
	return base, nil
}

func decodeClass(t *Table) models.Class {
	cls := models.Class{Specs: make(map[int]models.ClassSpec)}
	if v, ok := t.GetString("id"); ok {
		if n, ok := v.AsInt(); ok {
			cls.ID = n
		}
	}
	if v, ok := t.GetString("name"); ok {
		if s, ok := v.AsString(); ok {
			cls.Name = s
		}
	}
	if v, ok := t.GetString("slug"); ok {
		if s, ok := v.AsString(); ok {
			cls.Slug = s
		}
	}
	if specsVal, ok := t.GetString("specs"); ok {
		if specsTbl, ok := specsVal.AsTable(); ok {
			for _, specEntry := range specsTbl.Entries() {
				specTbl, ok := specEntry.Value.AsTable()
				if !ok {
					continue
				}
				spec := decodeSpec(specTbl)
				cls.Specs[spec.ID] = spec
			}
		}
	}
	return cls
}

func decodeSpec(t *Table) models.ClassSpec {
	spec := models.ClassSpec{Metric: models.MetricDPS}
	if v, ok := t.GetString("id"); ok {
		if n, ok := v.AsInt(); ok {
			spec.ID = n
		}
	}
	if v, ok := t.GetString("name"); ok {
		if s, ok := v.AsString(); ok {
			spec.Name = s
		}
	}
	if v, ok := t.GetString("slug"); ok {
		if s, ok := v.AsString(); ok {
			spec.Slug = s
		}
	}
	if v, ok := t.GetString("metric"); ok {
		if s, ok := v.AsString(); ok {
			spec.Metric = models.ParseMetric(s)
		}
	}
	return spec
}

// readExportFile absorbs a previously written AppData export, applying the
// precedence rule: only overwrite a character's rankings when the import is
// newer than what saved variables already established (SPEC_FULL.md
// "Import-file absorption").
func (c *Codec) readExportFile(path string, chars map[string]map[string]models.Character) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	bindings, err := parseDocument(string(raw))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedTable, path, err)
	}
	root, ok := bindings[bindingAppData]
	if !ok {
		return nil
	}
	rootTbl, ok := root.AsTable()
	if !ok {
		return fmt.Errorf("%w: %s: %s is not a table", ErrMalformedTable, path, bindingAppData)
	}
	for _, realmEntry := range rootTbl.Entries() {
		if !realmEntry.Key.IsString {
			continue
		}
		realmName := realmEntry.Key.Str
		realmTbl, ok := realmEntry.Value.AsTable()
		if !ok {
			continue
		}
		for _, charEntry := range realmTbl.Entries() {
			if !charEntry.Key.IsString {
				continue
			}
			name := charEntry.Key.Str
			charTbl, ok := charEntry.Value.AsTable()
			if !ok {
				continue
			}
			applyImportedCharacter(chars, realmName, name, charTbl)
		}
	}
	return nil
}

func applyImportedCharacter(chars map[string]map[string]models.Character, realm, name string, t *Table) {
	lastUpdateVal, ok := t.GetString("lastUpdate")
	if !ok {
		return
	}
	importLastUpdate, ok := lastUpdateVal.AsInt()
	if !ok {
		return
	}
	existing := getChar(chars, realm, name)
	if int64(importLastUpdate) <= existing.LastSeen {
		return
	}
	existing.LastSeen = int64(importLastUpdate)
	existing.LastLogs = int64(importLastUpdate)
	if v, ok := t.GetString("level"); ok {
		if n, ok := v.AsInt(); ok {
			existing.Level = n
		}
	}
	if v, ok := t.GetString("faction"); ok {
		if s, ok := v.AsString(); ok {
			existing.Faction = s
		}
	}
	if v, ok := t.GetString("class"); ok {
		if n, ok := v.AsInt(); ok {
			existing.ClassID = n
		}
	}
	if zonesVal, ok := t.GetString("zones"); ok {
		if zonesTbl, ok := zonesVal.AsTable(); ok {
			for _, zoneEntry := range zonesTbl.Entries() {
				if !zoneEntry.Key.IsString {
					continue
				}
				zoneTbl, ok := zoneEntry.Value.AsTable()
				if !ok {
					continue
				}
				existing.SetRanking(zoneEntry.Key.Str, decodeRanking(zoneTbl))
			}
		}
	}
	storeChar(chars, existing)
}

func decodeRanking(t *Table) models.Ranking {
	var r models.Ranking
	if v, ok := t.GetString("total"); ok {
		if n, ok := v.AsInt(); ok {
			r.EncountersTotal = n
		}
	}
	if v, ok := t.GetString("killed"); ok {
		if n, ok := v.AsInt(); ok {
			r.EncountersKilled = n
		}
	}
	if v, ok := t.GetString("allstars"); ok {
		if tbl, ok := v.AsTable(); ok {
			for _, e := range tbl.Entries() {
				if inner, ok := e.Value.AsTable(); ok {
					r.AllstarRatings = append(r.AllstarRatings, decodeRatingTriple(inner))
				}
			}
		}
	}
	if v, ok := t.GetString("ratings"); ok {
		if s, ok := v.AsString(); ok {
			r.EncounterRatings = decodeRatingString(s)
		}
	}
	return r
}

func decodeRatingTriple(t *Table) models.RatingEntry {
	var e models.RatingEntry
	if v, ok := t.GetInt(1); ok {
		if n, ok := v.AsInt(); ok {
			e.SpecID = n
		}
	}
	if v, ok := t.GetInt(2); ok {
		if n, ok := v.AsInt(); ok {
			e.Best = n
		}
	}
	if v, ok := t.GetInt(3); ok {
		if n, ok := v.AsInt(); ok {
			e.Median = n
		}
	}
	return e
}

// decodeRatingString parses "spec,best,med|spec,best,med|..." back into
// ordered RatingEntry values.
func decodeRatingString(s string) []models.RatingEntry {
	if s == "" {
		return nil
	}
	var out []models.RatingEntry
	for _, part := range strings.Split(s, "|") {
		fields := strings.Split(part, ",")
		if len(fields) != 3 {
			continue
		}
		spec, err1 := strconv.Atoi(fields[0])
		best, err2 := strconv.Atoi(fields[1])
		med, err3 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out = append(out, models.RatingEntry{SpecID: spec, Best: best, Median: med})
	}
	return out
}

// WriteExport atomically writes the characters whose NeedsExport is true to
// gameDir's AppData file (spec.md §4.1 invariant 5). Characters with names
// that cannot be safely quoted are skipped rather than corrupting the file.
// Returns the set of (realm, name) pairs actually written so the caller can
// mark them exported.
func (c *Codec) WriteExport(gameDir string, characters []models.Character) ([][2]string, error) {
	sorted := append([]models.Character(nil), characters...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Realm != sorted[j].Realm {
			return sorted[i].Realm < sorted[j].Realm
		}
		return sorted[i].Name < sorted[j].Name
	})

	byRealm := make(map[string][]models.Character)
	var realmOrder []string
	var written [][2]string
	for _, ch := range sorted {
		if !ch.NeedsExport() {
			continue
		}
		if hasUnsafeName(ch.Realm) || hasUnsafeName(ch.Name) {
			continue
		}
		if _, ok := byRealm[ch.Realm]; !ok {
			realmOrder = append(realmOrder, ch.Realm)
		}
		byRealm[ch.Realm] = append(byRealm[ch.Realm], ch)
		written = append(written, [2]string{ch.Realm, ch.Name})
	}

	root := NewTable()
	for _, realm := range realmOrder {
		realmTbl := NewTable()
		for _, ch := range byRealm[realm] {
			realmTbl.SetString(ch.Name, TableValue(encodeCharacter(ch)))
		}
		root.SetString(realm, TableValue(realmTbl))
	}

	doc := encodeDocument(bindingAppData, TableValue(root))
	path := exportPath(gameDir)
	if err := writeFileAtomic(path, doc); err != nil {
		return nil, err
	}
	return written, nil
}

func encodeCharacter(ch models.Character) *Table {
	t := NewTable()
	t.SetString("level", IntValue(ch.Level))
	t.SetString("faction", StringValue(ch.Faction))
	t.SetString("class", IntValue(ch.ClassID))
	t.SetString("lastUpdate", IntValue(int(ch.LastSeen)))

	zoneKeys := make([]string, 0, len(ch.Rankings))
	for k := range ch.Rankings {
		zoneKeys = append(zoneKeys, k)
	}
	sort.Strings(zoneKeys)

	zones := NewTable()
	for _, key := range zoneKeys {
		zones.SetString(key, TableValue(encodeRanking(ch.Rankings[key])))
	}
	t.SetString("zones", TableValue(zones))
	return t
}

func encodeRanking(r models.Ranking) *Table {
	t := NewTable()
	t.SetString("total", IntValue(r.EncountersTotal))
	t.SetString("killed", IntValue(r.EncountersKilled))

	allstars := NewTable()
	for i, a := range r.AllstarRatings {
		triple := NewTable()
		triple.SetInt(1, IntValue(a.SpecID))
		triple.SetInt(2, IntValue(a.Best))
		triple.SetInt(3, IntValue(a.Median))
		allstars.SetInt(i+1, TableValue(triple))
	}
	t.SetString("allstars", TableValue(allstars))

	parts := make([]string, 0, len(r.EncounterRatings))
	for _, e := range r.EncounterRatings {
		parts = append(parts, fmt.Sprintf("%d,%d,%d", e.SpecID, e.Best, e.Median))
	}
	t.SetString("ratings", StringValue(strings.Join(parts, "|")))
	return t
}

// WriteQueryEcho renders a diagnostic dump of GraphQL variables for a failed
// query, using the same table writer as export emission (SPEC_FULL.md
// "query_echo diagnostic dump").
func WriteQueryEcho(queryName string, pairs []KV) string {
	return encodeVariables(queryName, pairs)
}

func writeFileAtomic(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("addon: mkdir %s: %w", filepath.Dir(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("addon: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("addon: rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}
