package log

// LevelChangeEntry overrides the effective log level for a single source
// location. File matches the two-segment path suffix captured for caller
// information; Line 0 matches every line in the file.
type LevelChangeEntry struct {
	File  string `mapstructure:"file"`
	Line  int    `mapstructure:"line"`
	Level Level  `mapstructure:"level"`
}

// levelChange holds the per-file/per-line level overrides in lookup form.
type levelChange struct {
	files map[string]Level
	lines map[string]map[int]Level
}

func newLevelChange(entries []LevelChangeEntry) *levelChange {
	lc := &levelChange{
		files: make(map[string]Level),
		lines: make(map[string]map[int]Level),
	}
	for _, entry := range entries {
		if entry.Line == 0 {
			lc.files[entry.File] = entry.Level
			continue
		}
		if lc.lines[entry.File] == nil {
			lc.lines[entry.File] = make(map[int]Level)
		}
		lc.lines[entry.File][entry.Line] = entry.Level
	}
	return lc
}

// Empty reports whether no overrides are configured.
func (lc *levelChange) Empty() bool {
	return len(lc.files) == 0 && len(lc.lines) == 0
}

// GetLevel returns the override for the given source location, or def when no
// override applies. Line overrides take precedence over file overrides.
func (lc *levelChange) GetLevel(file string, line int, def Level) Level {
	if byLine, ok := lc.lines[file]; ok {
		if lv, ok := byLine[line]; ok {
			return lv
		}
	}
	if lv, ok := lc.files[file]; ok {
		return lv
	}
	return def
}
