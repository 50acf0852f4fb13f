// ABOUTME: Cultivation level derivation from cumulative committed tears
// ABOUTME: Level is a pure function of TotalEntries; labels name each tier

package scroll

// Level returns the cultivation level for a total number of committed tears:
// the highest i with total >= LevelThresholds[i], plus one. Negative totals
// are level 1.
func Level(total int) int {
	for i := len(LevelThresholds) - 1; i >= 0; i-- {
		if total >= LevelThresholds[i] {
			return i + 1
		}
	}
	return 1
}

var levelLabels = [MaxLevel]string{
	"initiatus",
	"observans",
	"persistens",
	"devotus",
	"immersus",
	"transcendens",
	"illuminatus",
	"perfectus",
	"aeternus",
	"infinitus",
}

// LevelLabel returns the display name of a level, clamping out-of-range input.
func LevelLabel(level int) string {
	switch {
	case level < 1:
		level = 1
	case level > MaxLevel:
		level = MaxLevel
	}
	return levelLabels[level-1]
}
