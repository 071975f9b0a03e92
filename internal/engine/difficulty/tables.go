package difficulty

// threatByCR maps a challenge rating to the per-creature threat value used
// by the classifier. Fractional ratings use the conventional notation.
var threatByCR = map[string]int{
	"0":   10,
	"1/8": 25,
	"1/4": 50,
	"1/2": 100,
	"1":   200,
	"2":   450,
	"3":   700,
	"4":   1100,
	"5":   1800,
	"6":   2300,
	"7":   2900,
	"8":   3900,
	"9":   5000,
	"10":  5900,
	"11":  7200,
	"12":  8400,
	"13":  10000,
	"14":  11500,
	"15":  13000,
	"16":  15000,
	"17":  18000,
	"18":  20000,
	"19":  22000,
	"20":  25000,
	"21":  33000,
	"22":  41000,
	"23":  50000,
	"24":  62000,
	"25":  75000,
	"26":  90000,
	"27":  105000,
	"28":  120000,
	"29":  135000,
	"30":  155000,
}

// thresholdRow holds the four per-character thresholds for one party level.
type thresholdRow struct {
	Easy   int
	Medium int
	Hard   int
	Deadly int
}

// thresholdsByLevel indexes the per-character threshold table by party level
// 1 through 20.
var thresholdsByLevel = map[int]thresholdRow{
	1:  {25, 50, 75, 100},
	2:  {50, 100, 150, 200},
	3:  {75, 150, 225, 400},
	4:  {125, 250, 375, 500},
	5:  {250, 500, 750, 1100},
	6:  {300, 600, 900, 1400},
	7:  {350, 750, 1100, 1700},
	8:  {450, 900, 1400, 2100},
	9:  {550, 1100, 1600, 2400},
	10: {600, 1200, 1900, 2800},
	11: {800, 1600, 2400, 3600},
	12: {1000, 2000, 3000, 4500},
	13: {1100, 2200, 3400, 5100},
	14: {1250, 2500, 3800, 5700},
	15: {1400, 2800, 4300, 6400},
	16: {1600, 3200, 4800, 7200},
	17: {2000, 3900, 5900, 8800},
	18: {2100, 4200, 6300, 9500},
	19: {2400, 4900, 7300, 10900},
	20: {2800, 5700, 8500, 12700},
}

// multiplierFor returns the action-economy multiplier for the total creature
// count. More simultaneous opponents are disproportionately harder.
func multiplierFor(count int) float64 {
	switch {
	case count <= 1:
		return 1.0
	case count == 2:
		return 1.5
	case count <= 6:
		return 2.0
	case count <= 10:
		return 2.5
	case count <= 14:
		return 3.0
	default:
		return 4.0
	}
}
