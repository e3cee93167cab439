package robocopy

import (
	"regexp"
	"strconv"
	"strings"

	"roboclone/internal/drives"
)

// Shape identifies which kind of output line the tool printed.
type Shape int

const (
	ShapeUnknown       Shape = iota // nothing we recognise
	ShapeBlank                      // whitespace only
	ShapeFile                       // per-file entry ("New File", "Newer", ...)
	ShapeExtraFile                  // "*EXTRA File" found only in the destination
	ShapeDir                        // directory entry (normally suppressed by /NDL)
	ShapePercent                    // in-place progress marker for the current file
	ShapeSummaryHeader              // "Total Copied Skipped Mismatch FAILED Extras"
	ShapeSummaryRow                 // "Dirs :", "Files :" or "Bytes :" row of the job summary
	ShapeError                      // "ERROR n (0x...)" line
	ShapeNoise                      // separators, timings and other known filler
)

var shapeNames = map[Shape]string{
	ShapeUnknown:       "unknown",
	ShapeBlank:         "blank",
	ShapeFile:          "file",
	ShapeExtraFile:     "extra",
	ShapeDir:           "dir",
	ShapePercent:       "percent",
	ShapeSummaryHeader: "summary_header",
	ShapeSummaryRow:    "summary_row",
	ShapeError:         "error",
	ShapeNoise:         "noise",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// Summary row labels.
const (
	RowDirs  = "Dirs"
	RowFiles = "Files"
	RowBytes = "Bytes"
)

// SummaryRow is one row of the job summary table.
type SummaryRow struct {
	Label    string
	Total    int64
	Copied   int64
	Skipped  int64
	Mismatch int64
	Failed   int64
	Extras   int64
}

// Line is a classified line of tool output.
type Line struct {
	Shape   Shape
	Class   string  // file or dir class as printed, e.g. "New File"
	Size    int64   // file size in bytes (ShapeFile, ShapeExtraFile)
	Path    string  // full path (ShapeFile, ShapeExtraFile, ShapeDir)
	Percent float64 // 0-100 (ShapePercent)
	Row     SummaryRow
	Code    int    // Windows error number (ShapeError)
	Message string // error text (ShapeError)
}

var (
	fileLineRe = regexp.MustCompile(`(?i)^\s*(\*EXTRA File|New File|Newer|Older|Changed|Tweaked|Modified|Same|Mismatch|lonely)\s+(\d+(?:\.\d+)?)(?:\s*([kmgt]))?\s+(\S.*?)\s*$`)
	dirLineRe  = regexp.MustCompile(`(?i)^\s*(New Dir|\*EXTRA Dir)?\s*(-?\d+)\s+(\S.*[\\/])\s*$`)
	percentRe  = regexp.MustCompile(`^\s*(\d{1,3}(?:\.\d+)?)%\s*$`)
	headerRe   = regexp.MustCompile(`(?i)^\s*Total\s+Copied\s+Skipped\s+Mismatch\s+FAILED\s+Extras\s*$`)
	rowRe      = regexp.MustCompile(`(?i)^\s*(Dirs|Files|Bytes)\s*:\s*(.*)$`)
	errorRe    = regexp.MustCompile(`(?i)\bERROR\s+(\d+)\s+\((0x[0-9a-f]+)\)\s*(.*)$`)
	noiseRe    = regexp.MustCompile(`(?i)^\s*(?:-{5,}\s*$|ROBOCOPY\s+::|(?:Started|Source|Dest|Files|Options|Exc Files|Exc Dirs|Times|Speed|Ended|Log File|Monitor)\s*:|Waiting\s+\d+\s+seconds|ERROR: RETRY LIMIT EXCEEDED|\d+\s+Bytes/sec|Total\s+Copied)`)
)

// Classify recognises a single line of tool output.
// Order matters: the summary rows share their "Files :" prefix with a job header line.
func Classify(text string) Line {
	if strings.TrimSpace(text) == "" {
		return Line{Shape: ShapeBlank}
	}

	if m := percentRe.FindStringSubmatch(text); m != nil {
		pct, _ := strconv.ParseFloat(m[1], 64)
		if pct > 100 {
			pct = 100
		}
		return Line{Shape: ShapePercent, Percent: pct}
	}

	if m := fileLineRe.FindStringSubmatch(text); m != nil {
		size, err := parseSize(m[2], m[3])
		if err == nil {
			shape := ShapeFile
			if strings.EqualFold(m[1], "*EXTRA File") {
				shape = ShapeExtraFile
			}
			return Line{Shape: shape, Class: m[1], Size: size, Path: m[4]}
		}
	}

	if headerRe.MatchString(text) {
		return Line{Shape: ShapeSummaryHeader}
	}

	if m := rowRe.FindStringSubmatch(text); m != nil {
		if counts, ok := parseCounts(m[2]); ok {
			return Line{Shape: ShapeSummaryRow, Row: SummaryRow{
				Label:    canonicalLabel(m[1]),
				Total:    counts[0],
				Copied:   counts[1],
				Skipped:  counts[2],
				Mismatch: counts[3],
				Failed:   counts[4],
				Extras:   counts[5],
			}}
		}
	}

	if m := errorRe.FindStringSubmatch(text); m != nil {
		code, _ := strconv.Atoi(m[1])
		return Line{Shape: ShapeError, Code: code, Message: strings.TrimSpace(m[3])}
	}

	if m := dirLineRe.FindStringSubmatch(text); m != nil {
		return Line{Shape: ShapeDir, Class: m[1], Path: m[3]}
	}

	if noiseRe.MatchString(text) {
		return Line{Shape: ShapeNoise}
	}

	return Line{Shape: ShapeUnknown}
}

func canonicalLabel(label string) string {
	switch strings.ToLower(label) {
	case "dirs":
		return RowDirs
	case "files":
		return RowFiles
	default:
		return RowBytes
	}
}

// parseCounts reads the six numeric columns of a summary row.
// Columns may carry a unit suffix ("1.25 m") when /BYTES is not in effect.
func parseCounts(s string) ([]int64, bool) {
	fields := strings.Fields(s)
	counts := make([]int64, 0, 6)

	for i := 0; i < len(fields); i++ {
		num, unit := fields[i], ""
		if last := num[len(num)-1]; isUnit(last) && len(num) > 1 {
			num, unit = num[:len(num)-1], string(last)
		} else if i+1 < len(fields) && len(fields[i+1]) == 1 && isUnit(fields[i+1][0]) {
			unit = fields[i+1]
			i++
		}

		v, err := parseSize(num, unit)
		if err != nil {
			return nil, false
		}
		counts = append(counts, v)
	}

	if len(counts) != 6 {
		return nil, false
	}
	return counts, true
}

func isUnit(c byte) bool {
	switch c {
	case 'k', 'K', 'm', 'M', 'g', 'G', 't', 'T':
		return true
	}
	return false
}

// parseSize turns "1234" or ("1.5", "m") into bytes.
func parseSize(num, unit string) (int64, error) {
	if unit == "" {
		if v, err := strconv.ParseInt(num, 10, 64); err == nil {
			return v, nil
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	}
	return drives.ParseDriveSize(num + unit)
}
