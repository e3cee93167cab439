package engine

import (
	"math"

	"roboclone/internal/robocopy"
)

const (
	// maxRunningPercent is the ceiling before the job reaches a terminal state.
	maxRunningPercent = 99

	// heuristicHalfLife is the line count at which the running estimate reaches half of
	// maxRunningPercent.
	heuristicHalfLife = 50
)

// Parser turns tool output into ProgressState and, once the tool exits, a JobResult.
// It is not safe for concurrent use; the engine feeds it from a single goroutine.
type Parser struct {
	state ProgressState

	started    int     // per-file entries seen
	fraction   float64 // progress through the current file, 0..1
	doneBytes  int64   // bytes of files that are finished
	curBytes   int64   // size of the file in flight
	afterError bool    // the next unknown line is the error's explanation

	summary     Summary
	summarySeen bool
}

// NewParser starts a parser. sourceFiles is the pre-flight file count, or 0 if unknown.
// It is only shown to the user: the tool prints changed files alone, so it cannot
// divide the printed lines.
func NewParser(sourceFiles int) *Parser {
	p := &Parser{}
	p.state.FilesExpected = max(sourceFiles, 0)
	return p
}

// State returns the current progress.
func (p *Parser) State() ProgressState {
	return p.state
}

// Feed consumes one line and returns the updated progress.
// Unrecognised lines are counted in Degraded and otherwise ignored.
func (p *Parser) Feed(line LogLine) ProgressState {
	p.state.Lines++
	l := robocopy.Classify(line.Text)

	if l.Shape != robocopy.ShapeUnknown && l.Shape != robocopy.ShapeBlank {
		p.afterError = false
	}

	switch l.Shape {
	case robocopy.ShapeFile:
		p.doneBytes += p.curBytes
		p.curBytes = l.Size
		p.fraction = 0
		p.started++
		p.state.FilesProcessed = p.started
		p.state.CurrentFile = l.Path

	case robocopy.ShapeExtraFile:
		p.state.Extras++

	case robocopy.ShapePercent:
		if f := l.Percent / 100; f > p.fraction {
			p.fraction = f
		}

	case robocopy.ShapeSummaryRow:
		p.recordRow(l.Row)

	case robocopy.ShapeError:
		p.state.Errors++
		p.afterError = true

	case robocopy.ShapeUnknown:
		if p.afterError {
			// The tool explains each error on the following line.
			p.afterError = false
		} else {
			p.state.Degraded++
		}
	}

	if !p.state.Terminal {
		p.state.BytesProcessed = p.doneBytes + int64(float64(p.curBytes)*p.fraction)
		p.advance(p.estimate())
	}
	return p.state
}

func (p *Parser) recordRow(row robocopy.SummaryRow) {
	switch row.Label {
	case robocopy.RowDirs:
		p.summary.Dirs = row
	case robocopy.RowBytes:
		p.summary.Bytes = row
	case robocopy.RowFiles:
		p.summary.Files = row
		p.summarySeen = true
		p.state.FilesExpected = int(row.Total)
		// Percent stays put until Finish knows the status.
		p.state.Terminal = true
		p.state.CurrentFile = ""
		p.doneBytes += p.curBytes
		p.curBytes = 0
		p.state.BytesProcessed = p.doneBytes
	}
}

// estimate is the completion estimate in percent. The file total is only known from
// the closing summary, so the running estimate grows with the number of lines seen and
// approaches maxRunningPercent.
func (p *Parser) estimate() float64 {
	k := float64(p.state.Lines)
	return maxRunningPercent * k / (k + heuristicHalfLife)
}

// advance moves Percent forward, never back, and keeps it below 100 until terminal.
func (p *Parser) advance(pct float64) {
	if math.IsNaN(pct) || pct < 0 {
		return
	}
	pct = math.Min(pct, maxRunningPercent)
	if pct > p.state.Percent {
		p.state.Percent = pct
	}
}

// Finish produces the JobResult once the tool has exited.
// A cancelled run is always StatusCancelled. Otherwise the status is the worse of what
// the exit code and the summary table say.
func (p *Parser) Finish(exitCode int, cancelled bool) JobResult {
	p.state.Terminal = true
	p.state.CurrentFile = ""

	result := JobResult{
		ExitCode:    exitCode,
		ExitDetail:  robocopy.DescribeExitCode(exitCode),
		Summary:     p.summary,
		SummarySeen: p.summarySeen,
	}

	if cancelled {
		result.Status = StatusCancelled
	} else {
		result.Status = worse(statusFromSeverity(robocopy.ClassifyExitCode(exitCode)), p.summaryStatus())
	}

	if result.Status == StatusSuccess || result.Status == StatusCompletedWithErrors {
		p.state.Percent = 100
		p.doneBytes += p.curBytes
		p.curBytes = 0
		p.state.BytesProcessed = p.doneBytes
	}

	result.Progress = p.state
	return result
}

func (p *Parser) summaryStatus() Status {
	if !p.summarySeen {
		return StatusSuccess
	}
	s := p.summary
	switch {
	case s.Files.Failed > 0 || s.Dirs.Failed > 0:
		return StatusFailed
	case s.Files.Mismatch > 0 || s.Dirs.Mismatch > 0 || s.Files.Extras > 0 || s.Dirs.Extras > 0:
		return StatusCompletedWithErrors
	default:
		return StatusSuccess
	}
}
