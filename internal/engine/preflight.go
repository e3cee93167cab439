package engine

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"roboclone/internal/drives"
	"roboclone/internal/robocopy"
)

// SpaceProbe reports free space on the volume holding a path.
// drives.Probe is the production implementation.
type SpaceProbe interface {
	AvailableBytes(path string) (int64, error)
}

// Validator runs the pre-flight checks for a CopyRequest.
type Validator struct {
	probe SpaceProbe
	log   *zap.Logger
}

// NewValidator returns a Validator that asks probe for free space.
func NewValidator(probe SpaceProbe, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{probe: probe, log: log}
}

// NormalizeExclusions splits every entry on ';', trims whitespace, drops empty
// patterns and collapses case-insensitive duplicates. The first spelling and position
// of a pattern win. Normalizing an already normalized list returns it unchanged.
func NormalizeExclusions(patterns []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(patterns))

	for _, entry := range patterns {
		for _, p := range strings.Split(entry, ";") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			key := strings.ToLower(p)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, p)
		}
	}
	return out
}

// ParseExclusions normalizes a single ';'-separated list as typed by the user.
func ParseExclusions(s string) []string {
	return NormalizeExclusions([]string{s})
}

// Validate checks that both folders exist and that the target volume can hold every
// source file the exclusions keep.
//
// On InsufficientSpace the filled-in report is returned alongside the error so the
// caller can show the deficit. When the target volume cannot be queried at all the
// check is skipped with a warning and the report comes back with Verified unset.
func (v *Validator) Validate(ctx context.Context, source, target string, exclusions []string) (FreeSpaceReport, error) {
	var report FreeSpaceReport

	if err := requireDir("validate source", source); err != nil {
		return report, err
	}
	if err := requireDir("validate target", target); err != nil {
		return report, err
	}

	matcher := robocopy.NewMatcher(NormalizeExclusions(exclusions))
	tree, err := drives.MeasureTree(ctx, source, matcher.Excluded)
	if err != nil {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		return report, &Error{Kind: KindPathNotFound, Op: "measure source", Path: source, Err: err}
	}

	report.RequiredBytes = tree.Bytes
	report.FilesDiscovered = tree.Files

	v.log.Debug("measured source",
		zap.String("source", source),
		zap.Int64("bytes", tree.Bytes),
		zap.Int("files", tree.Files),
		zap.Int("excluded", tree.Excluded),
		zap.Int("unreadable", tree.Unreadable))

	available, err := v.probe.AvailableBytes(target)
	if err != nil {
		v.log.Warn("could not verify free space, continuing",
			zap.String("target", target), zap.Error(err))
		report.Sufficient = true
		return report, nil
	}

	report.AvailableBytes = available
	report.Verified = true
	report.Sufficient = available >= report.RequiredBytes

	if !report.Sufficient {
		return report, &Error{
			Kind:      KindInsufficientSpace,
			Op:        "validate target",
			Path:      target,
			Required:  report.RequiredBytes,
			Available: report.AvailableBytes,
		}
	}
	return report, nil
}

func requireDir(op, path string) error {
	if strings.TrimSpace(path) == "" {
		return &Error{Kind: KindPathNotFound, Op: op, Path: path}
	}
	info, err := os.Stat(path)
	if err != nil {
		return &Error{Kind: KindPathNotFound, Op: op, Path: path, Err: err}
	}
	if !info.IsDir() {
		return &Error{Kind: KindPathNotFound, Op: op, Path: path, Err: errNotDir}
	}
	return nil
}
