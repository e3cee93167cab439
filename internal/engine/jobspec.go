package engine

import (
	"roboclone/internal/robocopy"
)

// JobOptions are the tool settings that do not come from the request itself.
type JobOptions struct {
	Tool      string // executable name or path
	Mirror    bool   // delete files in the target that are gone from the source
	Retries   int    // per-file retries on failure
	RetryWait int    // seconds between retries
	Threads   int    // multi-threaded copy when > 1 (disables per-file percentages)
}

// DefaultJobOptions mirrors the source into the target with no retries.
func DefaultJobOptions() JobOptions {
	return JobOptions{
		Tool:   robocopy.DefaultTool,
		Mirror: true,
	}
}

// JobSpec is a fully resolved command line.
type JobSpec struct {
	Tool    string
	Args    []string
	Request CopyRequest
}

// DryRun reports whether the spec only lists changes.
func (s JobSpec) DryRun() bool {
	return s.Request.DryRun
}

// BuildJobSpec turns a request into a command line. It performs no I/O.
func BuildJobSpec(req CopyRequest, opts JobOptions) JobSpec {
	req = req.clone()
	req.Exclusions = NormalizeExclusions(req.Exclusions)

	tool := opts.Tool
	if tool == "" {
		tool = robocopy.DefaultTool
	}

	cmd := robocopy.Command{
		Source:    req.Source,
		Target:    req.Target,
		Mirror:    opts.Mirror,
		ListOnly:  req.DryRun,
		Excludes:  req.Exclusions,
		Retries:   opts.Retries,
		RetryWait: opts.RetryWait,
		Threads:   opts.Threads,
	}

	return JobSpec{
		Tool:    tool,
		Args:    cmd.Args(),
		Request: req,
	}
}
