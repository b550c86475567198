// SPDX-License-Identifier: MIT

// Package dumpsource fetches and verifies Wikimedia dump manifests and
// files: the external boundary of the pipeline. See spec §6 ("Dump
// source") and SPEC_FULL §7 ("download command detail").
package dumpsource

// FileStatus describes one file named in a dumpstatus.json job, mirroring
// the upstream schema closely enough to locate and verify it.
type FileStatus struct {
	Size uint64 `json:"size"`
	URL  string `json:"url"`
	MD5  string `json:"md5"`
}

// JobStatus is one named job ("sitestatstable",
// "articlesmultistreamdump", ...) inside a dumpstatus.json manifest.
type JobStatus struct {
	Status  string                `json:"status"`
	Updated string                `json:"updated,omitempty"`
	Files   map[string]FileStatus `json:"files,omitempty"`
}

// Done reports whether this job has finished running.
func (j JobStatus) Done() bool {
	return j.Status == "done"
}

// Manifest is the subset of dumpstatus.json this system depends on: the
// dump version and its per-job file listings.
type Manifest struct {
	Version string               `json:"version"`
	Jobs    map[string]JobStatus `json:"jobs"`
}

// requiredJobs names the jobs that must be done before a dump version is
// considered usable: the site stats table (small, used upstream for
// metadata) and the multistream article dump itself (the only job this
// system actually reads from).
var requiredJobs = []string{"sitestatstable", "articlesmultistreamdump"}

// Done reports whether every job this system depends on has finished.
func (m Manifest) Done() bool {
	for _, name := range requiredJobs {
		job, ok := m.Jobs[name]
		if !ok || !job.Done() {
			return false
		}
	}
	return true
}

// Files returns every (name, FileStatus) pair across the jobs this system
// depends on, keyed by file name. The result is a map, so iterating it
// yields the files in no particular order.
func (m Manifest) Files() map[string]FileStatus {
	files := make(map[string]FileStatus)
	for _, name := range requiredJobs {
		job, ok := m.Jobs[name]
		if !ok {
			continue
		}
		for k, v := range job.Files {
			files[k] = v
		}
	}
	return files
}
