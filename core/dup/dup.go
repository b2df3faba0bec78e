// Package dup finds function bodies that recur across files.
//
// Fragments are bucketed by an xxhash fingerprint of their normalized text and
// grouped by exact text inside a bucket, so detection never compares files pairwise.
// A Detector has a single writer: the caller adds files in discovery order.
package dup

import (
	"math"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/huangsam/codehealth/core/syntax"
	"github.com/huangsam/codehealth/schema"
)

// Fragment is one normalized function body interior.
type Fragment struct {
	Text  string
	Lines int
	Start uint // byte span of the body in its file
	End   uint
}

// Normalize trims every line, collapses internal whitespace and drops blank lines.
// It returns the normalized text and its line count.
func Normalize(text string) (string, int) {
	var kept []string
	for line := range strings.SplitSeq(text, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		kept = append(kept, strings.Join(fields, " "))
	}
	return strings.Join(kept, "\n"), len(kept)
}

// Fragments normalizes the given bodies and keeps those with at least minLines lines.
func Fragments(content []byte, bodies []syntax.Body, minLines int) []Fragment {
	var out []Fragment
	for _, body := range bodies {
		if body.End > uint(len(content)) || body.Start > body.End {
			continue
		}
		text, lines := Normalize(string(content[body.Start:body.End]))
		if lines < minLines {
			continue
		}
		out = append(out, Fragment{Text: text, Lines: lines, Start: body.Start, End: body.End})
	}
	return out
}

type occurrence struct {
	file  int // discovery index
	start uint
	end   uint
}

type group struct {
	text        string
	lines       int
	occurrences []occurrence
}

// Detector is the fingerprint index of one run.
type Detector struct {
	files   []string
	buckets map[uint64][]*group
}

// Result is the outcome of duplication detection.
type Result struct {
	Summary         schema.DuplicationSummary
	DuplicatedLines int                 // sum of lines over every occurrence not nested in another
	Files           map[string]struct{} // files that take part in at least one instance
}

// NewDetector creates an empty index.
func NewDetector() *Detector {
	return &Detector{buckets: make(map[uint64][]*group)}
}

// Add indexes the fragments of one file. Files must be added in discovery order.
func (d *Detector) Add(file string, fragments []Fragment) {
	idx := len(d.files)
	d.files = append(d.files, file)
	for _, f := range fragments {
		d.insert(f, occurrence{file: idx, start: f.Start, end: f.End})
	}
}

func (d *Detector) insert(f Fragment, occ occurrence) {
	key := xxhash.Sum64String(f.Text)
	for _, g := range d.buckets[key] {
		if g.text == f.Text {
			g.occurrences = append(g.occurrences, occ)
			return
		}
	}
	d.buckets[key] = append(d.buckets[key], &group{text: f.Text, lines: f.Lines, occurrences: []occurrence{occ}})
}

// Detect reports every group whose occurrences span two or more files.
// Groups are counted largest first, and an occurrence nested inside an already
// counted occurrence in the same file adds no duplicated lines.
func (d *Detector) Detect(totalLines int) *Result {
	var candidates []*group
	for _, bucket := range d.buckets {
		for _, g := range bucket {
			if distinctFiles(g.occurrences) >= 2 {
				candidates = append(candidates, g)
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].lines != candidates[j].lines {
			return candidates[i].lines > candidates[j].lines
		}
		return candidates[i].text < candidates[j].text
	})

	res := &Result{
		Summary: schema.DuplicationSummary{Instances: []schema.DuplicationInstance{}},
		Files:   make(map[string]struct{}),
	}
	counted := make(map[int][]occurrence)
	for _, g := range candidates {
		files := d.fileNames(g.occurrences)
		res.Summary.Instances = append(res.Summary.Instances, schema.DuplicationInstance{
			Files:    files,
			Lines:    g.lines,
			Fragment: g.text,
		})
		for _, f := range files {
			res.Files[f] = struct{}{}
		}
		for _, occ := range g.occurrences {
			if contained(occ, counted[occ.file]) {
				continue
			}
			counted[occ.file] = append(counted[occ.file], occ)
			res.DuplicatedLines += g.lines
		}
	}

	sort.SliceStable(res.Summary.Instances, func(i, j int) bool {
		a, b := res.Summary.Instances[i], res.Summary.Instances[j]
		if a.Lines != b.Lines {
			return a.Lines > b.Lines
		}
		if a.Files[0] != b.Files[0] {
			return a.Files[0] < b.Files[0]
		}
		return a.Fragment < b.Fragment
	})

	if totalLines > 0 {
		res.Summary.Percentage = math.Min(100, float64(res.DuplicatedLines)/float64(totalLines)*100)
	}
	return res
}

// fileNames returns the distinct files of the occurrences in discovery order.
func (d *Detector) fileNames(occs []occurrence) []string {
	seen := make(map[int]struct{}, len(occs))
	var idxs []int
	for _, occ := range occs {
		if _, ok := seen[occ.file]; ok {
			continue
		}
		seen[occ.file] = struct{}{}
		idxs = append(idxs, occ.file)
	}
	sort.Ints(idxs)
	names := make([]string, len(idxs))
	for i, idx := range idxs {
		names[i] = d.files[idx]
	}
	return names
}

func distinctFiles(occs []occurrence) int {
	seen := make(map[int]struct{}, len(occs))
	for _, occ := range occs {
		seen[occ.file] = struct{}{}
	}
	return len(seen)
}

func contained(occ occurrence, spans []occurrence) bool {
	for _, s := range spans {
		if occ.start >= s.start && occ.end <= s.end {
			return true
		}
	}
	return false
}
