package download

import "fmt"

type action int

const (
	actionDir action = iota
	actionSkip
	actionEmpty
	actionResume
	actionFetch
)

type fileResult struct {
	path       string
	action     action
	corrupted  bool
	incomplete bool
	err        error
}

// Failure is a file that could not be transferred.
type Failure struct {
	Path string
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarises one Download run. Total counts every manifest entry,
// directories included. Fetched counts files transferred from offset 0,
// Resumed those continued from a partial local copy. Incomplete files ended
// short of their size because the stream closed early; running again
// resumes them.
type Report struct {
	Total      int
	Skipped    int
	Resumed    int
	Corrupted  int
	Fetched    int
	Empty      int
	Incomplete int
	Failed     []Failure
}

func (r *Report) add(res fileResult) {
	if res.corrupted {
		r.Corrupted++
	}
	if res.err != nil {
		r.Failed = append(r.Failed, Failure{Path: res.path, Err: res.err})
		return
	}
	if res.incomplete {
		r.Incomplete++
	}
	switch res.action {
	case actionSkip:
		r.Skipped++
	case actionEmpty:
		r.Empty++
	case actionResume:
		r.Resumed++
	case actionFetch:
		r.Fetched++
	}
}

// OK reports whether every file is complete on disk.
func (r *Report) OK() bool {
	return len(r.Failed) == 0 && r.Incomplete == 0
}

func (r *Report) String() string {
	return fmt.Sprintf("total=%d skipped=%d resumed=%d corrupted=%d fetched=%d empty=%d incomplete=%d failed=%d",
		r.Total, r.Skipped, r.Resumed, r.Corrupted, r.Fetched, r.Empty, r.Incomplete, len(r.Failed))
}
