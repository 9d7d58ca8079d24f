package replace

// 📊 FileError pairs a path with the failure that skipped it.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// 📈 RunSummary aggregates file outcomes for one run. ModifiedFiles and
// Errors preserve the order outcomes were merged in.
type RunSummary struct {
	FilesProcessed    int         `json:"files_processed"`
	FilesModified     int         `json:"files_modified"`
	TotalReplacements int         `json:"total_replacements"`
	ModifiedFiles     []string    `json:"modified_files"`
	Errors            []FileError `json:"errors"`
}

// 🏭 NewRunSummary creates an empty summary. The slices start allocated
// so a serialized summary always carries lists, never null.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		ModifiedFiles: []string{},
		Errors:        []FileError{},
	}
}

// ➕ Add merges one file outcome into the summary. Every outcome counts
// as processed; failed outcomes land in Errors and contribute nothing
// else, modified outcomes feed the remaining aggregates.
func (s *RunSummary) Add(outcome FileOutcome) {
	s.FilesProcessed++

	if outcome.Err != "" {
		s.Errors = append(s.Errors, FileError{Path: outcome.Path, Message: outcome.Err})
		return
	}

	if outcome.Modified {
		s.FilesModified++
		s.TotalReplacements += outcome.Replacements
		s.ModifiedFiles = append(s.ModifiedFiles, outcome.Path)
	}
}
