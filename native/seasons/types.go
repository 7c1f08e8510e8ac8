package seasons

// FirstArtifactID is the value assigned to the first submission ever created.
// Ids are drawn from a single global counter shared across all seasons, so
// they are never reused and system-wide order reflects creation order.
const FirstArtifactID uint64 = 124

// Season is a time-boxed campaign window grouping submissions and their
// sales. Once closed it is immutable apart from the stored winner set.
type Season struct {
	ID               uint64   `json:"id"`
	SubmissionIDs    []uint64 `json:"submissionIds"`
	StartTime        int64    `json:"startTime"`
	EndTime          int64    `json:"endTime"`
	Closed           bool     `json:"closed"`
	TopSubmissionIDs []uint64 `json:"topSubmissionIds"`
}

// Clone returns a deep copy of the season.
func (s *Season) Clone() *Season {
	if s == nil {
		return nil
	}
	clone := *s
	if s.SubmissionIDs != nil {
		clone.SubmissionIDs = append([]uint64(nil), s.SubmissionIDs...)
	}
	if s.TopSubmissionIDs != nil {
		clone.TopSubmissionIDs = append([]uint64(nil), s.TopSubmissionIDs...)
	}
	return &clone
}

// AcceptingSubmissions reports whether new submissions may still join the
// season at the supplied timestamp.
func (s *Season) AcceptingSubmissions(now int64) bool {
	if s == nil || s.Closed {
		return false
	}
	return now < s.EndTime
}

// Submission is a unique artifact id with metadata and an owning artist,
// created within exactly one season.
type Submission struct {
	ID       uint64   `json:"id"`
	SeasonID uint64   `json:"seasonId"`
	URI      string   `json:"uri"`
	Artist   [20]byte `json:"artist"`

	// TotalSold accumulates units sold while active and is reset to zero on
	// blacklisting; SoldBeforeBlacklist preserves the pre-reset value for
	// audit.
	TotalSold           uint64 `json:"totalSold"`
	ClaimableBalance    uint64 `json:"claimableBalance"`
	Blacklisted         bool   `json:"blacklisted"`
	SoldBeforeBlacklist uint64 `json:"soldBeforeBlacklist"`
}

// Clone returns a deep copy of the submission.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
