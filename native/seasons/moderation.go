package seasons

// BlacklistSubmissionFromSeason permanently removes a submission from future
// sales and claims. The sales counter is snapshotted for audit and then
// zeroed, which also drops the submission out of the leaderboard. The
// artist's claimable balance is frozen, not voided. Owner only.
func (e *Engine) BlacklistSubmissionFromSeason(caller [20]byte, seasonID, artifactID uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	if err := e.requireOwner(caller); err != nil {
		return err
	}
	sub, ok, err := e.state.SubmissionGet(artifactID)
	if err != nil {
		return err
	}
	if !ok || sub == nil || sub.SeasonID != seasonID {
		return ErrNotPartOfSeason
	}
	if sub.Blacklisted {
		return ErrAlreadyBlacklisted
	}
	sub.SoldBeforeBlacklist = sub.TotalSold
	sub.TotalSold = 0
	sub.Blacklisted = true
	if err := e.state.SubmissionPut(sub); err != nil {
		return err
	}
	e.emit(submissionBlacklistedEvent(seasonID, artifactID, sub.SoldBeforeBlacklist))
	return nil
}

// IsBlacklisted reports whether the (season, artifact) pair has been flagged
// by moderation.
func (e *Engine) IsBlacklisted(seasonID, artifactID uint64) (bool, error) {
	sub, err := e.Submission(artifactID)
	if err != nil {
		return false, err
	}
	if sub.SeasonID != seasonID {
		return false, ErrNotPartOfSeason
	}
	return sub.Blacklisted, nil
}

// AmountSoldBeforeBlacklist returns the sales counter snapshot taken at the
// moment of blacklisting. Zero for submissions never blacklisted.
func (e *Engine) AmountSoldBeforeBlacklist(seasonID, artifactID uint64) (uint64, error) {
	sub, err := e.Submission(artifactID)
	if err != nil {
		return 0, err
	}
	if sub.SeasonID != seasonID {
		return 0, ErrNotPartOfSeason
	}
	return sub.SoldBeforeBlacklist, nil
}
