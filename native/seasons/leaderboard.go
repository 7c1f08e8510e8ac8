package seasons

// computeTopSubmissions scans the season's non-blacklisted submissions, finds
// the maximum sales total and collects every submission matching it, in
// creation order. An all-zero season has no winners.
func (e *Engine) computeTopSubmissions(season *Season) ([]uint64, error) {
	var max uint64
	totals := make(map[uint64]uint64, len(season.SubmissionIDs))
	for _, id := range season.SubmissionIDs {
		sub, ok, err := e.state.SubmissionGet(id)
		if err != nil {
			return nil, err
		}
		if !ok || sub == nil {
			return nil, ErrSubmissionNotFound
		}
		if sub.Blacklisted {
			continue
		}
		totals[id] = sub.TotalSold
		if sub.TotalSold > max {
			max = sub.TotalSold
		}
	}
	winners := []uint64{}
	if max == 0 {
		return winners, nil
	}
	for _, id := range season.SubmissionIDs {
		if total, ok := totals[id]; ok && total == max {
			winners = append(winners, id)
		}
	}
	return winners, nil
}

// CalculateTopSubmissionsOfSeason recomputes and persists the season's winner
// set. CloseSeason runs the same computation; this entry point lets the owner
// refresh the stored set independently. Owner only.
func (e *Engine) CalculateTopSubmissionsOfSeason(caller [20]byte, seasonID uint64) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := e.enter(); err != nil {
		return nil, err
	}
	defer e.leave()
	if err := e.requireOwner(caller); err != nil {
		return nil, err
	}
	season, ok, err := e.state.SeasonGet(seasonID)
	if err != nil {
		return nil, err
	}
	if !ok || season == nil {
		return nil, ErrSeasonNotFound
	}
	winners, err := e.computeTopSubmissions(season)
	if err != nil {
		return nil, err
	}
	season.TopSubmissionIDs = winners
	if err := e.state.SeasonPut(season); err != nil {
		return nil, err
	}
	e.emit(topSubmissionsEvent(seasonID, winners))
	return append([]uint64(nil), winners...), nil
}

// TopSubmissionsOfSeason returns the stored winner set. Empty when the
// leaderboard has never been computed or all sales were zero.
func (e *Engine) TopSubmissionsOfSeason(seasonID uint64) ([]uint64, error) {
	season, err := e.Season(seasonID)
	if err != nil {
		return nil, err
	}
	if season.TopSubmissionIDs == nil {
		return []uint64{}, nil
	}
	return season.TopSubmissionIDs, nil
}
