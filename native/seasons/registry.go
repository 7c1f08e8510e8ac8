package seasons

// CreateSeason opens a new time-boxed season. Owner only.
func (e *Engine) CreateSeason(caller [20]byte, startTime, endTime int64) (*Season, error) {
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
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	if cfg.Shutdown {
		return nil, ErrShutdown
	}
	if startTime >= endTime {
		return nil, ErrIncorrectTimes
	}
	count, err := e.state.SeasonCounterGet()
	if err != nil {
		return nil, err
	}
	season := &Season{
		ID:            count + 1,
		SubmissionIDs: []uint64{},
		StartTime:     startTime,
		EndTime:       endTime,
	}
	if err := e.state.SeasonPut(season); err != nil {
		return nil, err
	}
	if err := e.state.SeasonCounterPut(count + 1); err != nil {
		return nil, err
	}
	e.emit(seasonCreatedEvent(season.ID))
	return season.Clone(), nil
}

// CreateSubmission registers a new artifact in an open season and assigns it
// the next value of the global id counter. Owner only.
func (e *Engine) CreateSubmission(caller [20]byte, seasonID uint64, uri string, artist [20]byte) (*Submission, error) {
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
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	// Shutdown takes precedence over season lookup so a halted registry never
	// leaks lifecycle detail.
	if cfg.Shutdown {
		return nil, ErrShutdown
	}
	season, ok, err := e.state.SeasonGet(seasonID)
	if err != nil {
		return nil, err
	}
	if !ok || season == nil {
		return nil, ErrSeasonNotFound
	}
	if season.Closed {
		return nil, ErrSeasonAlreadyClosed
	}
	if e.now() >= season.EndTime {
		return nil, ErrSubmissionWindowElapsed
	}
	count, err := e.state.ArtifactCounterGet()
	if err != nil {
		return nil, err
	}
	sub := &Submission{
		ID:       FirstArtifactID + count,
		SeasonID: seasonID,
		URI:      uri,
		Artist:   artist,
	}
	season.SubmissionIDs = append(season.SubmissionIDs, sub.ID)
	if err := e.state.SubmissionPut(sub); err != nil {
		return nil, err
	}
	if err := e.state.SeasonPut(season); err != nil {
		return nil, err
	}
	if err := e.state.ArtifactCounterPut(count + 1); err != nil {
		return nil, err
	}
	e.emit(submissionCreatedEvent(sub.ID, hexAddr(artist)))
	return sub.Clone(), nil
}

// CloseSeason settles a season that has reached its end time: every
// non-blacklisted submission has its sales total minted to the protocol
// wallet in one batch, the winner set is computed and stored, and the season
// becomes immutable. Owner only.
func (e *Engine) CloseSeason(caller [20]byte, seasonID uint64) (*Season, error) {
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
	if season.Closed {
		return nil, ErrSeasonAlreadyClosed
	}
	if e.now() < season.EndTime {
		return nil, ErrSeasonStillRunning
	}
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	mintedIDs := make([]uint64, 0, len(season.SubmissionIDs))
	mintedAmounts := make([]uint64, 0, len(season.SubmissionIDs))
	for _, id := range season.SubmissionIDs {
		sub, ok, err := e.state.SubmissionGet(id)
		if err != nil {
			return nil, err
		}
		if !ok || sub == nil {
			return nil, ErrSubmissionNotFound
		}
		if sub.Blacklisted || sub.TotalSold == 0 {
			continue
		}
		held, err := e.state.BalanceGet(cfg.ProtocolWallet, id)
		if err != nil {
			return nil, err
		}
		next, err := addUnits(held, sub.TotalSold)
		if err != nil {
			return nil, err
		}
		if err := e.state.BalancePut(cfg.ProtocolWallet, id, next); err != nil {
			return nil, err
		}
		mintedIDs = append(mintedIDs, id)
		mintedAmounts = append(mintedAmounts, sub.TotalSold)
	}
	if len(mintedIDs) > 0 {
		e.emit(protocolArtifactsMintedEvent(seasonID, hexAddr(cfg.ProtocolWallet), mintedIDs, mintedAmounts))
	}
	winners, err := e.computeTopSubmissions(season)
	if err != nil {
		return nil, err
	}
	season.TopSubmissionIDs = winners
	season.Closed = true
	if err := e.state.SeasonPut(season); err != nil {
		return nil, err
	}
	e.emit(topSubmissionsEvent(seasonID, winners))
	e.emit(seasonClosedEvent(seasonID))
	return season.Clone(), nil
}

// Season returns the full season record or ErrSeasonNotFound.
func (e *Engine) Season(id uint64) (*Season, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	season, ok, err := e.state.SeasonGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || season == nil {
		return nil, ErrSeasonNotFound
	}
	return season.Clone(), nil
}

// Submission returns the full submission record or ErrSubmissionNotFound.
func (e *Engine) Submission(id uint64) (*Submission, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sub, ok, err := e.state.SubmissionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrSubmissionNotFound
	}
	return sub.Clone(), nil
}

// LatestTokenID returns the most recently created artifact id of the season.
func (e *Engine) LatestTokenID(seasonID uint64) (uint64, error) {
	season, err := e.Season(seasonID)
	if err != nil {
		return 0, err
	}
	if len(season.SubmissionIDs) == 0 {
		return 0, ErrSubmissionNotFound
	}
	return season.SubmissionIDs[len(season.SubmissionIDs)-1], nil
}

// TokenURI returns the metadata URI recorded for the artifact id.
func (e *Engine) TokenURI(artifactID uint64) (string, error) {
	sub, err := e.Submission(artifactID)
	if err != nil {
		return "", err
	}
	return sub.URI, nil
}

// BalanceOf reports the minted quantity of the artifact held by account.
func (e *Engine) BalanceOf(account [20]byte, artifactID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.BalanceGet(account, artifactID)
}
