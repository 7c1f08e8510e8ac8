package seasons

import "artifactledger/core/types"

// ArtistClaim mints artifacts against the claimable balance an artist accrued
// through sales. Deferred claiming is the only artist-side distribution path;
// purchases never mint to the artist directly. The whole batch is atomic.
func (e *Engine) ArtistClaim(claimant [20]byte, artifactIDs []uint64, amounts []uint64) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.enter(); err != nil {
		return err
	}
	defer e.leave()
	cfg, err := e.config()
	if err != nil {
		return err
	}
	if cfg.Shutdown {
		return ErrShutdown
	}
	if len(artifactIDs) == 0 || len(artifactIDs) != len(amounts) {
		return ErrInvalidInput
	}
	now := e.now()
	staged := make(map[uint64]*Submission)
	balances := make(map[uint64]uint64)
	var evts []*types.Event
	for i, id := range artifactIDs {
		amount := amounts[i]
		if amount == 0 {
			return ErrInvalidInput
		}
		sub, ok := staged[id]
		if !ok {
			loaded, found, err := e.state.SubmissionGet(id)
			if err != nil {
				return err
			}
			if !found || loaded == nil {
				return ErrSubmissionNotFound
			}
			sub = loaded
			staged[id] = sub
		}
		if sub.Artist != claimant {
			return ErrOnlyArtist
		}
		if sub.Blacklisted {
			return ErrBlacklisted
		}
		if sub.ClaimableBalance == 0 {
			return ErrNoTokensToMint
		}
		if amount > sub.ClaimableBalance {
			return ErrIncorrectAmount
		}
		sub.ClaimableBalance -= amount
		held, ok := balances[id]
		if !ok {
			loaded, err := e.state.BalanceGet(claimant, id)
			if err != nil {
				return err
			}
			held = loaded
		}
		if balances[id], err = addUnits(held, amount); err != nil {
			return err
		}
		evts = append(evts, artifactsClaimedEvent(hexAddr(claimant), id, amount, now))
	}
	for id, sub := range staged {
		if err := e.state.SubmissionPut(sub); err != nil {
			return err
		}
		if err := e.state.BalancePut(claimant, id, balances[id]); err != nil {
			return err
		}
	}
	for _, evt := range evts {
		e.emit(evt)
	}
	return nil
}
