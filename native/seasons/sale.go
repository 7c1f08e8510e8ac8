package seasons

import (
	"math/big"

	"artifactledger/core/types"
)

// saleStaging accumulates the effects of a purchase batch so they can be
// validated as a whole and applied all-or-nothing. Reads go through the
// staging maps first so repeated ids within one batch observe each other.
type saleStaging struct {
	subs         map[uint64]*Submission
	seasons      map[uint64]*Season
	balances     map[uint64]uint64
	buyerTotals  map[uint64]uint64
	seasonTotals map[uint64]uint64
	topBuyers    map[uint64][20]byte
	evts         []*types.Event
}

func newSaleStaging() *saleStaging {
	return &saleStaging{
		subs:         make(map[uint64]*Submission),
		seasons:      make(map[uint64]*Season),
		balances:     make(map[uint64]uint64),
		buyerTotals:  make(map[uint64]uint64),
		seasonTotals: make(map[uint64]uint64),
		topBuyers:    make(map[uint64][20]byte),
	}
}

func (st *saleStaging) submission(e *Engine, id uint64) (*Submission, error) {
	if sub, ok := st.subs[id]; ok {
		return sub, nil
	}
	sub, ok, err := e.state.SubmissionGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || sub == nil {
		return nil, ErrSubmissionNotFound
	}
	st.subs[id] = sub
	return sub, nil
}

func (st *saleStaging) season(e *Engine, id uint64) (*Season, error) {
	if season, ok := st.seasons[id]; ok {
		return season, nil
	}
	season, ok, err := e.state.SeasonGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || season == nil {
		return nil, ErrSeasonNotFound
	}
	st.seasons[id] = season
	return season, nil
}

func (st *saleStaging) balance(e *Engine, buyer [20]byte, id uint64) (uint64, error) {
	if qty, ok := st.balances[id]; ok {
		return qty, nil
	}
	qty, err := e.state.BalanceGet(buyer, id)
	if err != nil {
		return 0, err
	}
	st.balances[id] = qty
	return qty, nil
}

func (st *saleStaging) buyerTotal(e *Engine, buyer [20]byte, id uint64) (uint64, error) {
	if qty, ok := st.buyerTotals[id]; ok {
		return qty, nil
	}
	qty, err := e.state.BuyerArtifactTotalGet(buyer, id)
	if err != nil {
		return 0, err
	}
	st.buyerTotals[id] = qty
	return qty, nil
}

func (st *saleStaging) seasonTotal(e *Engine, buyer [20]byte, seasonID uint64) (uint64, error) {
	if qty, ok := st.seasonTotals[seasonID]; ok {
		return qty, nil
	}
	qty, err := e.state.BuyerSeasonTotalGet(buyer, seasonID)
	if err != nil {
		return 0, err
	}
	st.seasonTotals[seasonID] = qty
	return qty, nil
}

// topBuyer resolves the current leader for an artifact, preferring a staged
// update from an earlier pair of the same batch.
func (st *saleStaging) topBuyer(e *Engine, id uint64) ([20]byte, bool, error) {
	if top, ok := st.topBuyers[id]; ok {
		return top, true, nil
	}
	return e.state.TopBuyerGet(id)
}

// MintArtifact validates and executes a purchase batch: payment matching,
// minting to the buyer, revenue accrual and statistics. The whole call is
// atomic; the first failing pair aborts everything.
func (e *Engine) MintArtifact(buyer [20]byte, artifactIDs []uint64, amounts []uint64, paid *big.Int) error {
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
	if paid == nil || paid.Sign() < 0 {
		return ErrInvalidInput
	}
	now := e.now()
	st := newSaleStaging()
	total := big.NewInt(0)
	protocolShare := big.NewInt(0)
	treasuryShare := big.NewInt(0)
	for i, id := range artifactIDs {
		amount := amounts[i]
		if amount == 0 {
			return ErrInvalidInput
		}
		sub, err := st.submission(e, id)
		if err != nil {
			return err
		}
		season, err := st.season(e, sub.SeasonID)
		if err != nil {
			return err
		}
		// An ended-but-unclosed season rejects sales the same way an
		// explicitly closed one does.
		if season.Closed || now >= season.EndTime {
			return ErrSeasonAlreadyClosed
		}
		if sub.Blacklisted {
			return ErrBlacklisted
		}
		cost := pairCost(cfg.UnitPrice, amount)
		total = total.Add(total, cost)
		protocolShare = protocolShare.Add(protocolShare, percentShare(cost, cfg.ProtocolFeePercent))
		treasuryShare = treasuryShare.Add(treasuryShare, percentShare(cost, cfg.TreasurySplitPercent))

		if sub.TotalSold, err = addUnits(sub.TotalSold, amount); err != nil {
			return err
		}
		if sub.ClaimableBalance, err = addUnits(sub.ClaimableBalance, amount); err != nil {
			return err
		}
		held, err := st.balance(e, buyer, id)
		if err != nil {
			return err
		}
		if st.balances[id], err = addUnits(held, amount); err != nil {
			return err
		}
		bought, err := st.buyerTotal(e, buyer, id)
		if err != nil {
			return err
		}
		if bought, err = addUnits(bought, amount); err != nil {
			return err
		}
		st.buyerTotals[id] = bought
		if err := st.trackTopBuyer(e, buyer, id, bought); err != nil {
			return err
		}
		inSeason, err := st.seasonTotal(e, buyer, sub.SeasonID)
		if err != nil {
			return err
		}
		if st.seasonTotals[sub.SeasonID], err = addUnits(inSeason, amount); err != nil {
			return err
		}
		st.evts = append(st.evts, artifactMintedEvent(hexAddr(buyer), id, amount))
	}
	if paid.Cmp(total) != 0 {
		return ErrIncorrectAmount
	}

	// Effects. The buyer debit doubles as the final check: if it fails
	// nothing has been written yet.
	if err := e.debitAccount(buyer, paid); err != nil {
		return err
	}
	if err := e.creditAccount(e.pot, paid); err != nil {
		return err
	}
	for id, sub := range st.subs {
		if err := e.state.SubmissionPut(sub); err != nil {
			return err
		}
		if err := e.state.BalancePut(buyer, id, st.balances[id]); err != nil {
			return err
		}
		if err := e.state.BuyerArtifactTotalPut(buyer, id, st.buyerTotals[id]); err != nil {
			return err
		}
	}
	for id, top := range st.topBuyers {
		if err := e.state.TopBuyerPut(id, top); err != nil {
			return err
		}
	}
	for seasonID, qty := range st.seasonTotals {
		if err := e.state.BuyerSeasonTotalPut(buyer, seasonID, qty); err != nil {
			return err
		}
	}
	if protocolShare.Sign() > 0 {
		accrued, err := e.state.ProtocolAccruedGet()
		if err != nil {
			return err
		}
		accrued = new(big.Int).Add(accrued, protocolShare)
		if err := e.state.ProtocolAccruedPut(accrued); err != nil {
			return err
		}
	}
	for _, evt := range st.evts {
		e.emit(evt)
	}

	// Outward value movement happens strictly after all bookkeeping above so
	// a reentrant transfer hook cannot observe partially-updated state.
	if treasuryShare.Sign() > 0 {
		if err := e.debitAccount(e.pot, treasuryShare); err != nil {
			return err
		}
		if err := e.creditAccount(cfg.TreasuryWallet, treasuryShare); err != nil {
			return err
		}
	}
	return nil
}

// trackTopBuyer promotes buyer to the artifact's top spot when their new
// cumulative total strictly exceeds the incumbent's. Ties keep the incumbent.
func (st *saleStaging) trackTopBuyer(e *Engine, buyer [20]byte, id uint64, bought uint64) error {
	incumbent, ok, err := st.topBuyer(e, id)
	if err != nil {
		return err
	}
	if !ok {
		st.topBuyers[id] = buyer
		return nil
	}
	if incumbent == buyer {
		st.topBuyers[id] = buyer
		return nil
	}
	leading, err := e.state.BuyerArtifactTotalGet(incumbent, id)
	if err != nil {
		return err
	}
	if bought > leading {
		st.topBuyers[id] = buyer
	}
	return nil
}

// TopBuyerPerArtifact returns the buyer with the largest cumulative purchase
// quantity for the artifact. The second return is false when nobody has
// bought the artifact yet.
func (e *Engine) TopBuyerPerArtifact(artifactID uint64) ([20]byte, bool, error) {
	if e == nil || e.state == nil {
		return [20]byte{}, false, errNilState
	}
	return e.state.TopBuyerGet(artifactID)
}

// TotalTokenSales reports the cumulative units sold for the artifact while
// active. Blacklisting resets this to zero.
func (e *Engine) TotalTokenSales(artifactID uint64) (uint64, error) {
	sub, err := e.Submission(artifactID)
	if err != nil {
		return 0, err
	}
	return sub.TotalSold, nil
}

// TokensPurchasedInSeason reports buyer's cumulative units across all
// artifacts of the season.
func (e *Engine) TokensPurchasedInSeason(buyer [20]byte, seasonID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	if _, err := e.Season(seasonID); err != nil {
		return 0, err
	}
	return e.state.BuyerSeasonTotalGet(buyer, seasonID)
}

// TokensPurchasedPerArtifact reports buyer's cumulative units of one artifact.
func (e *Engine) TokensPurchasedPerArtifact(buyer [20]byte, artifactID uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.BuyerArtifactTotalGet(buyer, artifactID)
}

// ProtocolAccrued reports the withdrawable native-value balance owed to the
// protocol wallet.
func (e *Engine) ProtocolAccrued() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.ProtocolAccruedGet()
}
