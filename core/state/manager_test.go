package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"artifactledger/core/types"
	"artifactledger/native/seasons"
	"artifactledger/storage"
)

func addr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestCountersDefaultAndRoundTrip(t *testing.T) {
	m := newTestManager(t)

	v, err := m.SeasonCounterGet()
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	require.NoError(t, m.SeasonCounterPut(7))
	v, err = m.SeasonCounterGet()
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	v, err = m.ArtifactCounterGet()
	require.NoError(t, err)
	require.Equal(t, uint64(0), v)

	require.NoError(t, m.ArtifactCounterPut(3))
	v, err = m.ArtifactCounterGet()
	require.NoError(t, err)
	require.Equal(t, uint64(3), v)
}

func TestSeasonRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.SeasonGet(1)
	require.NoError(t, err)
	require.False(t, ok)

	season := &seasons.Season{
		ID:            1,
		SubmissionIDs: []uint64{124, 125},
		StartTime:     1_700_000_000,
		EndTime:       1_702_629_800,
		Closed:        true,
	}
	require.NoError(t, m.SeasonPut(season))

	got, ok, err := m.SeasonGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, season.ID, got.ID)
	require.Equal(t, season.SubmissionIDs, got.SubmissionIDs)
	require.Equal(t, season.StartTime, got.StartTime)
	require.Equal(t, season.EndTime, got.EndTime)
	require.True(t, got.Closed)
	require.Nil(t, got.TopSubmissionIDs)
}

func TestSeasonNegativeTimestampsRoundTrip(t *testing.T) {
	m := newTestManager(t)

	// Pre-epoch timestamps are valid season bounds and must survive the
	// unsigned storage encoding.
	require.NoError(t, m.SeasonPut(&seasons.Season{
		ID:        1,
		StartTime: -5,
		EndTime:   10,
	}))

	got, ok, err := m.SeasonGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(-5), got.StartTime)
	require.Equal(t, int64(10), got.EndTime)
}

func TestSeasonWinnersNilVersusEmpty(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.SeasonPut(&seasons.Season{ID: 1, StartTime: 1, EndTime: 2}))
	got, ok, err := m.SeasonGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Nil(t, got.TopSubmissionIDs)

	require.NoError(t, m.SeasonPut(&seasons.Season{
		ID:               2,
		StartTime:        1,
		EndTime:          2,
		TopSubmissionIDs: []uint64{},
	}))
	got, ok, err = m.SeasonGet(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, got.TopSubmissionIDs)
	require.Empty(t, got.TopSubmissionIDs)

	require.NoError(t, m.SeasonPut(&seasons.Season{
		ID:               3,
		StartTime:        1,
		EndTime:          2,
		TopSubmissionIDs: []uint64{124, 126},
	}))
	got, ok, err = m.SeasonGet(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []uint64{124, 126}, got.TopSubmissionIDs)
}

func TestSubmissionRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.SubmissionGet(124)
	require.NoError(t, err)
	require.False(t, ok)

	sub := &seasons.Submission{
		ID:                  124,
		SeasonID:            1,
		URI:                 "ipfs://artifact/124",
		Artist:              addr(2),
		TotalSold:           0,
		ClaimableBalance:    4,
		Blacklisted:         true,
		SoldBeforeBlacklist: 9,
	}
	require.NoError(t, m.SubmissionPut(sub))

	got, ok, err := m.SubmissionGet(124)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, sub, got)
}

func TestQuantityRecords(t *testing.T) {
	m := newTestManager(t)
	buyer := addr(3)

	qty, err := m.BalanceGet(buyer, 124)
	require.NoError(t, err)
	require.Equal(t, uint64(0), qty)

	require.NoError(t, m.BalancePut(buyer, 124, 5))
	qty, err = m.BalanceGet(buyer, 124)
	require.NoError(t, err)
	require.Equal(t, uint64(5), qty)

	qty, err = m.BalanceGet(buyer, 125)
	require.NoError(t, err)
	require.Equal(t, uint64(0), qty)

	require.NoError(t, m.BuyerArtifactTotalPut(buyer, 124, 8))
	qty, err = m.BuyerArtifactTotalGet(buyer, 124)
	require.NoError(t, err)
	require.Equal(t, uint64(8), qty)

	require.NoError(t, m.BuyerSeasonTotalPut(buyer, 1, 11))
	qty, err = m.BuyerSeasonTotalGet(buyer, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(11), qty)

	// Balance and running totals live under distinct prefixes.
	qty, err = m.BuyerArtifactTotalGet(buyer, 125)
	require.NoError(t, err)
	require.Equal(t, uint64(0), qty)
}

func TestTopBuyerRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.TopBuyerGet(124)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.TopBuyerPut(124, addr(3)))
	top, ok, err := m.TopBuyerGet(124)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, addr(3), top)

	require.NoError(t, m.TopBuyerPut(124, addr(4)))
	top, ok, err = m.TopBuyerGet(124)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, addr(4), top)
}

func TestConfigRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.ConfigGet()
	require.NoError(t, err)
	require.False(t, ok)

	cfg := &seasons.GlobalConfig{
		UnitPrice:            big.NewInt(100),
		ProtocolWallet:       addr(9),
		TreasuryWallet:       addr(8),
		ProtocolFeePercent:   15,
		TreasurySplitPercent: 10,
		Shutdown:             true,
	}
	require.NoError(t, m.ConfigPut(cfg))

	got, ok, err := m.ConfigGet()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, cfg, got)

	// Decoded config must not alias the caller's big.Int.
	cfg.UnitPrice.SetInt64(999)
	got2, _, err := m.ConfigGet()
	require.NoError(t, err)
	require.Equal(t, int64(100), got2.UnitPrice.Int64())
}

func TestProtocolAccrued(t *testing.T) {
	m := newTestManager(t)

	v, err := m.ProtocolAccruedGet()
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Int64())

	require.NoError(t, m.ProtocolAccruedPut(big.NewInt(30)))
	v, err = m.ProtocolAccruedGet()
	require.NoError(t, err)
	require.Equal(t, int64(30), v.Int64())

	require.NoError(t, m.ProtocolAccruedPut(big.NewInt(0)))
	v, err = m.ProtocolAccruedGet()
	require.NoError(t, err)
	require.Equal(t, int64(0), v.Int64())

	require.Error(t, m.ProtocolAccruedPut(nil))
	require.Error(t, m.ProtocolAccruedPut(big.NewInt(-1)))
}

func TestAccountRoundTrip(t *testing.T) {
	m := newTestManager(t)
	owner := addr(1)

	acc, err := m.GetAccount(owner[:])
	require.NoError(t, err)
	require.Equal(t, int64(0), acc.Balance.Int64())

	acc.Balance = big.NewInt(1_000_000)
	require.NoError(t, m.PutAccount(owner[:], acc))

	got, err := m.GetAccount(owner[:])
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), got.Balance.Int64())

	// Accounts with nil balances are persisted as zero.
	require.NoError(t, m.PutAccount(owner[:], &types.Account{}))
	got, err = m.GetAccount(owner[:])
	require.NoError(t, err)
	require.Equal(t, int64(0), got.Balance.Int64())
}

func TestManagerDrivesEngine(t *testing.T) {
	db := storage.NewMemDB()
	m := NewManager(db)

	engine := seasons.NewEngine()
	engine.SetState(m)
	owner := addr(1)
	engine.SetOwner(owner)
	engine.SetPotAddress(addr(10))

	require.NoError(t, m.ConfigPut(&seasons.GlobalConfig{
		UnitPrice:      big.NewInt(100),
		ProtocolWallet: addr(9),
		TreasuryWallet: addr(8),
	}))

	created, err := engine.CreateSeason(owner, 1_700_000_000, 1_702_629_800)
	require.NoError(t, err)
	require.Equal(t, uint64(1), created.ID)

	// Reopen the state over the same database and confirm the record
	// survives the manager instance.
	m2 := NewManager(db)
	season, ok, err := m2.SeasonGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1_700_000_000), season.StartTime)
}
