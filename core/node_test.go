package core

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"artifactledger/native/seasons"
	"artifactledger/storage"
)

func testAddr(b byte) [20]byte {
	var a [20]byte
	a[19] = b
	return a
}

func newTestNode(t *testing.T) *Node {
	t.Helper()
	node := NewNode(storage.NewMemDB(), testAddr(1), testAddr(10))
	require.NoError(t, node.ApplyGenesis(&seasons.GlobalConfig{
		UnitPrice:            big.NewInt(100),
		ProtocolWallet:       testAddr(9),
		TreasuryWallet:       testAddr(8),
		ProtocolFeePercent:   15,
		TreasurySplitPercent: 10,
	}, map[[20]byte]*big.Int{
		testAddr(3): big.NewInt(1_000_000),
	}))
	return node
}

func seasonWindow() (int64, int64) {
	now := time.Now().Unix()
	return now - 60, now + 3600
}

func TestApplyGenesisSeedsStateOnce(t *testing.T) {
	node := newTestNode(t)

	balance, err := node.AccountBalance(testAddr(3))
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), balance.Int64())

	cfg, err := node.Config()
	require.NoError(t, err)
	require.Equal(t, int64(100), cfg.UnitPrice.Int64())

	// A second application must not clobber runtime changes.
	require.NoError(t, node.SetUnitPrice(testAddr(1), big.NewInt(250)))
	require.NoError(t, node.ApplyGenesis(&seasons.GlobalConfig{
		UnitPrice: big.NewInt(1),
	}, map[[20]byte]*big.Int{
		testAddr(3): big.NewInt(5),
	}))

	cfg, err = node.Config()
	require.NoError(t, err)
	require.Equal(t, int64(250), cfg.UnitPrice.Int64())
	balance, err = node.AccountBalance(testAddr(3))
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), balance.Int64())
}

func TestNodeSaleFlow(t *testing.T) {
	node := newTestNode(t)
	start, end := seasonWindow()

	season, err := node.CreateSeason(testAddr(1), start, end)
	require.NoError(t, err)
	_, err = node.CreateSubmission(testAddr(1), season.ID, "ipfs://artifact", testAddr(2))
	require.NoError(t, err)

	require.NoError(t, node.MintArtifact(testAddr(3), []uint64{124}, []uint64{2}, big.NewInt(200)))

	balance, err := node.BalanceOf(testAddr(3), 124)
	require.NoError(t, err)
	require.Equal(t, uint64(2), balance)

	funds, err := node.AccountBalance(testAddr(3))
	require.NoError(t, err)
	require.Equal(t, int64(999_800), funds.Int64())

	accrued, err := node.ProtocolAccrued()
	require.NoError(t, err)
	require.Equal(t, int64(30), accrued.Int64())

	treasury, err := node.AccountBalance(testAddr(8))
	require.NoError(t, err)
	require.Equal(t, int64(20), treasury.Int64())
}

func TestNodeEventLogAndOffsets(t *testing.T) {
	node := newTestNode(t)
	start, end := seasonWindow()

	_, err := node.CreateSeason(testAddr(1), start, end)
	require.NoError(t, err)
	_, err = node.CreateSubmission(testAddr(1), 1, "ipfs://artifact", testAddr(2))
	require.NoError(t, err)

	all := node.Events(0)
	require.Len(t, all, 2)
	require.Equal(t, "seasons.season.created", all[0].Type)
	require.Equal(t, "seasons.submission.created", all[1].Type)

	tail := node.Events(1)
	require.Len(t, tail, 1)
	require.Equal(t, "seasons.submission.created", tail[0].Type)

	require.Empty(t, node.Events(5))
}

func TestNodeEventSubscription(t *testing.T) {
	node := newTestNode(t)
	start, end := seasonWindow()

	ch, seen, cancel := node.SubscribeEvents(8)
	defer cancel()
	require.Equal(t, 0, seen)

	_, err := node.CreateSeason(testAddr(1), start, end)
	require.NoError(t, err)

	select {
	case evt := <-ch:
		require.Equal(t, "seasons.season.created", evt.Type)
	case <-time.After(time.Second):
		t.Fatal("expected event on subscription channel")
	}

	cancel()
	_, open := <-ch
	require.False(t, open)

	// Cancelling twice must not panic.
	cancel()
}

func TestSubscribeEventsReportsLogLength(t *testing.T) {
	node := newTestNode(t)
	start, end := seasonWindow()

	_, err := node.CreateSeason(testAddr(1), start, end)
	require.NoError(t, err)
	_, err = node.CreateSubmission(testAddr(1), 1, "ipfs://artifact", testAddr(2))
	require.NoError(t, err)

	ch, seen, cancel := node.SubscribeEvents(8)
	defer cancel()
	// The reported length covers exactly the backlog; every later event
	// must arrive on the channel.
	require.Equal(t, 2, seen)
	require.Len(t, node.Events(0), seen)

	_, err = node.CreateSubmission(testAddr(1), 1, "ipfs://artifact2", testAddr(2))
	require.NoError(t, err)

	select {
	case evt := <-ch:
		require.Equal(t, "seasons.submission.created", evt.Type)
	case <-time.After(time.Second):
		t.Fatal("expected live event on subscription channel")
	}
}

func TestNodePersistsAcrossRestart(t *testing.T) {
	db := storage.NewMemDB()
	node := NewNode(db, testAddr(1), testAddr(10))
	require.NoError(t, node.ApplyGenesis(&seasons.GlobalConfig{
		UnitPrice:      big.NewInt(100),
		ProtocolWallet: testAddr(9),
		TreasuryWallet: testAddr(8),
	}, map[[20]byte]*big.Int{
		testAddr(3): big.NewInt(1_000),
	}))
	start, end := seasonWindow()
	_, err := node.CreateSeason(testAddr(1), start, end)
	require.NoError(t, err)

	reopened := NewNode(db, testAddr(1), testAddr(10))
	season, err := reopened.Season(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), season.ID)
	require.False(t, season.Closed)

	balance, err := reopened.AccountBalance(testAddr(3))
	require.NoError(t, err)
	require.Equal(t, int64(1_000), balance.Int64())
}
