package core

import (
	"math/big"
	"sync"

	"artifactledger/core/events"
	"artifactledger/core/state"
	"artifactledger/core/types"
	"artifactledger/native/seasons"
	"artifactledger/storage"
)

// Node is the central controller. It owns the database, the persistent
// state manager and the seasons engine, serialises all mutating calls
// behind a single mutex and fans emitted events out to subscribers.
type Node struct {
	db     storage.Database
	state  *state.Manager
	engine *seasons.Engine
	owner  [20]byte

	stateMu sync.Mutex

	eventMu     sync.Mutex
	eventLog    []types.Event
	subscribers map[uint64]chan types.Event
	nextSubID   uint64
}

// NewNode wires the engine over db. owner is the only address allowed to
// call administrative operations; pot is the internal account holding sale
// proceeds until fees are withdrawn.
func NewNode(db storage.Database, owner, pot [20]byte) *Node {
	manager := state.NewManager(db)
	engine := seasons.NewEngine()
	engine.SetState(manager)
	engine.SetOwner(owner)
	engine.SetPotAddress(pot)

	n := &Node{
		db:          db,
		state:       manager,
		engine:      engine,
		owner:       owner,
		subscribers: make(map[uint64]chan types.Event),
	}
	engine.SetEmitter(n)
	return n
}

// Owner returns the administrative address the node was started with.
func (n *Node) Owner() [20]byte { return n.owner }

// ApplyGenesis seeds the registry configuration and the initial account
// balances. It is a no-op when the database already carries a config, so
// restarts never clobber values changed at runtime.
func (n *Node) ApplyGenesis(cfg *seasons.GlobalConfig, allocations map[[20]byte]*big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()

	_, exists, err := n.state.ConfigGet()
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	normalized := cfg.Clone().Normalize()
	if err := normalized.Validate(); err != nil {
		return err
	}
	if err := n.state.ConfigPut(normalized); err != nil {
		return err
	}
	for addr, balance := range allocations {
		if balance == nil || balance.Sign() <= 0 {
			continue
		}
		account, err := n.state.GetAccount(addr[:])
		if err != nil {
			return err
		}
		account.Balance = new(big.Int).Set(balance)
		if err := n.state.PutAccount(addr[:], account); err != nil {
			return err
		}
	}
	return nil
}

// Emit implements events.Emitter. Events are appended to the in-memory log
// and pushed to live subscribers; a slow subscriber loses events rather
// than blocking the engine.
func (n *Node) Emit(evt events.Event) {
	carrier, ok := evt.(interface{ Event() *types.Event })
	if !ok {
		return
	}
	payload := carrier.Event()
	if payload == nil {
		return
	}
	n.eventMu.Lock()
	defer n.eventMu.Unlock()
	n.eventLog = append(n.eventLog, *payload)
	for _, ch := range n.subscribers {
		select {
		case ch <- *payload:
		default:
		}
	}
}

// SubscribeEvents registers a subscriber channel and reports how many events
// the log already held at registration time, so callers can replay the
// backlog without missing or duplicating events across the seam. The
// returned cancel function must be called to release the subscription.
func (n *Node) SubscribeEvents(buffer int) (<-chan types.Event, int, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan types.Event, buffer)
	n.eventMu.Lock()
	id := n.nextSubID
	n.nextSubID++
	n.subscribers[id] = ch
	seen := len(n.eventLog)
	n.eventMu.Unlock()
	cancel := func() {
		n.eventMu.Lock()
		if _, ok := n.subscribers[id]; ok {
			delete(n.subscribers, id)
			close(ch)
		}
		n.eventMu.Unlock()
	}
	return ch, seen, cancel
}

// Events returns the emitted events starting at offset.
func (n *Node) Events(offset int) []types.Event {
	n.eventMu.Lock()
	defer n.eventMu.Unlock()
	if offset < 0 {
		offset = 0
	}
	if offset >= len(n.eventLog) {
		return []types.Event{}
	}
	out := make([]types.Event, len(n.eventLog)-offset)
	copy(out, n.eventLog[offset:])
	return out
}

func (n *Node) CreateSeason(caller [20]byte, startTime, endTime int64) (*seasons.Season, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.CreateSeason(caller, startTime, endTime)
}

func (n *Node) CreateSubmission(caller [20]byte, seasonID uint64, uri string, artist [20]byte) (*seasons.Submission, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.CreateSubmission(caller, seasonID, uri, artist)
}

func (n *Node) CloseSeason(caller [20]byte, seasonID uint64) (*seasons.Season, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.CloseSeason(caller, seasonID)
}

func (n *Node) MintArtifact(buyer [20]byte, artifactIDs, amounts []uint64, paid *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.MintArtifact(buyer, artifactIDs, amounts, paid)
}

func (n *Node) ArtistClaim(claimant [20]byte, artifactIDs, amounts []uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.ArtistClaim(claimant, artifactIDs, amounts)
}

func (n *Node) BlacklistSubmissionFromSeason(caller [20]byte, seasonID, artifactID uint64) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.BlacklistSubmissionFromSeason(caller, seasonID, artifactID)
}

func (n *Node) CalculateTopSubmissionsOfSeason(caller [20]byte, seasonID uint64) ([]uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.CalculateTopSubmissionsOfSeason(caller, seasonID)
}

func (n *Node) WithdrawProtocolFees(caller [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.WithdrawProtocolFees(caller)
}

func (n *Node) SetUnitPrice(caller [20]byte, price *big.Int) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.SetUnitPrice(caller, price)
}

func (n *Node) SetProtocolWallet(caller, wallet [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.SetProtocolWallet(caller, wallet)
}

func (n *Node) SetTreasuryWallet(caller, wallet [20]byte) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.SetTreasuryWallet(caller, wallet)
}

func (n *Node) SetProtocolFeePercent(caller [20]byte, percent uint32) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.SetProtocolFeePercent(caller, percent)
}

func (n *Node) SetTreasurySplitPercent(caller [20]byte, percent uint32) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.SetTreasurySplitPercent(caller, percent)
}

func (n *Node) SetShutdown(caller [20]byte, down bool) error {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.SetShutdown(caller, down)
}

func (n *Node) Season(id uint64) (*seasons.Season, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.Season(id)
}

func (n *Node) Submission(id uint64) (*seasons.Submission, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.Submission(id)
}

func (n *Node) LatestTokenID(seasonID uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.LatestTokenID(seasonID)
}

func (n *Node) TokenURI(artifactID uint64) (string, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.TokenURI(artifactID)
}

func (n *Node) BalanceOf(account [20]byte, artifactID uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.BalanceOf(account, artifactID)
}

func (n *Node) AccountBalance(addr [20]byte) (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	account, err := n.state.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return account.Balance, nil
}

func (n *Node) IsBlacklisted(seasonID, artifactID uint64) (bool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.IsBlacklisted(seasonID, artifactID)
}

func (n *Node) AmountSoldBeforeBlacklist(seasonID, artifactID uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.AmountSoldBeforeBlacklist(seasonID, artifactID)
}

func (n *Node) TopSubmissionsOfSeason(seasonID uint64) ([]uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.TopSubmissionsOfSeason(seasonID)
}

func (n *Node) TopBuyerPerArtifact(artifactID uint64) ([20]byte, bool, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.TopBuyerPerArtifact(artifactID)
}

func (n *Node) TotalTokenSales(artifactID uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.TotalTokenSales(artifactID)
}

func (n *Node) TokensPurchasedInSeason(buyer [20]byte, seasonID uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.TokensPurchasedInSeason(buyer, seasonID)
}

func (n *Node) TokensPurchasedPerArtifact(buyer [20]byte, artifactID uint64) (uint64, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.TokensPurchasedPerArtifact(buyer, artifactID)
}

func (n *Node) ProtocolAccrued() (*big.Int, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.ProtocolAccrued()
}

func (n *Node) Config() (*seasons.GlobalConfig, error) {
	n.stateMu.Lock()
	defer n.stateMu.Unlock()
	return n.engine.Config()
}

// Close releases the underlying database.
func (n *Node) Close() {
	n.db.Close()
}
