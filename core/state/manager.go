package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"artifactledger/core/types"
	"artifactledger/native/seasons"
	"artifactledger/storage"
)

// Manager persists the registry state in a key-value database. Records are
// RLP encoded under keccak-hashed prefixed keys so the layout stays stable
// regardless of backend. It implements the seasons engine's state interface.
type Manager struct {
	db storage.Database
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func hashedKey(prefix []byte, suffix []byte) []byte {
	buf := make([]byte, 0, len(prefix)+len(suffix))
	buf = append(buf, prefix...)
	buf = append(buf, suffix...)
	return ethcrypto.Keccak256(buf)
}

func uint64Suffix(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func pairSuffix(addr [20]byte, id uint64) []byte {
	buf := make([]byte, 0, 28)
	buf = append(buf, addr[:]...)
	buf = append(buf, uint64Suffix(id)...)
	return buf
}

func (m *Manager) readCounter(key []byte) (uint64, error) {
	raw, err := m.db.Get(ethcrypto.Keccak256(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("state: malformed counter value")
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (m *Manager) writeCounter(key []byte, v uint64) error {
	return m.db.Put(ethcrypto.Keccak256(key), uint64Suffix(v))
}

func (m *Manager) readUint(prefix, suffix []byte) (uint64, error) {
	raw, err := m.db.Get(hashedKey(prefix, suffix))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("state: malformed quantity value")
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (m *Manager) writeUint(prefix, suffix []byte, v uint64) error {
	return m.db.Put(hashedKey(prefix, suffix), uint64Suffix(v))
}

// SeasonCounterGet returns the number of seasons created so far.
func (m *Manager) SeasonCounterGet() (uint64, error) {
	return m.readCounter(seasonCounterKeyBytes)
}

func (m *Manager) SeasonCounterPut(v uint64) error {
	return m.writeCounter(seasonCounterKeyBytes, v)
}

// ArtifactCounterGet returns the number of artifacts created so far.
func (m *Manager) ArtifactCounterGet() (uint64, error) {
	return m.readCounter(artifactCounterKeyBytes)
}

func (m *Manager) ArtifactCounterPut(v uint64) error {
	return m.writeCounter(artifactCounterKeyBytes, v)
}

// storedSeason is the storage shape of a season. RLP has no signed integers,
// so timestamps travel as two's-complement uint64; the TopComputed flag
// distinguishes a never-computed winner set from an empty one.
type storedSeason struct {
	ID               uint64
	SubmissionIDs    []uint64
	StartTime        uint64
	EndTime          uint64
	Closed           bool
	TopComputed      bool
	TopSubmissionIDs []uint64
}

func newStoredSeason(s *seasons.Season) *storedSeason {
	stored := &storedSeason{
		ID:            s.ID,
		SubmissionIDs: append([]uint64{}, s.SubmissionIDs...),
		StartTime:     uint64(s.StartTime),
		EndTime:       uint64(s.EndTime),
		Closed:        s.Closed,
	}
	if s.TopSubmissionIDs != nil {
		stored.TopComputed = true
		stored.TopSubmissionIDs = append([]uint64{}, s.TopSubmissionIDs...)
	}
	return stored
}

func (s *storedSeason) toSeason() *seasons.Season {
	out := &seasons.Season{
		ID:            s.ID,
		SubmissionIDs: append([]uint64{}, s.SubmissionIDs...),
		StartTime:     int64(s.StartTime),
		EndTime:       int64(s.EndTime),
		Closed:        s.Closed,
	}
	if s.TopComputed {
		out.TopSubmissionIDs = append([]uint64{}, s.TopSubmissionIDs...)
	}
	return out
}

func (m *Manager) SeasonGet(id uint64) (*seasons.Season, bool, error) {
	raw, err := m.db.Get(hashedKey(seasonRecordPrefix, uint64Suffix(id)))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedSeason
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode season %d: %w", id, err)
	}
	return stored.toSeason(), true, nil
}

func (m *Manager) SeasonPut(season *seasons.Season) error {
	if season == nil {
		return fmt.Errorf("state: nil season")
	}
	raw, err := rlp.EncodeToBytes(newStoredSeason(season))
	if err != nil {
		return err
	}
	return m.db.Put(hashedKey(seasonRecordPrefix, uint64Suffix(season.ID)), raw)
}

type storedSubmission struct {
	ID                  uint64
	SeasonID            uint64
	URI                 string
	Artist              [20]byte
	TotalSold           uint64
	ClaimableBalance    uint64
	Blacklisted         bool
	SoldBeforeBlacklist uint64
}

func (m *Manager) SubmissionGet(id uint64) (*seasons.Submission, bool, error) {
	raw, err := m.db.Get(hashedKey(submissionRecordPrefix, uint64Suffix(id)))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedSubmission
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode submission %d: %w", id, err)
	}
	return &seasons.Submission{
		ID:                  stored.ID,
		SeasonID:            stored.SeasonID,
		URI:                 stored.URI,
		Artist:              stored.Artist,
		TotalSold:           stored.TotalSold,
		ClaimableBalance:    stored.ClaimableBalance,
		Blacklisted:         stored.Blacklisted,
		SoldBeforeBlacklist: stored.SoldBeforeBlacklist,
	}, true, nil
}

func (m *Manager) SubmissionPut(sub *seasons.Submission) error {
	if sub == nil {
		return fmt.Errorf("state: nil submission")
	}
	raw, err := rlp.EncodeToBytes(&storedSubmission{
		ID:                  sub.ID,
		SeasonID:            sub.SeasonID,
		URI:                 sub.URI,
		Artist:              sub.Artist,
		TotalSold:           sub.TotalSold,
		ClaimableBalance:    sub.ClaimableBalance,
		Blacklisted:         sub.Blacklisted,
		SoldBeforeBlacklist: sub.SoldBeforeBlacklist,
	})
	if err != nil {
		return err
	}
	return m.db.Put(hashedKey(submissionRecordPrefix, uint64Suffix(sub.ID)), raw)
}

func (m *Manager) BalanceGet(account [20]byte, artifactID uint64) (uint64, error) {
	return m.readUint(balancePrefix, pairSuffix(account, artifactID))
}

func (m *Manager) BalancePut(account [20]byte, artifactID uint64, qty uint64) error {
	return m.writeUint(balancePrefix, pairSuffix(account, artifactID), qty)
}

func (m *Manager) BuyerArtifactTotalGet(buyer [20]byte, artifactID uint64) (uint64, error) {
	return m.readUint(buyerArtifactPrefix, pairSuffix(buyer, artifactID))
}

func (m *Manager) BuyerArtifactTotalPut(buyer [20]byte, artifactID uint64, qty uint64) error {
	return m.writeUint(buyerArtifactPrefix, pairSuffix(buyer, artifactID), qty)
}

func (m *Manager) BuyerSeasonTotalGet(buyer [20]byte, seasonID uint64) (uint64, error) {
	return m.readUint(buyerSeasonPrefix, pairSuffix(buyer, seasonID))
}

func (m *Manager) BuyerSeasonTotalPut(buyer [20]byte, seasonID uint64, qty uint64) error {
	return m.writeUint(buyerSeasonPrefix, pairSuffix(buyer, seasonID), qty)
}

func (m *Manager) TopBuyerGet(artifactID uint64) ([20]byte, bool, error) {
	var top [20]byte
	raw, err := m.db.Get(hashedKey(topBuyerPrefix, uint64Suffix(artifactID)))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return top, false, nil
	}
	if err != nil {
		return top, false, err
	}
	if len(raw) != len(top) {
		return top, false, fmt.Errorf("state: malformed top buyer record")
	}
	copy(top[:], raw)
	return top, true, nil
}

func (m *Manager) TopBuyerPut(artifactID uint64, buyer [20]byte) error {
	return m.db.Put(hashedKey(topBuyerPrefix, uint64Suffix(artifactID)), buyer[:])
}

type storedConfig struct {
	UnitPrice            *big.Int
	ProtocolWallet       [20]byte
	TreasuryWallet       [20]byte
	ProtocolFeePercent   uint32
	TreasurySplitPercent uint32
	Shutdown             bool
}

func (m *Manager) ConfigGet() (*seasons.GlobalConfig, bool, error) {
	raw, err := m.db.Get(ethcrypto.Keccak256(configKeyBytes))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedConfig
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false, fmt.Errorf("state: decode config: %w", err)
	}
	cfg := &seasons.GlobalConfig{
		UnitPrice:            big.NewInt(0),
		ProtocolWallet:       stored.ProtocolWallet,
		TreasuryWallet:       stored.TreasuryWallet,
		ProtocolFeePercent:   stored.ProtocolFeePercent,
		TreasurySplitPercent: stored.TreasurySplitPercent,
		Shutdown:             stored.Shutdown,
	}
	if stored.UnitPrice != nil {
		cfg.UnitPrice = new(big.Int).Set(stored.UnitPrice)
	}
	return cfg, true, nil
}

func (m *Manager) ConfigPut(cfg *seasons.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("state: nil config")
	}
	price := big.NewInt(0)
	if cfg.UnitPrice != nil {
		price = new(big.Int).Set(cfg.UnitPrice)
	}
	raw, err := rlp.EncodeToBytes(&storedConfig{
		UnitPrice:            price,
		ProtocolWallet:       cfg.ProtocolWallet,
		TreasuryWallet:       cfg.TreasuryWallet,
		ProtocolFeePercent:   cfg.ProtocolFeePercent,
		TreasurySplitPercent: cfg.TreasurySplitPercent,
		Shutdown:             cfg.Shutdown,
	})
	if err != nil {
		return err
	}
	return m.db.Put(ethcrypto.Keccak256(configKeyBytes), raw)
}

func (m *Manager) ProtocolAccruedGet() (*big.Int, error) {
	raw, err := m.db.Get(ethcrypto.Keccak256(protocolAccruedKeyBytes))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (m *Manager) ProtocolAccruedPut(v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return fmt.Errorf("state: invalid accrued value")
	}
	return m.db.Put(ethcrypto.Keccak256(protocolAccruedKeyBytes), v.Bytes())
}

type storedAccount struct {
	Balance *big.Int
}

// GetAccount loads the account stored under addr, returning a fresh zero
// account when none exists yet.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	raw, err := m.db.Get(hashedKey(accountPrefix, addr))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return types.NewAccount(), nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	acc := types.NewAccount()
	if stored.Balance != nil {
		acc.Balance = new(big.Int).Set(stored.Balance)
	}
	return acc, nil
}

func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	balance := big.NewInt(0)
	if account.Balance != nil {
		balance = new(big.Int).Set(account.Balance)
	}
	raw, err := rlp.EncodeToBytes(&storedAccount{Balance: balance})
	if err != nil {
		return err
	}
	return m.db.Put(hashedKey(accountPrefix, addr), raw)
}
