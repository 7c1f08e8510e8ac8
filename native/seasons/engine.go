package seasons

import (
	"encoding/hex"
	"math/big"
	"time"

	"artifactledger/core/events"
	"artifactledger/core/types"
)

// engineState is the narrow persistence surface the engine depends on. All
// returned records are owned by the caller; implementations must deep-copy at
// the boundary.
type engineState interface {
	SeasonCounterGet() (uint64, error)
	SeasonCounterPut(v uint64) error
	SeasonGet(id uint64) (*Season, bool, error)
	SeasonPut(season *Season) error
	ArtifactCounterGet() (uint64, error)
	ArtifactCounterPut(v uint64) error
	SubmissionGet(id uint64) (*Submission, bool, error)
	SubmissionPut(sub *Submission) error
	BalanceGet(account [20]byte, artifactID uint64) (uint64, error)
	BalancePut(account [20]byte, artifactID uint64, qty uint64) error
	BuyerArtifactTotalGet(buyer [20]byte, artifactID uint64) (uint64, error)
	BuyerArtifactTotalPut(buyer [20]byte, artifactID uint64, qty uint64) error
	BuyerSeasonTotalGet(buyer [20]byte, seasonID uint64) (uint64, error)
	BuyerSeasonTotalPut(buyer [20]byte, seasonID uint64, qty uint64) error
	TopBuyerGet(artifactID uint64) ([20]byte, bool, error)
	TopBuyerPut(artifactID uint64, buyer [20]byte) error
	ConfigGet() (*GlobalConfig, bool, error)
	ConfigPut(cfg *GlobalConfig) error
	ProtocolAccruedGet() (*big.Int, error)
	ProtocolAccruedPut(v *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine wires the season/submission lifecycle, the sale and claim paths and
// the moderation rules with persistence and event emission. Callers are
// expected to serialize state-changing operations; the entered flag only
// guards against re-entry from within an outward value transfer.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
	owner   [20]byte
	pot     [20]byte
	entered bool
}

// NewEngine constructs a seasons engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetOwner configures the address allowed to call administrative operations.
func (e *Engine) SetOwner(addr [20]byte) { e.owner = addr }

// SetPotAddress configures the registry account that holds incoming payments
// until they are split out to the treasury and protocol wallets.
func (e *Engine) SetPotAddress(addr [20]byte) { e.pot = addr }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

// enter marks the engine as busy for the duration of a state-changing
// operation. Every mutation path must pair it with a deferred leave.
func (e *Engine) enter() error {
	if e.entered {
		return ErrReentrantCall
	}
	e.entered = true
	return nil
}

func (e *Engine) leave() { e.entered = false }

func (e *Engine) requireOwner(caller [20]byte) error {
	if caller != e.owner {
		return ErrUnauthorized
	}
	return nil
}

// config loads the stored global configuration, falling back to zero values
// when the owner has not set anything yet.
func (e *Engine) config() (*GlobalConfig, error) {
	cfg, ok, err := e.state.ConfigGet()
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		cfg = &GlobalConfig{}
	}
	return cfg.Normalize(), nil
}

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return types.NewAccount()
	}
	if acc.Balance == nil {
		acc.Balance = big.NewInt(0)
	}
	return acc
}

// creditAccount adds amount to the account held under addr.
func (e *Engine) creditAccount(addr [20]byte, amount *big.Int) error {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	return e.state.PutAccount(addr[:], acc)
}

// debitAccount removes amount from the account held under addr, failing with
// ErrInsufficientFunds when the balance cannot cover it.
func (e *Engine) debitAccount(addr [20]byte, amount *big.Int) error {
	acc, err := e.state.GetAccount(addr[:])
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	if acc.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	return e.state.PutAccount(addr[:], acc)
}
