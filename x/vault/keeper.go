package vault

import (
	"fmt"
	"math/big"

	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
	"github.com/iov-one/harvest/errors"
	"github.com/iov-one/harvest/gconf"
	"github.com/iov-one/harvest/migration"
	"github.com/iov-one/harvest/orm"
	"github.com/iov-one/harvest/x/cash"
	"github.com/iov-one/harvest/x/roles"
	"github.com/iov-one/harvest/x/utils"
)

const packageName = "vault"

var vaultSeq = orm.NewSequence("vault", "id")

// NewVaultBucket returns the bucket storing Vault models keyed by sequence.
func NewVaultBucket() orm.ModelBucket {
	b := orm.NewModelBucket("vault", &Vault{}, orm.WithIDSequence(vaultSeq))
	return migration.NewModelBucket(packageName, b)
}

// NewHoldingBucket returns the bucket storing Holding models keyed by vault
// and holder.
func NewHoldingBucket() orm.ModelBucket {
	b := orm.NewModelBucket("holding", &Holding{})
	return migration.NewModelBucket(packageName, b)
}

// CustodyCondition returns the condition controlling the liquid balance of
// a vault.
func CustodyCondition(vaultID []byte) harvest.Condition {
	return harvest.NewCondition("vault", "custody", vaultID)
}

// Keeper owns every vault of the application.
type Keeper struct {
	vaults      orm.ModelBucket
	holdings    orm.ModelBucket
	cash        cash.Controller
	oracle      roles.Oracle
	adapters    map[string]Adapter
	distributor Distributor
	guard       *harvest.Guard
}

// NewKeeper returns a keeper without adapters and without a distributor.
// Guard may be shared with other components. A nil guard creates a new one.
func NewKeeper(ctrl cash.Controller, oracle roles.Oracle, guard *harvest.Guard) *Keeper {
	if guard == nil {
		guard = harvest.NewGuard()
	}
	return &Keeper{
		vaults:   NewVaultBucket(),
		holdings: NewHoldingBucket(),
		cash:     ctrl,
		oracle:   oracle,
		adapters: make(map[string]Adapter),
		guard:    guard,
	}
}

// RegisterAdapter makes an adapter available under given name. Registering
// the same name twice is a coding error.
func (k *Keeper) RegisterAdapter(name string, a Adapter) {
	if name == "" {
		panic("adapter name must not be empty")
	}
	if _, ok := k.adapters[name]; ok {
		panic(fmt.Sprintf("adapter %q already registered", name))
	}
	k.adapters[name] = a
}

// WithDistributor sets the receiver of harvested profit.
func (k *Keeper) WithDistributor(d Distributor) *Keeper {
	k.distributor = d
	return k
}

// Config returns the stored configuration or the default one.
func (k *Keeper) Config(db harvest.ReadOnlyKVStore) (Configuration, error) {
	var conf Configuration
	switch err := gconf.Load(db, packageName, &conf); {
	case err == nil:
		return conf, nil
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	default:
		return conf, errors.Wrap(err, "load configuration")
	}
}

// Vault returns the vault with given ID.
func (k *Keeper) Vault(db harvest.ReadOnlyKVStore, vaultID []byte) (*Vault, error) {
	var v Vault
	if err := k.vaults.One(db, vaultID, &v); err != nil {
		return nil, errors.Wrap(err, "vault")
	}
	return &v, nil
}

// CreateVault stores a new empty vault and returns its ID.
func (k *Keeper) CreateVault(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, tmpl Vault) ([]byte, error) {
	if !k.oracle.HasRole(db, roles.Governor, caller) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "governor role required")
	}
	return k.createVault(ctx, db, tmpl)
}

func (k *Keeper) createVault(ctx harvest.Context, db harvest.KVStore, tmpl Vault) ([]byte, error) {
	if tmpl.Adapter != "" {
		if _, err := k.adapter(tmpl.Adapter, tmpl.Ticker); err != nil {
			return nil, err
		}
	}
	id, err := vaultSeq.NextVal(db)
	if err != nil {
		return nil, errors.Wrap(err, "vault sequence")
	}
	zero := coin.NewCoin(0, 0, tmpl.Ticker)
	v := &Vault{
		Metadata:         &harvest.Metadata{Schema: 1},
		Ticker:           tmpl.Ticker,
		Custody:          CustodyCondition(id).Address(),
		TotalUnits:       "0",
		Buffer:           zero.Clone(),
		Principal:        zero.Clone(),
		BufferRatio:      tmpl.BufferRatio,
		SlippageRatio:    tmpl.SlippageRatio,
		MaxLossRatio:     tmpl.MaxLossRatio,
		Adapter:          tmpl.Adapter,
		CumulativeProfit: zero.Clone(),
		CumulativeLoss:   zero.Clone(),
	}
	if _, err := k.vaults.Put(db, id, v); err != nil {
		return nil, errors.Wrap(err, "store vault")
	}
	harvest.EmitEvent(ctx, harvest.NewEvent("vault/created",
		"vault", vaultLabel(id),
		"ticker", v.Ticker,
		"adapter", v.Adapter,
	))
	return id, nil
}

// update runs fn on the vault while holding the vault guard. All changes
// made by fn, including the vault itself, are written only if fn succeeds.
func (k *Keeper) update(ctx harvest.Context, db harvest.KVStore, vaultID []byte, fn func(harvest.Context, harvest.KVStore, *Vault) error) error {
	release, err := k.guard.Enter(guardKey(vaultID))
	if err != nil {
		return err
	}
	defer release()

	return utils.Atomic(ctx, db, func(ctx harvest.Context, db harvest.KVStore) error {
		v, err := k.Vault(db, vaultID)
		if err != nil {
			return err
		}
		if err := fn(ctx, db, v); err != nil {
			return err
		}
		if _, err := k.vaults.Put(db, vaultID, v); err != nil {
			return errors.Wrap(err, "store vault")
		}
		return nil
	})
}

func (k *Keeper) requireRole(db harvest.ReadOnlyKVStore, role roles.Role, caller harvest.Address) error {
	if !k.oracle.HasRole(db, role, caller) {
		return errors.Wrapf(errors.ErrUnauthorized, "%s role required", string(role))
	}
	return nil
}

// adapter returns the named adapter after checking it accepts the ticker.
func (k *Keeper) adapter(name, ticker string) (Adapter, error) {
	a, ok := k.adapters[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "adapter %q", name)
	}
	if a.Asset() != ticker {
		return nil, errors.Wrapf(errors.ErrCurrency, "adapter %q accepts %s", name, a.Asset())
	}
	return a, nil
}

// activeAdapter returns nil if the vault has no adapter.
func (k *Keeper) activeAdapter(v *Vault) (Adapter, error) {
	if v.Adapter == "" {
		return nil, nil
	}
	return k.adapter(v.Adapter, v.Ticker)
}

func guardKey(vaultID []byte) string {
	return fmt.Sprintf("vault/%x", vaultID)
}

func vaultLabel(vaultID []byte) string {
	if len(vaultID) == 8 {
		return fmt.Sprint(orm.DecodeSequence(vaultID))
	}
	return fmt.Sprintf("%X", vaultID)
}

// Units returns the units owned by holder. A missing holding is zero.
func (k *Keeper) Units(db harvest.ReadOnlyKVStore, vaultID []byte, holder harvest.Address) (*big.Int, error) {
	h, err := k.holding(db, vaultID, holder)
	if err != nil {
		return nil, err
	}
	return parseUnits(h.Units)
}

func (k *Keeper) holding(db harvest.ReadOnlyKVStore, vaultID []byte, holder harvest.Address) (*Holding, error) {
	var h Holding
	switch err := k.holdings.One(db, holdingKey(vaultID, holder), &h); {
	case err == nil:
		return &h, nil
	case errors.ErrNotFound.Is(err):
		return &Holding{
			Metadata: &harvest.Metadata{Schema: 1},
			VaultID:  vaultID,
			Holder:   holder,
			Units:    "0",
		}, nil
	default:
		return nil, errors.Wrap(err, "holding")
	}
}

// addUnits changes the holding of holder and the vault supply by delta.
func (k *Keeper) addUnits(db harvest.KVStore, v *Vault, vaultID []byte, holder harvest.Address, delta *big.Int) error {
	h, err := k.holding(db, vaultID, holder)
	if err != nil {
		return err
	}
	units, err := parseUnits(h.Units)
	if err != nil {
		return err
	}
	units.Add(units, delta)
	if units.Sign() < 0 {
		return errors.Wrap(ErrInsufficientUnits, "holding")
	}
	supply := v.Units()
	supply.Add(supply, delta)
	if supply.Sign() < 0 {
		return errors.Wrap(errors.ErrState, "negative unit supply")
	}
	v.TotalUnits = formatUnits(supply)

	key := holdingKey(vaultID, holder)
	if units.Sign() == 0 {
		if err := k.holdings.Has(db, key); err == nil {
			return k.holdings.Delete(db, key)
		}
		return nil
	}
	h.Units = formatUnits(units)
	_, err = k.holdings.Put(db, key, h)
	return err
}

// TotalAssets returns the pooled value of the vault.
func (k *Keeper) TotalAssets(db harvest.ReadOnlyKVStore, vaultID []byte) (coin.Coin, error) {
	v, err := k.Vault(db, vaultID)
	if err != nil {
		return coin.Coin{}, err
	}
	return coin.FromAtoms(totalAssets(v), v.Ticker)
}

// ConvertToUnits returns the units a deposit of given amount would mint.
func (k *Keeper) ConvertToUnits(db harvest.ReadOnlyKVStore, vaultID []byte, amount coin.Coin) (*big.Int, error) {
	v, conv, err := k.conversion(db, vaultID)
	if err != nil {
		return nil, err
	}
	if amount.Ticker != v.Ticker {
		return nil, errors.Wrapf(errors.ErrCurrency, "vault holds %s", v.Ticker)
	}
	return conv.mint(amount.Atoms()), nil
}

// ConvertToAssets returns the amount paid for redeeming given units.
func (k *Keeper) ConvertToAssets(db harvest.ReadOnlyKVStore, vaultID []byte, units *big.Int) (coin.Coin, error) {
	v, conv, err := k.conversion(db, vaultID)
	if err != nil {
		return coin.Coin{}, err
	}
	return coin.FromAtoms(conv.redeem(units), v.Ticker)
}

func (k *Keeper) conversion(db harvest.ReadOnlyKVStore, vaultID []byte) (*Vault, conversion, error) {
	v, err := k.Vault(db, vaultID)
	if err != nil {
		return nil, conversion{}, err
	}
	conf, err := k.Config(db)
	if err != nil {
		return nil, conversion{}, err
	}
	return v, newConversion(v, conf.VirtualOffset), nil
}

// CheckInvariants verifies that the holdings add up to the unit supply and
// that the custody account holds exactly the recorded buffer.
func (k *Keeper) CheckInvariants(db harvest.ReadOnlyKVStore, vaultID []byte) error {
	v, err := k.Vault(db, vaultID)
	if err != nil {
		return err
	}
	sum := new(big.Int)
	err = k.VisitHolders(db, vaultID, func(_ harvest.Address, units *big.Int) error {
		sum.Add(sum, units)
		return nil
	})
	if err != nil {
		return err
	}
	if sum.Cmp(v.Units()) != 0 {
		return errors.Wrapf(errors.ErrState, "holdings sum to %s, supply is %s", sum, v.TotalUnits)
	}
	bal, err := k.cash.Balance(db, v.Custody, v.Ticker)
	if err != nil {
		return errors.Wrap(err, "custody balance")
	}
	if !bal.Equals(*v.Buffer) {
		return errors.Wrapf(errors.ErrState, "custody holds %s, buffer is %s", bal, v.Buffer)
	}
	return nil
}

// VaultAddress returns the custody address of the vault. Only this address
// may request a distribution on behalf of the vault.
func (k *Keeper) VaultAddress(db harvest.ReadOnlyKVStore, vaultID []byte) (harvest.Address, error) {
	v, err := k.Vault(db, vaultID)
	if err != nil {
		return nil, err
	}
	return v.Custody, nil
}

// TotalUnits returns the unit supply of the vault.
func (k *Keeper) TotalUnits(db harvest.ReadOnlyKVStore, vaultID []byte) (*big.Int, error) {
	v, err := k.Vault(db, vaultID)
	if err != nil {
		return nil, err
	}
	return v.Units(), nil
}

// VisitHolders calls fn for every holder of the vault in address order.
func (k *Keeper) VisitHolders(db harvest.ReadOnlyKVStore, vaultID []byte, fn func(holder harvest.Address, units *big.Int) error) error {
	it, err := k.holdings.PrefixScan(db, orm.CompositeKey(vaultID), false)
	if err != nil {
		return errors.Wrap(err, "scan holdings")
	}
	defer it.Release()
	for {
		var h Holding
		switch _, err := it.LoadNext(&h); {
		case err == nil:
		case errors.ErrIteratorDone.Is(err):
			return nil
		default:
			return err
		}
		units, err := parseUnits(h.Units)
		if err != nil {
			return err
		}
		if err := fn(h.Holder, units); err != nil {
			return err
		}
	}
}
