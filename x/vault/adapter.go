package vault

import (
	"github.com/iov-one/harvest"
	"github.com/iov-one/harvest/coin"
)

// Adapter deploys the surplus of a vault into a yield venue.
//
// The vault moves coins into Account before calling Invest. Divest and
// EmergencyWithdraw move coins from the venue back to the caller and return
// the amount actually transferred, which may be less than requested. Every
// mutating call must fail with errors.ErrUnauthorized unless caller is the
// custody address of the vault the adapter is bound to.
type Adapter interface {
	// Account is the address holding invested coins.
	Account() harvest.Address
	// Asset is the ticker of the only currency the adapter accepts.
	Asset() string
	// TotalAssets reports the current value held by the venue.
	TotalAssets(db harvest.ReadOnlyKVStore) (coin.Coin, error)
	Invest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) error
	Divest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, amount coin.Coin) (coin.Coin, error)
	// Harvest realizes pending rewards into Account. The reported values
	// are informative, the vault measures profit on its own.
	Harvest(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (profit, loss coin.Coin, err error)
	EmergencyWithdraw(ctx harvest.Context, db harvest.KVStore, caller harvest.Address) (coin.Coin, error)
}

// Distributor receives realized profit. The vault transfers the profit to
// Account and then calls Distribute as the vault custody address.
type Distributor interface {
	Account() harvest.Address
	Distribute(ctx harvest.Context, db harvest.KVStore, caller harvest.Address, vaultID []byte, amount coin.Coin) error
}
