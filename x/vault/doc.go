/*
Package vault implements the pooled share ledger.

Depositors pool a single asset and receive ownership units. A part of the
pool is kept liquid in the custody account, the surplus is invested into the
active adapter. Harvesting compares the adapter value with the recorded
principal, forwards realized profit to the distributor and books losses.

Unit conversion adds virtual units to the supply and a virtual atom to the
pooled assets, which makes inflating the unit price with a donation
unprofitable. All conversions round in favor of the pool.

Every mutating operation holds the vault re-entrancy guard for its whole
duration and runs inside a savepoint, so a failure leaves no partial effect.
*/
package vault
