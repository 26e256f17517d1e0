/*
Package yieldsim is a simulated yield venue implementing vault.Adapter.

A venue keeps invested coins in its own cash account. Rewards are accrued as
pending and realized into the account when the bound vault harvests. Slash
destroys part of the invested coins and a haircut destroys a share of every
divestment, which is how devnets and tests reproduce venue losses and
slippage.

The venue position lives in the store, so every effect of an adapter call is
rolled back together with the vault operation that made it.
*/
package yieldsim
