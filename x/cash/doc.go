/*
Package cash keeps the token balances of all accounts.

Each balance is stored per owner address and ticker. Other extensions move
value through the Controller so that every transfer is validated the same
way and rolls back together with the operation that requested it. Custody
accounts of vaults, the payout router, campaigns, stake escrows and adapters
are regular balances owned by condition derived addresses.
*/
package cash
