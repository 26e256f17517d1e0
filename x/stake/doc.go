/*
Package stake keeps the stakes supporters lock behind a campaign.

Staked coins are held by the campaign escrow account. Every change of a
stake appends a snapshot with the block height, so the stake of a supporter
and the campaign total can be read as they were at any past height. An exit
moves the active stake into escrow where it stays locked for the configured
delay. A completed exit archives the stake record instead of deleting it.
*/
package stake
