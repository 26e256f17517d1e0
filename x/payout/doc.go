/*
Package payout routes harvested yield to unit holders.

A vault moves realized profit to the router account and calls Distribute.
The router deducts the governance fee, splits the remainder by the share of
units each holder owns and then by the holder preference between a campaign
and a personal beneficiary. The share of a halted campaign goes to the
beneficiary instead. Amounts too small to be split are kept by the router as
dust and added to the next distribution of the same currency.

Fee decreases apply at once. Fee increases are bounded by a per step maximum
and wait for a timelock before anyone can execute them.
*/
package payout
