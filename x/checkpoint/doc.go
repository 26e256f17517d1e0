/*
Package checkpoint implements milestone votes that gate whether a campaign
keeps receiving payouts.

A curator schedules a checkpoint with a voting window and a quorum. When the
window starts, the ticker opens the vote and pins a snapshot height: the
last block sealed before voting opened. Every vote weighs the stake the
voter had at that height, never a later balance. A voter must also have
first staked before the window started and at least the configured
eligibility duration ago. Together both rules make stake borrowed for the
duration of the vote worthless.

After the window ends the checkpoint is finalized. A failed checkpoint halts
the payouts of the campaign.

	None -> Scheduled -> Voting -> Succeeded|Failed -> Executed
	Scheduled|Voting -> Canceled
*/
package checkpoint
