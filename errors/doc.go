/*
Package errors implements the error values used across harvest.

Every failure returned by a handler or keeper wraps one of the root errors
registered with Register. A root error carries an ABCI code, a description
and a Kind that groups it into one of the families clients react to:
validation, authorization, economic guards, timing and state.

Use ErrXyz.New("...") or Wrap(err, "...") at the point where the failure is
detected so that a stack trace is attached once, at the innermost frame.

	%s  is just the error message
	%+v is the full stack trace
	%v  appends a compressed [filename:line] where the error was created

Extensions declare their own root errors in their errors.go using the code
range assigned to them: vault 300-319, payout 320-339, checkpoint 340-359,
stake 360-379, yieldsim 380-399.
*/
package errors
