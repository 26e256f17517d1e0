/*
Package x contains the extensions of the harvest application.

Extensions implement common functionality (Handler, Decorator,
Ticker, Initializer) and are combined together by the application
package. Each extension owns its models and errors and reaches the
state of other extensions only through their exported controllers.

Note that protobuf types in exported code will be prefixed by
the package, so follow standard go naming conventions and avoid
stutter. Use eg. `vault.DepositMsg` in place of `vault.VaultDepositMsg`.
*/
package x
