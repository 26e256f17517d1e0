/*
Package utils provides the decorators that every transaction passes through
and the savepoint helper used by the keepers.
*/
package utils
