// Package shortcuts maps key presses and signals to actions.
//
// Bindings:
//
//	exit key (escape by default), ctrl+c  request exit
//	ctrl+b                                print the greeting
//	ctrl+r                                reset key statistics
//	?                                     print key statistics
//
// SIGINT and SIGTERM also request exit. ExitRequested is meant to be used
// as the run loop's exit check, so the loop stops before its next wait.
package shortcuts
