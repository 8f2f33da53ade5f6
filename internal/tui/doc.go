// Package tui implements the optional live status view of tunnelo.
//
// The view lists every tunnel with its state, attempt count and last error,
// and shows the activity log below it. Tunnel state is read from a
// reporting.StateStore; updates arriving on a channel only trigger redraws.
// Quitting the view stops the tunnels.
package tui
