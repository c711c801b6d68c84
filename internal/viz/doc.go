// Package viz renders scaling results in the terminal.
//
// Three views are provided:
//
//   - [Table]: lipgloss table of seconds per variable and worker count
//   - [Preview]: asciigraph plot of log10(seconds) across worker steps
//   - [Watch]: Bubble Tea model that re-reads a results file on an interval
//
// # Watch Key Bindings
//
//	R     - Reload now
//	Q     - Quit
//
// The watch view only reads the results file. Saves replace the file by
// rename, so a reload never sees a partially written table.
package viz
