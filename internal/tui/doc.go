// Package tui renders the live counter in a terminal with bubbletea.
//
// [Display] is the livecounter.Display the counter writes into. [Model] reads
// it on a short refresh tick, draws it with lipgloss, and relays terminal
// focus changes as visibility. The program exits when the counter removes
// the widget.
package tui
