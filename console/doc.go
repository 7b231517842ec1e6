// Package console renders Sabik's terminal output with lipgloss: the
// welcome and help panels, assistant answers, tool activity, feed events,
// usage and doctor tables.
package console
