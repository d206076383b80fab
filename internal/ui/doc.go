// Package ui provides terminal rendering for wmbusd's command-line
// surface: a styled startup banner and the live telegram-monitor shown
// by `wmbusd run --ui`.
//
// RenderHeader and Printer render once and exit, used for the startup banner
// printed before the daemon starts listening. The monitor is a proper
// interactive Bubble Tea program: MonitorFeed is the producer side, fed
// one MonitorRow per decoded meter reading, and RunMonitor drives the
// consumer side until the operator quits with q, ctrl+c, or esc.
package ui
