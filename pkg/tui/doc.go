// Package tui edits page field trees in a terminal. Each field kind gets a
// prompt suited to its value: single-line inputs for strings and dates,
// multi-line inputs for text and HTML, id prompts for files and galleries,
// and a keep/edit/remove/move loop for repeaters.
package tui
