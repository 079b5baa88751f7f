// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the iconlib CLI.
package ux

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return Styles.Muted.Render(string(i))
	}
}

var (
	outMu  sync.Mutex
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects normal and error output. Passing nil restores the
// process's stdout/stderr.
func SetOutput(out, errOut io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

func printf(toErr bool, format string, args ...any) {
	outMu.Lock()
	defer outMu.Unlock()
	w := stdout
	if toErr {
		w = stderr
	}
	fmt.Fprintf(w, format, args...)
}

// Title prints a styled title
func Title(text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		return
	}
	printf(false, "%s\n", Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf(false, "OK: %s\n", text)
	case PersonalityMinimal:
		printf(false, "%s %s\n", IconSuccess, text)
	default:
		printf(false, "%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
	}
}

// Warning prints a warning message
func Warning(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf(true, "WARN: %s\n", text)
	case PersonalityMinimal:
		printf(true, "%s %s\n", IconWarning, text)
	default:
		printf(true, "%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
	}
}

// Error prints an error message
func Error(text string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf(true, "ERROR: %s\n", text)
	case PersonalityMinimal:
		printf(true, "%s %s\n", IconError, text)
	default:
		printf(true, "%s %s\n", IconError.Render(), Styles.Error.Render(text))
	}
}

// Info prints an informational message
func Info(text string) {
	if GetPersonalityLevel() == PersonalityMachine {
		printf(false, "%s\n", text)
		return
	}
	printf(false, "%s %s\n", Styles.Muted.Render("│"), text)
}

// Library prints one written library with its icon count.
func Library(title string, icons int, path string) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf(false, "LIBRARY\t%s\t%d\t%s\n", title, icons, path)
	case PersonalityMinimal:
		printf(false, "%s %s (%d)\n", IconSuccess, title, icons)
	default:
		printf(false, "%s %s %s %s\n",
			IconSuccess.Render(),
			Styles.Bold.Render(title),
			Styles.Muted.Render(fmt.Sprintf("%d icons", icons)),
			Styles.Muted.Render(string(IconArrow)+" "+path))
	}
}

// Summary prints the totals of a run.
func Summary(groups, icons int, bytes int64) {
	switch GetPersonalityLevel() {
	case PersonalityMachine:
		printf(false, "SUMMARY: libraries=%d icons=%d bytes=%d\n", groups, icons, bytes)
	default:
		printf(false, "\n%s %s  %s %s  %s %s\n",
			Styles.Success.Render(fmt.Sprintf("%d", groups)), Styles.Muted.Render("libraries"),
			Styles.Bold.Render(fmt.Sprintf("%d", icons)), Styles.Muted.Render("icons"),
			Styles.Bold.Render(humanBytes(bytes)), Styles.Muted.Render("written"),
		)
	}
}

// Box prints text in a rounded box
func Box(title, content string) {
	if GetPersonalityLevel() == PersonalityMachine {
		printf(false, "%s: %s\n", title, content)
		return
	}
	printf(false, "%s\n", Styles.Box.Width(60).Render(Styles.Title.Render(title)+"\n"+content))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
