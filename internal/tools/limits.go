// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

// Limits bounds how much data filesystem operations return or scan.
type Limits struct {
	MaxReadBytes       int
	SummaryHeadLines   int
	SummaryMaxBytes    int
	MaxListEntries     int
	MaxSearchMatches   int
	MaxSearchFileBytes int64
	MaxSearchLineChars int
}

const (
	defaultMaxReadBytes             = 20000
	defaultSummaryHeadLines         = 20
	defaultSummaryMaxBytes          = 4000
	defaultMaxListEntries           = 200
	defaultMaxSearchMatches         = 50
	defaultMaxSearchFileBytes int64 = 1 << 20
	defaultMaxSearchLineChars       = 300
)

// DefaultLimits returns the default resource limits for tool operations.
func DefaultLimits() Limits {
	return Limits{
		MaxReadBytes:       defaultMaxReadBytes,
		SummaryHeadLines:   defaultSummaryHeadLines,
		SummaryMaxBytes:    defaultSummaryMaxBytes,
		MaxListEntries:     defaultMaxListEntries,
		MaxSearchMatches:   defaultMaxSearchMatches,
		MaxSearchFileBytes: defaultMaxSearchFileBytes,
		MaxSearchLineChars: defaultMaxSearchLineChars,
	}
}

// NormalizeLimits replaces unset or negative limits with defaults.
func NormalizeLimits(l Limits) Limits {
	d := DefaultLimits()
	if l.MaxReadBytes <= 0 {
		l.MaxReadBytes = d.MaxReadBytes
	}
	if l.SummaryHeadLines <= 0 {
		l.SummaryHeadLines = d.SummaryHeadLines
	}
	if l.SummaryMaxBytes <= 0 {
		l.SummaryMaxBytes = d.SummaryMaxBytes
	}
	if l.MaxListEntries <= 0 {
		l.MaxListEntries = d.MaxListEntries
	}
	if l.MaxSearchMatches <= 0 {
		l.MaxSearchMatches = d.MaxSearchMatches
	}
	if l.MaxSearchFileBytes <= 0 {
		l.MaxSearchFileBytes = d.MaxSearchFileBytes
	}
	if l.MaxSearchLineChars <= 0 {
		l.MaxSearchLineChars = d.MaxSearchLineChars
	}
	return l
}
