// Package scroll defines the data model of the daily ritual.
//
// # Overview
//
// A user tears one scroll per calendar day. The tear produces a Result, the
// Result is committed into the user's UserState, and the commit is recorded as
// an Entry in their history. Everything in this package is pure: no I/O, no
// clocks, no randomness. Callers pass the current time in.
//
// # Day Progression
//
// UserState.Advance compares the UTC calendar date of LastActiveAt with the
// given time:
//
//	0 days   no change
//	1 day    CurrentDay += 1, Streak += 1, daily gate reopened
//	n days   CurrentDay += n, Streak = 0, daily gate reopened
//
// TotalEntries and CultivationLevel are never touched by progression.
//
// # Cultivation Level
//
// Level derives a tier in [1, MaxLevel] from TotalEntries alone using
// LevelThresholds. CultivationLevel on UserState is only a cache of that
// derivation; Normalize recomputes it.
//
// # Gestures
//
// InterpretGesture turns a drag (start and end X positions) into a Decision
// without any rendering surface:
//
//	already acted today    DecisionReject
//	|dx| > TearThreshold   DecisionTear
//	otherwise              DecisionSnapBack
package scroll
