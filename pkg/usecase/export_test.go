package usecase

import (
	"time"
)

// SetAnalysisClock replaces the clock used to timestamp entries
func SetAnalysisClock(uc *AnalysisUseCase, now func() time.Time) {
	uc.now = now
}

// SetCareClock replaces the clock used for tip expiry
func SetCareClock(uc *CareUseCase, now func() time.Time) {
	uc.now = now
}

// DistinctSpecies is exported for testing
var DistinctSpecies = distinctSpecies

// ActiveLocks reports how many per-plant locks are currently tracked
func ActiveLocks(uc *AnalysisUseCase) int {
	uc.locks.mu.Lock()
	defer uc.locks.mu.Unlock()
	return len(uc.locks.locks)
}

// Triggered is exported for testing
func (p AlertPolicy) Triggered(score int, previous *int) bool {
	return p.triggered(score, previous)
}
