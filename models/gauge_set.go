// Package models contains domain entities and business models for the gauge tracking system
package models

import "strings"

// GaugeSet is the derived view of a GO gauge and its NO-GO companion.
// It is composed from the two gauge rows and never persisted on its own.
type GaugeSet struct {
	BaseID string `json:"base_id"`
	Go     *Gauge `json:"go_gauge"`
	NoGo   *Gauge `json:"no_go_gauge"`
}

// NewGaugeSet composes a set view from its two members. The base ID is
// derived from either member's system gauge ID by stripping the role suffix.
func NewGaugeSet(goGauge, noGoGauge *Gauge) *GaugeSet {
	return &GaugeSet{
		BaseID: BaseIDFromSystemGaugeID(goGauge.SystemGaugeID),
		Go:     goGauge,
		NoGo:   noGoGauge,
	}
}

// BaseIDFromSystemGaugeID strips the trailing role suffix from a system
// gauge ID. Returns "" for spares.
func BaseIDFromSystemGaugeID(systemGaugeID *string) string {
	if systemGaugeID == nil {
		return ""
	}
	s := *systemGaugeID
	if strings.HasSuffix(s, SystemGaugeIDSuffixGo) || strings.HasSuffix(s, SystemGaugeIDSuffixNoGo) {
		return s[:len(s)-1]
	}
	return s
}
