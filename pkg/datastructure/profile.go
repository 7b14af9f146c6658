package datastructure

import (
	"fmt"
	"strings"
)

type TransportMode string

const (
	Car        TransportMode = "car"
	Motorcycle TransportMode = "motorcycle"
	Walking    TransportMode = "walking"
)

func TransportModeFromString(s string) (TransportMode, error) {
	switch TransportMode(strings.ToLower(strings.TrimSpace(s))) {
	case Car:
		return Car, nil
	case Motorcycle:
		return Motorcycle, nil
	case Walking:
		return Walking, nil
	}
	return "", fmt.Errorf("unknown transport mode %q", s)
}

func (m TransportMode) String() string {
	return string(m)
}

type RiskProfile string

const (
	RiskAverse   RiskProfile = "risk-averse"
	Balanced     RiskProfile = "balanced"
	RiskTolerant RiskProfile = "risk-tolerant"
)

// RiskProfiles urutan slot di response: safe, balanced, fastest.
var RiskProfiles = []RiskProfile{RiskAverse, Balanced, RiskTolerant}

func (p RiskProfile) String() string {
	return string(p)
}

// SlotName nama slot di response route set.
func (p RiskProfile) SlotName() string {
	switch p {
	case RiskAverse:
		return "safe"
	case Balanced:
		return "balanced"
	case RiskTolerant:
		return "fastest"
	default:
		return "unknown"
	}
}

type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (l RiskLevel) String() string {
	return string(l)
}
