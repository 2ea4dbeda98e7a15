package domain

import "time"

// SLARule holds the service targets attached to a severity.
type SLARule struct {
	Severity         Severity
	Priority         int
	ResponseTarget   time.Duration
	EscalationTarget time.Duration
}

var slaRules = map[Severity]SLARule{
	SeverityCritical: {Severity: SeverityCritical, Priority: 1, ResponseTarget: 2 * time.Hour, EscalationTarget: 4 * time.Hour},
	SeverityHigh:     {Severity: SeverityHigh, Priority: 2, ResponseTarget: 24 * time.Hour, EscalationTarget: 48 * time.Hour},
	SeverityMedium:   {Severity: SeverityMedium, Priority: 3, ResponseTarget: 72 * time.Hour, EscalationTarget: 96 * time.Hour},
	SeverityLow:      {Severity: SeverityLow, Priority: 4, ResponseTarget: 168 * time.Hour, EscalationTarget: 192 * time.Hour},
}

// RuleFor returns the SLA rule for a severity. Unknown severities get the
// medium rule.
func RuleFor(s Severity) SLARule {
	if rule, ok := slaRules[s]; ok {
		return rule
	}
	return slaRules[SeverityMedium]
}

// Breached reports whether an open grievance has exceeded its response
// target. Terminal grievances never breach.
func Breached(severity Severity, createdAt time.Time, status Status, now time.Time) bool {
	if status.Terminal() {
		return false
	}
	return now.Sub(createdAt) > RuleFor(severity).ResponseTarget
}

// Escalation reports whether an open grievance is past its escalation target.
func Escalation(severity Severity, createdAt time.Time, status Status, now time.Time) bool {
	if status.Terminal() {
		return false
	}
	return now.Sub(createdAt) > RuleFor(severity).EscalationTarget
}
