package domain

import "time"

// Category enumerates the canonical grievance categories.
type Category string

const (
	CategoryWater       Category = "water"
	CategoryRoad        Category = "road"
	CategoryElectricity Category = "electricity"
	CategoryHealth      Category = "health"
	CategorySanitation  Category = "sanitation"
	CategoryWomenChild  Category = "women_child"
	CategoryPolice      Category = "police"
	CategoryRevenue     Category = "revenue"
	CategoryEducation   Category = "education"
	CategoryOther       Category = "other"
)

// Categories lists every accepted category.
var Categories = []Category{
	CategoryWater, CategoryRoad, CategoryElectricity, CategoryHealth, CategorySanitation,
	CategoryWomenChild, CategoryPolice, CategoryRevenue, CategoryEducation, CategoryOther,
}

// Valid reports whether c is one of the canonical categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Severity enumerates urgency levels.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Location carries the routing and dedup relevant position of a grievance.
type Location struct {
	Pincode  string
	District string
	Lat      *float64
	Lng      *float64
}

// HasData reports whether any location hint was supplied.
func (l Location) HasData() bool {
	return l.Pincode != "" || l.District != "" || (l.Lat != nil && l.Lng != nil)
}

// Grievance is the aggregate for a citizen complaint.
type Grievance struct {
	ID                string
	TicketID          string
	CitizenID         string
	Summary           string
	Description       string
	Language          string
	Category          Category
	Severity          Severity
	Location          Location
	Status            Status
	DepartmentID      *string
	AssignedOfficerID *string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Text returns the content used for similarity checks.
func (g *Grievance) Text() string {
	return g.Summary + " " + g.Description
}

// Citizen is the person filing grievances, keyed by phone number.
type Citizen struct {
	ID        string
	Phone     string
	Name      string
	Language  string
	CreatedAt time.Time
}
