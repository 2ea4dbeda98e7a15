package domain

import "time"

// Department is a routing target.
type Department struct {
	ID              string
	Name            string
	NameMarathi     string
	District        string
	ContactWhatsApp string
	ContactEmail    string
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Officer works grievances on behalf of a department.
type Officer struct {
	ID           string
	Name         string
	Role         string
	DepartmentID string
	WhatsApp     string
	Email        string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// categoryDepartments maps each category to the name of the department that
// handles it.
var categoryDepartments = map[Category]string{
	CategoryWater:       "Water Resources",
	CategoryRoad:        "Public Works",
	CategoryElectricity: "Electricity",
	CategoryHealth:      "Health",
	CategorySanitation:  "Sanitation",
	CategoryWomenChild:  "Women & Child Development",
	CategoryPolice:      "Police",
	CategoryRevenue:     "Revenue",
	CategoryEducation:   "Education",
	CategoryOther:       "Public Works",
}

// DepartmentNameFor resolves a category to its department name; unknown
// categories fall back to the "other" bucket.
func DepartmentNameFor(c Category) string {
	if name, ok := categoryDepartments[c]; ok {
		return name
	}
	return categoryDepartments[CategoryOther]
}

var departmentCodes = map[string]string{
	"Water Resources":           "WR",
	"Public Works":              "PW",
	"Electricity":               "EL",
	"Health":                    "HL",
	"Sanitation":                "SN",
	"Women & Child Development": "WC",
	"Police":                    "PL",
	"Revenue":                   "RV",
	"Education":                 "ED",
}

// DepartmentCode returns the two letter code used on outward letters.
func DepartmentCode(name string) string {
	if code, ok := departmentCodes[name]; ok {
		return code
	}
	return "GN"
}
