package dto

import "time"

// DepartmentRequest payload for create and update.
type DepartmentRequest struct {
	Name            string `json:"name"`
	NameMarathi     string `json:"name_marathi"`
	District        string `json:"district"`
	ContactWhatsApp string `json:"contact_whatsapp"`
	ContactEmail    string `json:"contact_email"`
	Active          *bool  `json:"is_active"`
}

// DepartmentResponse view.
type DepartmentResponse struct {
	ID              string    `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	NameMarathi     string    `json:"name_marathi"`
	District        string    `json:"district"`
	ContactWhatsApp string    `json:"contact_whatsapp"`
	ContactEmail    string    `json:"contact_email"`
	Active          bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// OfficerRequest payload for create and update.
type OfficerRequest struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	DepartmentID string `json:"department_id"`
	WhatsApp     string `json:"whatsapp"`
	Email        string `json:"email"`
	Active       *bool  `json:"is_active"`
}

// OfficerResponse view.
type OfficerResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	DepartmentID string    `json:"department_id"`
	WhatsApp     string    `json:"whatsapp"`
	Email        string    `json:"email"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
