package handlers

import (
	"github.com/spec-kit/grievance-service/internal/api/dto"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/service"
)

func grievanceResponse(g *domain.Grievance) dto.GrievanceResponse {
	return dto.GrievanceResponse{
		ID:          g.ID,
		TicketID:    g.TicketID,
		CitizenID:   g.CitizenID,
		Summary:     g.Summary,
		Description: g.Description,
		Language:    g.Language,
		Category:    g.Category,
		Severity:    g.Severity,
		Location: dto.LocationPayload{
			Pincode:  g.Location.Pincode,
			District: g.Location.District,
			Lat:      g.Location.Lat,
			Lng:      g.Location.Lng,
		},
		Status:            g.Status,
		DepartmentID:      g.DepartmentID,
		AssignedOfficerID: g.AssignedOfficerID,
		Version:           g.Version,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

func grievanceResponses(items []domain.Grievance) []dto.GrievanceResponse {
	resp := make([]dto.GrievanceResponse, 0, len(items))
	for i := range items {
		resp = append(resp, grievanceResponse(&items[i]))
	}
	return resp
}

func routingResponse(r *service.RoutingResult) *dto.RoutingResponse {
	if r == nil {
		return nil
	}
	resp := &dto.RoutingResponse{
		Reason:                r.Reason,
		Priority:              r.Rule.Priority,
		ResponseTargetHours:   r.Rule.ResponseTarget.Hours(),
		EscalationTargetHours: r.Rule.EscalationTarget.Hours(),
	}
	if r.Department != nil {
		resp.DepartmentID = r.Department.ID
		resp.DepartmentName = r.Department.Name
		resp.DepartmentCode = domain.DepartmentCode(r.Department.Name)
	}
	if r.Duplicate != nil {
		resp.Duplicate = &dto.DuplicateResponse{
			GrievanceID: r.Duplicate.GrievanceID,
			TicketID:    r.Duplicate.TicketID,
			Similarity:  r.Duplicate.Similarity,
		}
	}
	return resp
}

func createResponse(res *service.CreateResult) dto.CreateGrievanceResponse {
	return dto.CreateGrievanceResponse{
		TicketID:  res.TicketID,
		Grievance: grievanceResponse(res.Grievance),
		Routing:   routingResponse(res.Routing),
	}
}

func eventResponses(entries []domain.Event) []dto.EventResponse {
	resp := make([]dto.EventResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.EventResponse{
			ID:          e.ID,
			Sequence:    e.Sequence,
			GrievanceID: e.GrievanceID,
			Type:        e.Type,
			Payload:     e.Payload,
			ActorID:     e.ActorID,
			ActorType:   e.ActorType,
			CreatedAt:   e.CreatedAt,
		})
	}
	return resp
}

func departmentResponse(d *domain.Department) dto.DepartmentResponse {
	return dto.DepartmentResponse{
		ID:              d.ID,
		Code:            domain.DepartmentCode(d.Name),
		Name:            d.Name,
		NameMarathi:     d.NameMarathi,
		District:        d.District,
		ContactWhatsApp: d.ContactWhatsApp,
		ContactEmail:    d.ContactEmail,
		Active:          d.Active,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func officerResponse(o *domain.Officer) dto.OfficerResponse {
	return dto.OfficerResponse{
		ID:           o.ID,
		Name:         o.Name,
		Role:         o.Role,
		DepartmentID: o.DepartmentID,
		WhatsApp:     o.WhatsApp,
		Email:        o.Email,
		Active:       o.Active,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func slaResponse(st service.SLAStatus) dto.SLAStatusResponse {
	return dto.SLAStatusResponse{
		GrievanceID:  st.GrievanceID,
		TicketID:     st.TicketID,
		DepartmentID: st.DepartmentID,
		Severity:     st.Severity,
		Status:       st.Status,
		Priority:     st.Rule.Priority,
		CreatedAt:    st.CreatedAt,
		DueAt:        st.DueAt,
		EscalateAt:   st.EscalateAt,
		HoursPending: st.HoursPending,
		Breached:     st.Breached,
		Escalated:    st.Escalated,
	}
}
