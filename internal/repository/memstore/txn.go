package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
)

type stagedGrievance struct {
	g       domain.Grievance
	base    int64
	created bool
}

// txn holds writes not yet visible to other readers. In auto mode every
// write commits immediately.
type txn struct {
	s    *Store
	auto bool

	grievances      map[string]*stagedGrievance
	grievanceOrder  []string
	departments     map[string]domain.Department
	departmentOrder []string
	officers        map[string]domain.Officer
	citizens        map[string]domain.Citizen
	events          []*domain.Event
}

func newTxn(s *Store, auto bool) *txn {
	t := &txn{s: s, auto: auto}
	t.reset()
	return t
}

func (t *txn) reset() {
	t.grievances = make(map[string]*stagedGrievance)
	t.grievanceOrder = nil
	t.departments = make(map[string]domain.Department)
	t.departmentOrder = nil
	t.officers = make(map[string]domain.Officer)
	t.citizens = make(map[string]domain.Citizen)
	t.events = nil
}

func (t *txn) flush() error {
	if !t.auto {
		return nil
	}
	defer t.reset()
	return t.s.commit(t)
}

func (t *txn) now() time.Time {
	return t.s.now()
}

func (t *txn) repos() repository.Repositories {
	return repository.Repositories{
		Grievances:  grievanceRepo{t},
		Events:      eventRepo{t},
		Departments: departmentRepo{t},
		Officers:    officerRepo{t},
		Citizens:    citizenRepo{t},
	}
}

// lookupGrievance returns the grievance as visible to this transaction.
func (t *txn) lookupGrievance(id string) (domain.Grievance, bool) {
	if staged, ok := t.grievances[id]; ok {
		return staged.g, true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	record, ok := t.s.grievances[id]
	return record.g, ok
}

// visibleGrievances merges committed rows with this transaction's writes.
func (t *txn) visibleGrievances() []grievanceRecord {
	t.s.mu.Lock()
	out := make([]grievanceRecord, 0, len(t.s.grievances)+len(t.grievances))
	next := t.s.serial
	for id, record := range t.s.grievances {
		if staged, ok := t.grievances[id]; ok {
			record.g = staged.g
		}
		out = append(out, record)
	}
	t.s.mu.Unlock()
	for _, id := range t.grievanceOrder {
		if staged := t.grievances[id]; staged.created {
			next++
			out = append(out, grievanceRecord{g: staged.g, serial: next})
		}
	}
	return out
}

type grievanceRepo struct{ t *txn }

func (r grievanceRepo) Create(_ context.Context, g *domain.Grievance) error {
	t := r.t
	t.s.mu.Lock()
	_, taken := t.s.tickets[g.TicketID]
	t.s.mu.Unlock()
	for _, staged := range t.grievances {
		if staged.created && staged.g.TicketID == g.TicketID {
			taken = true
		}
	}
	if taken {
		return repository.ErrDuplicateTicketID
	}

	now := t.now()
	g.ID = uuid.NewString()
	g.Version = 1
	g.CreatedAt = now
	g.UpdatedAt = now
	t.grievances[g.ID] = &stagedGrievance{g: cloneGrievance(*g), created: true}
	t.grievanceOrder = append(t.grievanceOrder, g.ID)
	return t.flush()
}

func (r grievanceRepo) GetByID(_ context.Context, id string) (*domain.Grievance, error) {
	g, ok := r.t.lookupGrievance(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneGrievance(g)
	return &out, nil
}

func (r grievanceRepo) GetByTicketID(_ context.Context, ticketID string) (*domain.Grievance, error) {
	for _, record := range r.t.visibleGrievances() {
		if record.g.TicketID == ticketID {
			out := cloneGrievance(record.g)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r grievanceRepo) UpdateStatus(_ context.Context, g *domain.Grievance, status domain.Status) error {
	return r.update(g, func(row *domain.Grievance) { row.Status = status })
}

func (r grievanceRepo) UpdateDepartment(_ context.Context, g *domain.Grievance, departmentID string) error {
	return r.update(g, func(row *domain.Grievance) { row.DepartmentID = &departmentID })
}

func (r grievanceRepo) UpdateOfficer(_ context.Context, g *domain.Grievance, officerID string) error {
	return r.update(g, func(row *domain.Grievance) { row.AssignedOfficerID = &officerID })
}

func (r grievanceRepo) update(g *domain.Grievance, mutate func(*domain.Grievance)) error {
	t := r.t
	current, ok := t.lookupGrievance(g.ID)
	if !ok {
		return repository.ErrNotFound
	}
	if current.Version != g.Version {
		return repository.ErrVersionConflict
	}

	staged, ok := t.grievances[g.ID]
	if !ok {
		staged = &stagedGrievance{base: current.Version}
		t.grievances[g.ID] = staged
		t.grievanceOrder = append(t.grievanceOrder, g.ID)
	}
	row := cloneGrievance(current)
	mutate(&row)
	row.Version++
	row.UpdatedAt = t.now()
	staged.g = row

	mutate(g)
	g.Version = row.Version
	g.UpdatedAt = row.UpdatedAt
	return t.flush()
}

func (r grievanceRepo) ListRecentByCitizen(_ context.Context, citizenID string, since time.Time) ([]domain.Grievance, error) {
	records := r.t.visibleGrievances()
	return collect(records, func(g domain.Grievance) bool {
		return g.CitizenID == citizenID && !g.CreatedAt.Before(since)
	}, newestFirst), nil
}

func (r grievanceRepo) ListOpen(context.Context) ([]domain.Grievance, error) {
	records := r.t.visibleGrievances()
	return collect(records, func(g domain.Grievance) bool {
		return !g.Status.Terminal()
	}, oldestFirst), nil
}

func (r grievanceRepo) List(_ context.Context, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	statuses := make(map[domain.Status]bool, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses[s] = true
	}
	search := ""
	if filter.SearchTerm != nil {
		search = strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
	}
	matched := collect(r.t.visibleGrievances(), func(g domain.Grievance) bool {
		if len(statuses) > 0 && !statuses[g.Status] {
			return false
		}
		if filter.DepartmentID != nil && (g.DepartmentID == nil || *g.DepartmentID != *filter.DepartmentID) {
			return false
		}
		if filter.OfficerID != nil && (g.AssignedOfficerID == nil || *g.AssignedOfficerID != *filter.OfficerID) {
			return false
		}
		if filter.Category != nil && g.Category != *filter.Category {
			return false
		}
		if filter.Severity != nil && g.Severity != *filter.Severity {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(g.Summary), search) &&
			!strings.Contains(strings.ToLower(g.Description), search) &&
			!strings.Contains(strings.ToLower(g.TicketID), search) {
			return false
		}
		return true
	}, newestFirst)

	limit, offset := page(filter.Limit, filter.Offset)
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r grievanceRepo) ListCreatedSince(_ context.Context, since time.Time, departmentID *string) ([]domain.Grievance, error) {
	return collect(r.t.visibleGrievances(), func(g domain.Grievance) bool {
		if g.CreatedAt.Before(since) {
			return false
		}
		return departmentID == nil || (g.DepartmentID != nil && *g.DepartmentID == *departmentID)
	}, oldestFirst), nil
}

func (r grievanceRepo) ListByOfficer(_ context.Context, officerID string) ([]domain.Grievance, error) {
	return collect(r.t.visibleGrievances(), func(g domain.Grievance) bool {
		return g.AssignedOfficerID != nil && *g.AssignedOfficerID == officerID
	}, oldestFirst), nil
}

func newestFirst(a, b grievanceRecord) bool {
	if !a.g.CreatedAt.Equal(b.g.CreatedAt) {
		return a.g.CreatedAt.After(b.g.CreatedAt)
	}
	return a.serial > b.serial
}

func oldestFirst(a, b grievanceRecord) bool {
	return newestFirst(b, a)
}

func collect(records []grievanceRecord, keep func(domain.Grievance) bool, less func(a, b grievanceRecord) bool) []domain.Grievance {
	kept := make([]grievanceRecord, 0, len(records))
	for _, record := range records {
		if keep(record.g) {
			kept = append(kept, record)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return less(kept[i], kept[j]) })
	out := make([]domain.Grievance, len(kept))
	for i, record := range kept {
		out[i] = cloneGrievance(record.g)
	}
	return out
}

func page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type eventRepo struct{ t *txn }

func (r eventRepo) Append(_ context.Context, event *domain.Event) error {
	t := r.t
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	event.ID = uuid.NewString()
	event.CreatedAt = t.now()
	t.events = append(t.events, event)
	return t.flush()
}

func (r eventRepo) ListByGrievance(_ context.Context, grievanceID string) ([]domain.Event, error) {
	t := r.t
	var out []domain.Event
	t.s.mu.Lock()
	for _, e := range t.s.events {
		if e.GrievanceID == grievanceID {
			out = append(out, cloneEvent(e))
		}
	}
	t.s.mu.Unlock()
	for _, e := range t.events {
		if e.GrievanceID == grievanceID {
			out = append(out, cloneEvent(*e))
		}
	}
	return out, nil
}

func (r eventRepo) ListByType(_ context.Context, eventType domain.EventType, limit int) ([]domain.Event, error) {
	t := r.t
	limit, _ = page(limit, 0)
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []domain.Event
	for i := len(t.s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if e := t.s.events[i]; e.Type == eventType {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

type departmentRepo struct{ t *txn }

func (r departmentRepo) Create(_ context.Context, dept *domain.Department) error {
	t := r.t
	now := t.now()
	dept.ID = uuid.NewString()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	t.departments[dept.ID] = *dept
	t.departmentOrder = append(t.departmentOrder, dept.ID)
	return t.flush()
}

func (r departmentRepo) Update(ctx context.Context, dept *domain.Department) error {
	t := r.t
	if _, err := r.GetByID(ctx, dept.ID); err != nil {
		return err
	}
	dept.UpdatedAt = t.now()
	if _, staged := t.departments[dept.ID]; !staged {
		t.departmentOrder = append(t.departmentOrder, dept.ID)
	}
	t.departments[dept.ID] = *dept
	return t.flush()
}

func (r departmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	for _, record := range r.visible() {
		if record.dept.ID == id {
			dept := record.dept
			return &dept, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r departmentRepo) List(_ context.Context, activeOnly bool) ([]domain.Department, error) {
	records := r.visible()
	sort.Slice(records, func(i, j int) bool {
		if records[i].dept.Name != records[j].dept.Name {
			return records[i].dept.Name < records[j].dept.Name
		}
		return records[i].serial < records[j].serial
	})
	var out []domain.Department
	for _, record := range records {
		if activeOnly && !record.dept.Active {
			continue
		}
		out = append(out, record.dept)
	}
	return out, nil
}

func (r departmentRepo) FindActiveByName(_ context.Context, name, district string) (*domain.Department, error) {
	var best *departmentRecord
	for _, record := range r.visible() {
		if !record.dept.Active || record.dept.Name != name {
			continue
		}
		if district != "" && !strings.EqualFold(record.dept.District, district) {
			continue
		}
		if best == nil || record.serial < best.serial {
			candidate := record
			best = &candidate
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	dept := best.dept
	return &dept, nil
}

func (r departmentRepo) visible() []departmentRecord {
	t := r.t
	t.s.mu.Lock()
	out := make([]departmentRecord, 0, len(t.s.departments)+len(t.departments))
	next := t.s.serial
	for id, record := range t.s.departments {
		if staged, ok := t.departments[id]; ok {
			record.dept = staged
		}
		out = append(out, record)
	}
	for _, id := range t.departmentOrder {
		if _, committed := t.s.departments[id]; committed {
			continue
		}
		next++
		out = append(out, departmentRecord{dept: t.departments[id], serial: next})
	}
	t.s.mu.Unlock()
	return out
}

type officerRepo struct{ t *txn }

func (r officerRepo) Create(_ context.Context, officer *domain.Officer) error {
	t := r.t
	now := t.now()
	officer.ID = uuid.NewString()
	officer.CreatedAt = now
	officer.UpdatedAt = now
	t.officers[officer.ID] = *officer
	return t.flush()
}

func (r officerRepo) Update(ctx context.Context, officer *domain.Officer) error {
	t := r.t
	if _, err := r.GetByID(ctx, officer.ID); err != nil {
		return err
	}
	officer.UpdatedAt = t.now()
	t.officers[officer.ID] = *officer
	return t.flush()
}

func (r officerRepo) GetByID(_ context.Context, id string) (*domain.Officer, error) {
	t := r.t
	if officer, ok := t.officers[id]; ok {
		return &officer, nil
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	officer, ok := t.s.officers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &officer, nil
}

func (r officerRepo) List(_ context.Context, departmentID *string, activeOnly bool) ([]domain.Officer, error) {
	t := r.t
	merged := make(map[string]domain.Officer)
	t.s.mu.Lock()
	for id, officer := range t.s.officers {
		merged[id] = officer
	}
	t.s.mu.Unlock()
	for id, officer := range t.officers {
		merged[id] = officer
	}

	var out []domain.Officer
	for _, officer := range merged {
		if departmentID != nil && officer.DepartmentID != *departmentID {
			continue
		}
		if activeOnly && !officer.Active {
			continue
		}
		out = append(out, officer)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type citizenRepo struct{ t *txn }

func (r citizenRepo) Create(ctx context.Context, citizen *domain.Citizen) error {
	t := r.t
	if _, err := r.GetByPhone(ctx, citizen.Phone); err == nil {
		return fmt.Errorf("%w: %s", repository.ErrDuplicateCitizen, citizen.Phone)
	}
	citizen.ID = uuid.NewString()
	citizen.CreatedAt = t.now()
	t.citizens[citizen.Phone] = *citizen
	return t.flush()
}

func (r citizenRepo) GetByID(_ context.Context, id string) (*domain.Citizen, error) {
	t := r.t
	for _, citizen := range t.citizens {
		if citizen.ID == id {
			return &citizen, nil
		}
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, citizen := range t.s.citizens {
		if citizen.ID == id {
			return &citizen, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r citizenRepo) GetByPhone(_ context.Context, phone string) (*domain.Citizen, error) {
	t := r.t
	if citizen, ok := t.citizens[phone]; ok {
		return &citizen, nil
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	citizen, ok := t.s.citizens[phone]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &citizen, nil
}
