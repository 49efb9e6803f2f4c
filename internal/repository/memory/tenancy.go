package memory

import (
	"cmp"
	"context"
	"slices"

	"github.com/lalith-99/dormlink/internal/models"
)

type visitRepo struct{ base }

func (r visitRepo) Create(ctx context.Context, v models.Visit) (*models.Visit, error) {
	err := r.do(ctx, func(st *state) error {
		v.ID = st.next("visits")
		if v.Status == "" {
			v.Status = models.StatusPending
		}
		st.visits[v.ID] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r visitRepo) GetByID(ctx context.Context, id int64) (*models.Visit, error) {
	var out *models.Visit
	err := r.do(ctx, func(st *state) error {
		if v, ok := st.visits[id]; ok {
			out = &v
		}
		return nil
	})
	return out, err
}

func (r visitRepo) SetStatus(ctx context.Context, id int64, status models.RequestStatus) error {
	return r.do(ctx, func(st *state) error {
		if v, ok := st.visits[id]; ok {
			v.Status = status
			st.visits[id] = v
		}
		return nil
	})
}

func (r visitRepo) HasAccepted(ctx context.Context, studentID, propertyID int64) (bool, error) {
	var found bool
	err := r.do(ctx, func(st *state) error {
		for _, v := range st.visits {
			if v.StudentID == studentID && v.PropertyID == propertyID && v.Status == models.StatusAccepted {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r visitRepo) ListForHomeowner(ctx context.Context, homeownerID int64) ([]models.VisitView, error) {
	var out []models.VisitView
	err := r.do(ctx, func(st *state) error {
		visits := ordered(st.visits, func(v models.Visit) bool { return v.HomeownerID == homeownerID })
		out = make([]models.VisitView, 0, len(visits))
		for _, v := range visits {
			out = append(out, st.visitView(v))
		}
		return nil
	})
	return out, err
}

func (r visitRepo) ListAccepted(ctx context.Context, userID int64) ([]models.VisitView, error) {
	var out []models.VisitView
	err := r.do(ctx, func(st *state) error {
		visits := ordered(st.visits, func(v models.Visit) bool {
			return v.Status == models.StatusAccepted && (v.StudentID == userID || v.HomeownerID == userID)
		})
		slices.SortStableFunc(visits, func(a, b models.Visit) int {
			return cmp.Or(cmp.Compare(a.Date, b.Date), cmp.Compare(a.Time, b.Time))
		})
		out = make([]models.VisitView, 0, len(visits))
		for _, v := range visits {
			out = append(out, st.visitView(v))
		}
		return nil
	})
	return out, err
}

func (r visitRepo) ListAcceptedStudents(ctx context.Context, propertyID int64) ([]models.User, error) {
	var out []models.User
	err := r.do(ctx, func(st *state) error {
		seen := map[int64]bool{}
		for _, v := range st.visits {
			if v.PropertyID == propertyID && v.Status == models.StatusAccepted {
				seen[v.StudentID] = true
			}
		}
		out = ordered(st.users, func(u models.User) bool { return seen[u.ID] })
		return nil
	})
	return out, err
}

func (st *state) visitView(v models.Visit) models.VisitView {
	return models.VisitView{
		Visit:           v,
		Address:         st.properties[v.PropertyID].Address,
		StudentUsername: st.username(v.StudentID),
	}
}

type leaseRepo struct{ base }

func (r leaseRepo) Create(ctx context.Context, l models.Lease) (*models.Lease, error) {
	err := r.do(ctx, func(st *state) error {
		l.ID = st.next("leases")
		if l.Status == "" {
			l.Status = models.LeaseActive
		}
		st.leases[l.ID] = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r leaseRepo) GetByID(ctx context.Context, id int64) (*models.Lease, error) {
	var out *models.Lease
	err := r.do(ctx, func(st *state) error {
		if l, ok := st.leases[id]; ok {
			out = &l
		}
		return nil
	})
	return out, err
}

func (r leaseRepo) SetStatus(ctx context.Context, id int64, status models.LeaseStatus) error {
	return r.do(ctx, func(st *state) error {
		if l, ok := st.leases[id]; ok {
			l.Status = status
			st.leases[id] = l
		}
		return nil
	})
}

func (r leaseRepo) CountActiveByProperty(ctx context.Context, propertyID int64) (int, error) {
	var n int
	err := r.do(ctx, func(st *state) error {
		for _, l := range st.leases {
			if l.PropertyID == propertyID && l.IsActive() {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r leaseRepo) ListActiveByProperty(ctx context.Context, propertyID int64) ([]models.Lease, error) {
	return r.list(ctx, func(l models.Lease) bool { return l.PropertyID == propertyID && l.IsActive() })
}

func (r leaseRepo) ListActiveByTenant(ctx context.Context, tenantID int64) ([]models.Lease, error) {
	return r.list(ctx, func(l models.Lease) bool { return l.TenantID == tenantID && l.IsActive() })
}

func (r leaseRepo) ListExpired(ctx context.Context, today string) ([]models.Lease, error) {
	return r.list(ctx, func(l models.Lease) bool { return l.IsActive() && l.EndDate < today })
}

func (r leaseRepo) list(ctx context.Context, keep func(models.Lease) bool) ([]models.Lease, error) {
	var out []models.Lease
	err := r.do(ctx, func(st *state) error {
		out = ordered(st.leases, keep)
		return nil
	})
	return out, err
}

type maintenanceRepo struct{ base }

func (r maintenanceRepo) Create(ctx context.Context, m models.MaintenanceRequest) (*models.MaintenanceRequest, error) {
	err := r.do(ctx, func(st *state) error {
		m.ID = st.next("maintenance")
		if m.Status == "" {
			m.Status = models.MaintenancePending
		}
		st.maintenance[m.ID] = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r maintenanceRepo) GetByID(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	var out *models.MaintenanceRequest
	err := r.do(ctx, func(st *state) error {
		if m, ok := st.maintenance[id]; ok {
			out = &m
		}
		return nil
	})
	return out, err
}

func (r maintenanceRepo) Resolve(ctx context.Context, id int64, resolutionDate string) error {
	return r.do(ctx, func(st *state) error {
		if m, ok := st.maintenance[id]; ok {
			m.Status = models.MaintenanceResolved
			m.ResolutionDate = resolutionDate
			st.maintenance[id] = m
		}
		return nil
	})
}

func (r maintenanceRepo) ListByProperty(ctx context.Context, propertyID int64) ([]models.MaintenanceRequest, error) {
	var out []models.MaintenanceRequest
	err := r.do(ctx, func(st *state) error {
		out = ordered(st.maintenance, func(m models.MaintenanceRequest) bool { return m.PropertyID == propertyID })
		return nil
	})
	return out, err
}

func (r maintenanceRepo) ListForTenant(ctx context.Context, tenantID int64) ([]models.MaintenanceRequest, error) {
	var out []models.MaintenanceRequest
	err := r.do(ctx, func(st *state) error {
		props := map[int64]bool{}
		for _, l := range st.leases {
			if l.TenantID == tenantID && l.IsActive() {
				props[l.PropertyID] = true
			}
		}
		out = ordered(st.maintenance, func(m models.MaintenanceRequest) bool { return props[m.PropertyID] })
		return nil
	})
	return out, err
}
