package memory

import (
	"context"

	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository"
)

type userRepo struct{ base }

func (r userRepo) Create(ctx context.Context, u models.User) (*models.User, error) {
	err := r.do(ctx, func(st *state) error {
		for _, existing := range st.users {
			if existing.Username == u.Username {
				return repository.ErrUsernameTaken
			}
			if existing.Email == u.Email {
				return repository.ErrEmailTaken
			}
		}
		u.ID = st.next("users")
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var out *models.User
	err := r.do(ctx, func(st *state) error {
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var out *models.User
	err := r.do(ctx, func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

type propertyRepo struct{ base }

func (r propertyRepo) Create(ctx context.Context, p models.Property) (*models.Property, error) {
	err := r.do(ctx, func(st *state) error {
		p.ID = st.next("properties")
		st.properties[p.ID] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r propertyRepo) GetByID(ctx context.Context, id int64) (*models.Property, error) {
	var out *models.Property
	err := r.do(ctx, func(st *state) error {
		if p, ok := st.properties[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions already hold the store mutex.
func (r propertyRepo) GetForUpdate(ctx context.Context, id int64) (*models.Property, error) {
	return r.GetByID(ctx, id)
}

func (r propertyRepo) ListByHomeowner(ctx context.Context, homeownerID int64) ([]models.Property, error) {
	var out []models.Property
	err := r.do(ctx, func(st *state) error {
		out = ordered(st.properties, func(p models.Property) bool { return p.HomeownerID == homeownerID })
		return nil
	})
	return out, err
}

func (r propertyRepo) Update(ctx context.Context, p models.Property) error {
	return r.do(ctx, func(st *state) error {
		cur, ok := st.properties[p.ID]
		if !ok {
			return nil
		}
		p.HomeownerID = cur.HomeownerID
		p.RoomsAvailable = cur.RoomsAvailable
		p.Visible = cur.Visible
		st.properties[p.ID] = p
		return nil
	})
}

func (r propertyRepo) SetAvailability(ctx context.Context, id int64, roomsAvailable int, visible bool) error {
	return r.do(ctx, func(st *state) error {
		p, ok := st.properties[id]
		if !ok {
			return nil
		}
		p.RoomsAvailable = roomsAvailable
		p.Visible = visible
		st.properties[id] = p
		return nil
	})
}

func (r propertyRepo) Delete(ctx context.Context, id int64) error {
	return r.do(ctx, func(st *state) error {
		delete(st.properties, id)
		for vid, v := range st.visits {
			if v.PropertyID == id {
				delete(st.visits, vid)
			}
		}
		for lid, l := range st.leases {
			if l.PropertyID == id {
				delete(st.leases, lid)
			}
		}
		for mid, m := range st.maintenance {
			if m.PropertyID == id {
				delete(st.maintenance, mid)
			}
		}
		for k := range st.bookmarks {
			if k.propertyID == id {
				delete(st.bookmarks, k)
			}
		}
		return nil
	})
}

func (r propertyRepo) Search(ctx context.Context, f models.PropertySearch) ([]models.Property, error) {
	var out []models.Property
	err := r.do(ctx, func(st *state) error {
		leased := map[int64]bool{}
		for _, l := range st.leases {
			if l.TenantID == f.StudentID && l.IsActive() {
				leased[l.PropertyID] = true
			}
		}
		out = ordered(st.properties, func(p models.Property) bool {
			switch {
			case !p.Visible, p.State != f.State, leased[p.ID]:
				return false
			case f.City != "" && !containsFold(p.City, f.City):
				return false
			case f.Bedrooms != nil && p.Bedrooms != *f.Bedrooms:
				return false
			}
			return true
		})
		return nil
	})
	return out, err
}

type bookmarkRepo struct{ base }

func (r bookmarkRepo) Exists(ctx context.Context, studentID, propertyID int64) (bool, error) {
	var ok bool
	err := r.do(ctx, func(st *state) error {
		_, ok = st.bookmarks[bookmarkKey{studentID, propertyID}]
		return nil
	})
	return ok, err
}

func (r bookmarkRepo) Add(ctx context.Context, studentID, propertyID int64) error {
	return r.do(ctx, func(st *state) error {
		k := bookmarkKey{studentID, propertyID}
		if _, ok := st.bookmarks[k]; !ok {
			st.bookmarks[k] = st.next("bookmarks")
		}
		return nil
	})
}

func (r bookmarkRepo) Remove(ctx context.Context, studentID, propertyID int64) error {
	return r.do(ctx, func(st *state) error {
		delete(st.bookmarks, bookmarkKey{studentID, propertyID})
		return nil
	})
}

func (r bookmarkRepo) ListProperties(ctx context.Context, studentID int64) ([]models.Property, error) {
	var out []models.Property
	err := r.do(ctx, func(st *state) error {
		bySeq := map[int64]models.Property{}
		for k, seq := range st.bookmarks {
			if k.studentID != studentID {
				continue
			}
			if p, ok := st.properties[k.propertyID]; ok {
				bySeq[seq] = p
			}
		}
		out = ordered(bySeq, nil)
		return nil
	})
	return out, err
}
