package workflow

import (
	"context"

	"github.com/lalith-99/dormlink/internal/apperr"
	"github.com/lalith-99/dormlink/internal/availability"
	"github.com/lalith-99/dormlink/internal/models"
	"github.com/lalith-99/dormlink/internal/repository"
	"github.com/lalith-99/dormlink/internal/session"
)

// ownedProperty loads and locks a property that must belong to homeownerID.
func ownedProperty(ctx context.Context, r repository.Repos, propertyID, homeownerID int64) (*models.Property, error) {
	p, err := r.Properties.GetForUpdate(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("property")
	}
	if p.HomeownerID != homeownerID {
		return nil, apperr.Forbidden("you do not own this property")
	}
	return p, nil
}

func (e *Engine) PostProperty(ctx context.Context, id session.Identity, in PropertyInput) (*models.Property, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}

	var out *models.Property
	err := e.transact(ctx, "post property", func(u *unit) error {
		p := models.Property{HomeownerID: id.UserID}
		in.apply(&p)
		p.RoomsAvailable, p.Visible = availability.RoomsAvailable(p.Bedrooms, 0)

		created, err := u.Properties.Create(ctx, p)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	return out, err
}

// EditProperty rewrites the descriptive fields and recomputes availability
// against the new bedroom count.
func (e *Engine) EditProperty(ctx context.Context, id session.Identity, propertyID int64, in PropertyInput) (*models.Property, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}

	var out *models.Property
	err := e.transact(ctx, "edit property", func(u *unit) error {
		p, err := ownedProperty(ctx, u.Repos, propertyID, id.UserID)
		if err != nil {
			return err
		}

		active, err := u.Leases.CountActiveByProperty(ctx, p.ID)
		if err != nil {
			return err
		}
		if in.Bedrooms < active {
			return apperr.Preconditionf("the property has %d active tenants, bedrooms cannot be fewer", active)
		}

		in.apply(p)
		if err := u.Properties.Update(ctx, *p); err != nil {
			return err
		}
		change, err := availability.RecomputeProperty(ctx, u.Repos, p.ID)
		if err != nil {
			return err
		}
		out = &change.Property
		return nil
	})
	return out, err
}

// TakeDownProperty deletes a listing. It is refused while tenants hold
// active leases; everything else hanging off the property goes with it.
func (e *Engine) TakeDownProperty(ctx context.Context, id session.Identity, propertyID int64) error {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return err
	}

	return e.transact(ctx, "take down property", func(u *unit) error {
		p, err := ownedProperty(ctx, u.Repos, propertyID, id.UserID)
		if err != nil {
			return err
		}
		active, err := u.Leases.CountActiveByProperty(ctx, p.ID)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperr.Precondition("terminate the active leases before removing this property")
		}
		return u.Properties.Delete(ctx, p.ID)
	})
}

func (e *Engine) ListMyProperties(ctx context.Context, id session.Identity) ([]models.Property, error) {
	if err := id.Require(models.RoleHomeowner); err != nil {
		return nil, err
	}
	props, err := e.store.Repos().Properties.ListByHomeowner(ctx, id.UserID)
	return read(e, "list properties", props, err)
}

// SearchProperties lists visible properties matching the filters, leaving
// out those the student already leases.
func (e *Engine) SearchProperties(ctx context.Context, id session.Identity, in SearchInput) ([]models.Property, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	if err := e.check(in); err != nil {
		return nil, err
	}
	props, err := e.store.Repos().Properties.Search(ctx, models.PropertySearch{
		StudentID: id.UserID,
		State:     in.State,
		City:      in.City,
		Bedrooms:  in.Bedrooms,
	})
	return read(e, "search properties", props, err)
}

// ToggleBookmark flips the bookmark and reports whether the property is
// bookmarked afterwards.
func (e *Engine) ToggleBookmark(ctx context.Context, id session.Identity, propertyID int64) (bool, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return false, err
	}

	var bookmarked bool
	err := e.transact(ctx, "toggle bookmark", func(u *unit) error {
		p, err := u.Properties.GetByID(ctx, propertyID)
		if err != nil {
			return err
		}
		if p == nil {
			return apperr.NotFound("property")
		}

		exists, err := u.Bookmarks.Exists(ctx, id.UserID, propertyID)
		if err != nil {
			return err
		}
		if exists {
			return u.Bookmarks.Remove(ctx, id.UserID, propertyID)
		}
		bookmarked = true
		return u.Bookmarks.Add(ctx, id.UserID, propertyID)
	})
	return bookmarked, err
}

func (e *Engine) ListBookmarks(ctx context.Context, id session.Identity) ([]models.Property, error) {
	if err := id.Require(models.RoleStudent); err != nil {
		return nil, err
	}
	props, err := e.store.Repos().Bookmarks.ListProperties(ctx, id.UserID)
	return read(e, "list bookmarks", props, err)
}
