package services

import (
	"context"
	"errors"
	"strings"

	"messmate/models"
	"messmate/store"

	"github.com/sirupsen/logrus"
)

const menuUpdateAttempts = 3

type MessInput struct {
	Name         string       `json:"name" validate:"required"`
	Location     string       `json:"location" validate:"required"`
	Mobile       string       `json:"mobile"`
	Email        string       `json:"email" validate:"omitempty,email"`
	PriceRange   string       `json:"price_range"`
	DeliveryTime string       `json:"delivery_time"`
	Distance     string       `json:"distance"`
	Offer        string       `json:"offer"`
	Menu         *models.Menu `json:"menu"`
}

// MenuItemInput is a single dish added to an existing menu.
type MenuItemInput struct {
	Name        string   `json:"name" validate:"required"`
	Price       float64  `json:"price" validate:"gte=0"`
	Image       string   `json:"image"`
	Description string   `json:"description"`
	IsVeg       *bool    `json:"isVeg"`
	Type        string   `json:"type" validate:"omitempty,oneof=veg non-veg"`
	Category    string   `json:"category"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

type CatalogService struct {
	messes store.Messes
	pool   *CandidatePool
	log    *logrus.Logger
}

func NewCatalogService(messes store.Messes, pool *CandidatePool, log *logrus.Logger) *CatalogService {
	return &CatalogService{messes: messes, pool: pool, log: log}
}

func (s *CatalogService) ListMesses(ctx context.Context) ([]models.Mess, error) {
	messes, err := s.messes.ListMesses(ctx)
	if err != nil {
		return nil, Internal("Failed to fetch messes", err)
	}
	return messes, nil
}

func (s *CatalogService) ListMine(ctx context.Context, actor Actor) ([]models.Mess, error) {
	if actor.Role != models.RoleOwner && !actor.IsAdmin() {
		return nil, Forbidden("Only owners have messes.")
	}
	messes, err := s.messes.ListMessesByOwner(ctx, actor.UserID)
	if err != nil {
		return nil, Internal("Failed to fetch messes", err)
	}
	return messes, nil
}

func (s *CatalogService) GetMess(ctx context.Context, messID int64) (models.Mess, error) {
	mess, err := s.messes.GetMessByMessID(ctx, messID)
	if errors.Is(err, store.ErrNotFound) {
		return models.Mess{}, NotFound("Mess not found")
	}
	if err != nil {
		return models.Mess{}, Internal("Failed to fetch mess", err)
	}
	return mess, nil
}

// CreateMess registers a mess owned by the calling owner under the next
// sequential mess id.
func (s *CatalogService) CreateMess(ctx context.Context, actor Actor, in MessInput) (models.Mess, error) {
	if actor.Role != models.RoleOwner {
		return models.Mess{}, Forbidden("Only owners can add messes.")
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	if err := validateInput(in); err != nil {
		return models.Mess{}, err
	}
	if err := s.ensureNameFree(ctx, in.Name, 0); err != nil {
		return models.Mess{}, err
	}

	messID, err := s.messes.NextMessID(ctx)
	if err != nil {
		return models.Mess{}, Internal("Failed to create mess", err)
	}
	mess := models.Mess{
		MessID:       messID,
		Name:         in.Name,
		Location:     in.Location,
		Mobile:       in.Mobile,
		Email:        in.Email,
		PriceRange:   in.PriceRange,
		DeliveryTime: in.DeliveryTime,
		Distance:     in.Distance,
		Offer:        in.Offer,
		OwnerID:      actor.UserID,
		Menu:         models.NewMenu(),
	}
	if in.Menu != nil {
		mess.Menu = in.Menu.Canonical()
	}

	created, err := s.messes.CreateMess(ctx, mess)
	if errors.Is(err, store.ErrDuplicate) {
		return models.Mess{}, Conflict("Mess id already taken, retry", err)
	}
	if err != nil {
		return models.Mess{}, Internal("Failed to create mess", err)
	}
	s.catalogChanged(ctx)
	s.log.WithFields(logrus.Fields{"mess_id": created.MessID, "owner_id": actor.UserID.Hex()}).Info("mess created")
	return created, nil
}

func (s *CatalogService) ensureNameFree(ctx context.Context, name string, self int64) error {
	return ensureNameFree(ctx, s.messes, name, self)
}

// ensureNameFree fails with Conflict when a mess other than self already
// uses name.
func ensureNameFree(ctx context.Context, messes store.Messes, name string, self int64) error {
	existing, err := messes.FindMessByName(ctx, name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return Internal("Failed to check mess name", err)
	case existing.MessID != self:
		return Conflict("Mess with this name already exists.", store.ErrDuplicate)
	}
	return nil
}

// authorizedMess loads a mess the actor may modify: its owner or an admin.
func (s *CatalogService) authorizedMess(ctx context.Context, actor Actor, messID int64) (models.Mess, error) {
	mess, err := s.GetMess(ctx, messID)
	if err != nil {
		return models.Mess{}, err
	}
	if !actor.IsAdmin() && !mess.OwnedBy(actor.UserID) {
		return models.Mess{}, Forbidden("Not authorized to modify this mess.")
	}
	return mess, nil
}

func (s *CatalogService) UpdateMess(ctx context.Context, actor Actor, messID int64, details models.MessDetails) (models.Mess, error) {
	if _, err := s.authorizedMess(ctx, actor, messID); err != nil {
		return models.Mess{}, err
	}
	if details.Empty() {
		return models.Mess{}, InvalidInput("Nothing to update")
	}
	if details.Name != nil {
		name := strings.TrimSpace(*details.Name)
		if name == "" {
			return models.Mess{}, InvalidInput("name is required")
		}
		details.Name = &name
		if err := s.ensureNameFree(ctx, name, messID); err != nil {
			return models.Mess{}, err
		}
	}

	updated, err := s.messes.UpdateMessDetails(ctx, messID, details)
	if errors.Is(err, store.ErrNotFound) {
		return models.Mess{}, NotFound("Mess not found")
	}
	if err != nil {
		return models.Mess{}, Internal("Failed to update mess", err)
	}
	s.catalogChanged(ctx)
	return updated, nil
}

func (s *CatalogService) DeleteMess(ctx context.Context, actor Actor, messID int64) error {
	if _, err := s.authorizedMess(ctx, actor, messID); err != nil {
		return err
	}
	err := s.messes.DeleteMess(ctx, messID)
	if errors.Is(err, store.ErrNotFound) {
		return NotFound("Mess not found")
	}
	if err != nil {
		return Internal("Failed to delete mess", err)
	}
	s.catalogChanged(ctx)
	s.log.WithFields(logrus.Fields{"mess_id": messID, "by": actor.UserID.Hex()}).Info("mess deleted")
	return nil
}

func (s *CatalogService) AddMenuItem(ctx context.Context, actor Actor, messID int64, in MenuItemInput) (models.Menu, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return models.Menu{}, err
	}
	item := models.MenuItem{
		Name:        in.Name,
		Price:       in.Price,
		Image:       in.Image,
		Description: in.Description,
		IsVeg:       true,
		Type:        in.Type,
		Category:    in.Category,
	}
	if in.IsVeg != nil {
		item.IsVeg = *in.IsVeg
	}
	if in.Rating != nil {
		item.Rating = *in.Rating
	}
	return s.mutateMenu(ctx, actor, messID, func(menu models.Menu) (models.Menu, error) {
		menu.Items = append(menu.Items, item)
		return menu, nil
	})
}

func (s *CatalogService) ReplaceMenu(ctx context.Context, actor Actor, messID int64, menu *models.Menu) (models.Menu, error) {
	if menu == nil {
		return models.Menu{}, InvalidInput("Invalid format, send either { menu: [ ... ] } or { menu: { items: [ ... ] } }")
	}
	for _, item := range menu.Items {
		if strings.TrimSpace(item.Name) == "" {
			return models.Menu{}, InvalidInput("Every menu item needs a name")
		}
	}
	replacement := menu.Canonical()
	return s.mutateMenu(ctx, actor, messID, func(models.Menu) (models.Menu, error) {
		return replacement, nil
	})
}

func (s *CatalogService) DeleteMenuItem(ctx context.Context, actor Actor, messID int64, index int) (models.Menu, error) {
	return s.mutateMenu(ctx, actor, messID, func(menu models.Menu) (models.Menu, error) {
		if index < 0 || index >= len(menu.Items) {
			return models.Menu{}, NotFound("Menu item not found")
		}
		menu.Items = append(menu.Items[:index], menu.Items[index+1:]...)
		return menu, nil
	})
}

// mutateMenu applies change to the current menu and stores it with a
// compare-and-swap on the mess version, re-reading on conflict.
func (s *CatalogService) mutateMenu(ctx context.Context, actor Actor, messID int64, change func(models.Menu) (models.Menu, error)) (models.Menu, error) {
	var lastErr error
	for attempt := 0; attempt < menuUpdateAttempts; attempt++ {
		mess, err := s.authorizedMess(ctx, actor, messID)
		if err != nil {
			return models.Menu{}, err
		}
		next, err := change(mess.Menu.Canonical())
		if err != nil {
			return models.Menu{}, err
		}

		updated, err := s.messes.ReplaceMenu(ctx, messID, mess.Version, next)
		if errors.Is(err, store.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if errors.Is(err, store.ErrNotFound) {
			return models.Menu{}, NotFound("Mess not found")
		}
		if err != nil {
			return models.Menu{}, Internal("Failed to update menu", err)
		}
		s.catalogChanged(ctx)
		return updated.Menu.Canonical(), nil
	}
	s.log.WithField("mess_id", messID).Warn("menu update gave up after repeated version conflicts")
	return models.Menu{}, Conflict("Menu was changed concurrently, please retry", lastErr)
}

func (s *CatalogService) catalogChanged(ctx context.Context) {
	if s.pool != nil {
		s.pool.Invalidate(ctx)
	}
}
