package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"messmate/config"
	"messmate/logger"
	"messmate/models"
	"messmate/services"
	"messmate/store"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Users  []seedUser `yaml:"users"`
	Messes []seedMess `yaml:"messes"`
}

type seedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type seedMess struct {
	Name         string         `yaml:"name"`
	Location     string         `yaml:"location"`
	Mobile       string         `yaml:"mobile"`
	Email        string         `yaml:"email"`
	PriceRange   string         `yaml:"price_range"`
	DeliveryTime string         `yaml:"delivery_time"`
	Distance     string         `yaml:"distance"`
	Offer        string         `yaml:"offer"`
	OwnerEmail   string         `yaml:"owner_email"`
	Menu         []seedMenuItem `yaml:"menu"`
}

type seedMenuItem struct {
	Name        string  `yaml:"name"`
	Price       float64 `yaml:"price"`
	Image       string  `yaml:"image"`
	Description string  `yaml:"description"`
	IsVeg       *bool   `yaml:"isVeg"`
	Type        string  `yaml:"type"`
	Category    string  `yaml:"category"`
}

func (i seedMenuItem) menuItem() models.MenuItem {
	item := models.MenuItem{
		Name:        strings.TrimSpace(i.Name),
		Price:       i.Price,
		Image:       i.Image,
		Description: i.Description,
		IsVeg:       true,
		Type:        i.Type,
		Category:    i.Category,
	}
	if i.IsVeg != nil {
		item.IsVeg = *i.IsVeg
	}
	return item
}

func newSeedCmd(envFile *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load users and messes from a YAML fixture",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), *envFile, file)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "fixture file")
	return cmd
}

func runSeed(ctx context.Context, envFile, file string) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var fixture seedFile
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	users, messes, err := seed(ctx, a.store, a.services, fixture, log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"users": users, "messes": messes}).Info("seed complete")
	return nil
}

// seed inserts the fixture, skipping users and messes that already exist.
func seed(ctx context.Context, st store.Store, svc *services.Registry, fixture seedFile, log *logrus.Logger) (int, int, error) {
	users := 0
	for _, u := range fixture.Users {
		role := u.Role
		if role == "" {
			role = models.RoleStudent
		}
		_, err := svc.Auth.CreateUser(ctx, u.Name, u.Email, u.Password, role)
		if services.KindOf(err) == services.KindConflict {
			log.WithField("email", u.Email).Info("user exists, skipped")
			continue
		}
		if err != nil {
			return users, 0, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		users++
	}

	messes := 0
	for _, m := range fixture.Messes {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			return users, messes, errors.New("seed mess: name is required")
		}
		if _, err := st.FindMessByName(ctx, name); err == nil {
			log.WithField("name", name).Info("mess exists, skipped")
			continue
		} else if !errors.Is(err, store.ErrNotFound) {
			return users, messes, err
		}

		mess := models.Mess{
			Name:         name,
			Location:     m.Location,
			Mobile:       m.Mobile,
			Email:        m.Email,
			PriceRange:   m.PriceRange,
			DeliveryTime: m.DeliveryTime,
			Distance:     m.Distance,
			Offer:        m.Offer,
			Menu:         models.NewMenu(),
		}
		if mess.DeliveryTime == "" {
			mess.DeliveryTime = models.DefaultDeliveryTime
		}
		for _, item := range m.Menu {
			mess.Menu.Items = append(mess.Menu.Items, item.menuItem())
		}
		if m.OwnerEmail != "" {
			owner, err := st.FindUserByIdentifier(ctx, m.OwnerEmail)
			if err != nil {
				return users, messes, fmt.Errorf("seed mess %s: owner %s: %w", name, m.OwnerEmail, err)
			}
			mess.OwnerID = owner.ID
		}

		id, err := st.NextMessID(ctx)
		if err != nil {
			return users, messes, err
		}
		mess.MessID = id
		if _, err := st.CreateMess(ctx, mess); err != nil {
			return users, messes, fmt.Errorf("seed mess %s: %w", name, err)
		}
		messes++
	}

	if messes > 0 {
		svc.Pool.Invalidate(ctx)
	}
	return users, messes, nil
}
