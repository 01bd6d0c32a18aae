package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

const (
	TypeVeg    = "veg"
	TypeNonVeg = "non-veg"

	DefaultCategory = "other"
	DefaultImage    = "default.png"
)

var ErrInvalidMenu = errors.New("invalid menu format")

type MenuItem struct {
	Name        string  `bson:"name" json:"name"`
	Price       float64 `bson:"price" json:"price"`
	Image       string  `bson:"image,omitempty" json:"image,omitempty"`
	Description string  `bson:"description,omitempty" json:"description,omitempty"`
	IsVeg       bool    `bson:"isVeg" json:"isVeg"`
	Type        string  `bson:"type,omitempty" json:"type,omitempty"`
	Category    string  `bson:"category,omitempty" json:"category,omitempty"`
	Rating      float64 `bson:"rating,omitempty" json:"rating,omitempty"`
}

// ResolvedType is the explicit type of the item, else the one implied by IsVeg.
func (i MenuItem) ResolvedType() string {
	if i.Type != "" {
		return i.Type
	}
	if i.IsVeg {
		return TypeVeg
	}
	return TypeNonVeg
}

func (i MenuItem) ResolvedCategory() string {
	if i.Category != "" {
		return i.Category
	}
	return DefaultCategory
}

// UnmarshalJSON accepts loosely typed client payloads: prices may arrive as
// strings and a missing isVeg means vegetarian.
func (i *MenuItem) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return ErrInvalidMenu
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return fmt.Errorf("%w: menu item must be an object", ErrInvalidMenu)
	}
	*i = menuItemFromResult(res)
	return nil
}

func menuItemFromResult(res gjson.Result) MenuItem {
	item := MenuItem{
		Name:        strings.TrimSpace(res.Get("name").String()),
		Price:       res.Get("price").Float(),
		Image:       res.Get("image").String(),
		Description: res.Get("description").String(),
		IsVeg:       true,
		Type:        res.Get("type").String(),
		Category:    res.Get("category").String(),
		Rating:      res.Get("rating").Float(),
	}
	if v := res.Get("isVeg"); v.Exists() && v.Type != gjson.Null {
		item.IsVeg = v.Bool()
	}
	return item
}

// Menu is the canonical {items: [...]} shape. Both decoders also accept the
// historical layouts: a bare array of items and an array of {items: [...]}
// sub-lists, which are concatenated in order.
type Menu struct {
	Items []MenuItem `bson:"items" json:"items"`
}

func NewMenu(items ...MenuItem) Menu {
	return Menu{Items: append([]MenuItem{}, items...)}
}

// Canonical returns a copy whose item list is never nil.
func (m Menu) Canonical() Menu {
	return NewMenu(m.Items...)
}

// FindItem returns the first item whose name matches case-insensitively.
func (m Menu) FindItem(name string) (MenuItem, bool) {
	name = strings.TrimSpace(name)
	for _, item := range m.Items {
		if strings.EqualFold(strings.TrimSpace(item.Name), name) {
			return item, true
		}
	}
	return MenuItem{}, false
}

func (m Menu) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Items []MenuItem `json:"items"`
	}{Items: m.Canonical().Items})
}

func (m *Menu) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMenu(data)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMenu decodes a menu payload in any supported shape. A JSON string
// holding a menu document (as sent in multipart forms) is unwrapped first.
func ParseMenu(data []byte) (Menu, error) {
	if !gjson.ValidBytes(data) {
		return Menu{}, ErrInvalidMenu
	}
	return menuFromResult(gjson.ParseBytes(data), 0)
}

func menuFromResult(res gjson.Result, depth int) (Menu, error) {
	menu := NewMenu()
	switch {
	case res.Type == gjson.Null:
		return menu, nil
	case res.Type == gjson.String:
		if depth > 0 || !gjson.Valid(res.Str) {
			return Menu{}, ErrInvalidMenu
		}
		return menuFromResult(gjson.Parse(res.Str), depth+1)
	case res.IsArray():
		for _, entry := range res.Array() {
			if !entry.IsObject() {
				return Menu{}, fmt.Errorf("%w: menu entries must be objects", ErrInvalidMenu)
			}
			if sub := entry.Get("items"); sub.IsArray() {
				items, err := itemsFromArray(sub)
				if err != nil {
					return Menu{}, err
				}
				menu.Items = append(menu.Items, items...)
				continue
			}
			menu.Items = append(menu.Items, menuItemFromResult(entry))
		}
		return menu, nil
	case res.IsObject():
		items := res.Get("items")
		if !items.IsArray() {
			return Menu{}, fmt.Errorf("%w: menu items missing", ErrInvalidMenu)
		}
		parsed, err := itemsFromArray(items)
		if err != nil {
			return Menu{}, err
		}
		menu.Items = append(menu.Items, parsed...)
		return menu, nil
	}
	return Menu{}, ErrInvalidMenu
}

func itemsFromArray(arr gjson.Result) ([]MenuItem, error) {
	var items []MenuItem
	for _, entry := range arr.Array() {
		if !entry.IsObject() {
			return nil, fmt.Errorf("%w: menu items must be objects", ErrInvalidMenu)
		}
		items = append(items, menuItemFromResult(entry))
	}
	return items, nil
}

// UnmarshalBSONValue normalizes stored menus written by older versions of the
// catalog into the canonical shape.
func (m *Menu) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*m = NewMenu()
		return nil
	case bsontype.EmbeddedDocument:
		var doc struct {
			Items []MenuItem `bson:"items"`
		}
		if err := bson.Unmarshal(data, &doc); err != nil {
			return err
		}
		*m = NewMenu(doc.Items...)
		return nil
	case bsontype.Array:
		values, err := bson.Raw(data).Values()
		if err != nil {
			return err
		}
		menu := NewMenu()
		for _, value := range values {
			doc, ok := value.DocumentOK()
			if !ok {
				return fmt.Errorf("menu: unexpected %s entry", value.Type)
			}
			if sub, err := doc.LookupErr("items"); err == nil && sub.Type == bsontype.Array {
				var nested []MenuItem
				if err := sub.Unmarshal(&nested); err != nil {
					return err
				}
				menu.Items = append(menu.Items, nested...)
				continue
			}
			var item MenuItem
			if err := bson.Unmarshal(doc, &item); err != nil {
				return err
			}
			menu.Items = append(menu.Items, item)
		}
		*m = menu
		return nil
	}
	return fmt.Errorf("menu: unsupported bson type %s", t)
}
