package models

const (
	DefaultDishName        = "Unnamed Dish"
	DefaultDishRating      = 4.0
	DefaultDishDescription = "Delicious food you'll love!"
)

// FoodCandidate is one menu item flattened with the mess that serves it.
type FoodCandidate struct {
	Name        string  `json:"name"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	Rating      float64 `json:"rating"`
	Description string  `json:"description"`
	MessName    string  `json:"mess_name"`
	MessID      MessRef `json:"mess_id"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
}

// CandidatesFor flattens the menu of m into recommendation candidates.
func CandidatesFor(m Mess) []FoodCandidate {
	var out []FoodCandidate
	for _, item := range m.Menu.Items {
		c := FoodCandidate{
			Name:        item.Name,
			Image:       item.Image,
			Price:       item.Price,
			Rating:      item.Rating,
			Description: item.Description,
			MessName:    m.Name,
			MessID:      m.Ref(),
			Type:        item.ResolvedType(),
			Category:    item.ResolvedCategory(),
		}
		if c.Name == "" {
			c.Name = DefaultDishName
		}
		if c.Image == "" {
			c.Image = DefaultImage
		}
		if c.Rating == 0 {
			c.Rating = DefaultDishRating
		}
		if c.Description == "" {
			c.Description = DefaultDishDescription
		}
		out = append(out, c)
	}
	return out
}
