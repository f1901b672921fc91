package workspace

import (
	"slices"

	"github.com/meltforce/fichatreino/internal/models"
)

// Cart is the ordered list of prescribed exercises. Order is insertion
// order and defines the ordinal shown on the ficha. Not safe for
// concurrent use; the Session serializes access.
type Cart struct {
	entries []models.PrescribedExercise
	newID   func() string
}

func NewCart(newID func() string) *Cart {
	return &Cart{newID: newID}
}

// Add appends a new entry with a fresh id.
func (c *Cart) Add(name string, d models.Dosage, img *models.Image) models.PrescribedExercise {
	id := c.newID()
	for c.index(id) >= 0 {
		id = c.newID()
	}
	entry := models.PrescribedExercise{ID: id, Name: name, Dosage: d, Image: img}
	c.entries = append(c.entries, entry)
	return entry
}

// Update replaces the dosage of the entry with id, keeping its id, name,
// image and position.
func (c *Cart) Update(id string, d models.Dosage) (models.PrescribedExercise, bool) {
	i := c.index(id)
	if i < 0 {
		return models.PrescribedExercise{}, false
	}
	c.entries[i].Dosage = d
	return c.entries[i], true
}

// Remove deletes the entry with id. Unknown ids are a no-op.
func (c *Cart) Remove(id string) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.entries = slices.Delete(c.entries, i, i+1)
	return true
}

func (c *Cart) Get(id string) (models.PrescribedExercise, bool) {
	i := c.index(id)
	if i < 0 {
		return models.PrescribedExercise{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of the cart in workout order.
func (c *Cart) Entries() []models.PrescribedExercise {
	out := make([]models.PrescribedExercise, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Cart) Len() int { return len(c.entries) }

func (c *Cart) index(id string) int {
	return slices.IndexFunc(c.entries, func(e models.PrescribedExercise) bool {
		return e.ID == id
	})
}
