package store

import (
	"fmt"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
)

// DemoItems returns a small sample inventory.
func DemoItems() []model.ItemInput {
	return []model.ItemInput{
		{Name: "Martillo de uña 16 oz", Category: model.CategoryHerramientas, UnitPrice: 9.50, Stock: 12},
		{Name: "Broca 1/4\" HSS", Category: model.CategoryTornilleria, UnitPrice: 1.25, Stock: 60},
		{Name: "Teflón 1/2\" x 10m", Category: model.CategoryPlomeria, UnitPrice: 0.80, Stock: 40},
		{Name: "Cinta aislante 18mm", Category: model.CategoryElectricidad, UnitPrice: 0.90, Stock: 50},
		{Name: "Pintura látex 1 galón blanco", Category: model.CategoryPinturas, UnitPrice: 16.75, Stock: 8},
		{Name: "Nivel 24\"", Category: model.CategoryMedicion, UnitPrice: 7.90, Stock: 6},
	}
}

// Seed adds every input through s.Add and returns the created items.
// It stops at the first rejected input.
func Seed(s Store, inputs []model.ItemInput) ([]model.Item, error) {
	created := make([]model.Item, 0, len(inputs))
	for i, input := range inputs {
		item, err := s.Add(input)
		if err != nil {
			return created, fmt.Errorf("seed item %d: %w", i, err)
		}
		created = append(created, item)
	}
	return created, nil
}
