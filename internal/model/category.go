package model

// Category classifies an Item. The set is closed.
type Category string

// Known categories, in display order. The first one is the default.
const (
	CategoryHerramientas Category = "Herramientas"
	CategoryElectricidad Category = "Electricidad"
	CategoryPlomeria     Category = "Plomería"
	CategoryPinturas     Category = "Pinturas"
	CategoryConstruccion Category = "Construcción"
	CategorySeguridad    Category = "Seguridad"
	CategoryJardineria   Category = "Jardinería"
	CategoryAdhesivos    Category = "Adhesivos/Selladores"
	CategoryTornilleria  Category = "Tornillería/Fijaciones"
	CategoryMedicion     Category = "Medición/Nivelación"
	CategoryOtros        Category = "Otros"
)

var categories = []Category{
	CategoryHerramientas,
	CategoryElectricidad,
	CategoryPlomeria,
	CategoryPinturas,
	CategoryConstruccion,
	CategorySeguridad,
	CategoryJardineria,
	CategoryAdhesivos,
	CategoryTornilleria,
	CategoryMedicion,
	CategoryOtros,
}

// Categories returns a copy of the category list in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// DefaultCategory is used when no category is given.
func DefaultCategory() Category {
	return categories[0]
}

// Valid reports whether c belongs to the closed set.
func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}
