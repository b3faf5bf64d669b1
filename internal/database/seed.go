package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// seedCategory is one row of the development category tree. Parents are
// listed before their children.
type seedCategory struct {
	path  string
	names map[string]string
}

var seedCategories = []seedCategory{
	{"vehicles", map[string]string{"en": "Vehicles", "ro": "Transport", "ru": "Транспорт"}},
	{"vehicles/cars", map[string]string{"en": "Cars", "ro": "Autoturisme", "ru": "Легковые автомобили"}},
	{"vehicles/motorcycles", map[string]string{"en": "Motorcycles", "ro": "Motociclete", "ru": "Мотоциклы"}},
	{"real-estate", map[string]string{"en": "Real estate", "ro": "Imobiliare", "ru": "Недвижимость"}},
	{"real-estate/apartments", map[string]string{"en": "Apartments", "ro": "Apartamente", "ru": "Квартиры"}},
	{"real-estate/houses", map[string]string{"en": "Houses", "ro": "Case", "ru": "Дома"}},
	{"electronics", map[string]string{"en": "Electronics", "ro": "Electronice", "ru": "Электроника"}},
	{"electronics/phones", map[string]string{"en": "Phones", "ro": "Telefoane", "ru": "Телефоны"}},
	{"electronics/tv-audio", map[string]string{"en": "TV & audio", "ro": "TV și audio", "ru": "ТВ и аудио"}},
	{"fashion", map[string]string{"en": "Fashion", "ro": "Modă", "ru": "Мода"}},
	{"fashion/clothing", map[string]string{"en": "Clothing", "ro": "Îmbrăcăminte", "ru": "Одежда"}},
	{"jobs", map[string]string{"en": "Jobs", "ro": "Locuri de muncă", "ru": "Работа"}},
	{"jobs/vacancies", map[string]string{"en": "Vacancies", "ro": "Posturi vacante", "ru": "Вакансии"}},
	{"home-garden", map[string]string{"en": "Home & garden", "ro": "Casă și grădină", "ru": "Дом и сад"}},
	{"home-garden/furniture", map[string]string{"en": "Furniture", "ro": "Mobilă", "ru": "Мебель"}},
	{"hobby", map[string]string{"en": "Hobby", "ro": "Hobby", "ru": "Хобби"}},
	{"hobby/books", map[string]string{"en": "Books", "ro": "Cărți", "ru": "Книги"}},
}

// seedReference is one reference-data row.
type seedReference struct {
	source, id, parent, name string
}

var seedReferences = []seedReference{
	{"vehicle-makes", "audi-1", "", "Audi"},
	{"vehicle-makes", "bmw-1", "", "BMW"},
	{"vehicle-models", "a4-1", "audi-1", "A4"},
	{"vehicle-models", "a6-1", "audi-1", "A6"},
	{"vehicle-models", "x5-1", "bmw-1", "X5"},
	{"vehicle-colors", "black", "", "Black"},
	{"vehicle-colors", "white", "", "White"},
	{"vehicle-colors", "silver", "", "Silver"},
	{"device-brands", "apple", "", "Apple"},
	{"device-brands", "samsung", "", "Samsung"},
	{"device-models", "iphone-15", "apple", "iPhone 15"},
	{"device-models", "galaxy-s24", "samsung", "Galaxy S24"},
	{"property-types", "apartment", "", "Apartment"},
	{"property-types", "house", "", "House"},
	{"epc-ratings", "a", "", "A"},
	{"epc-ratings", "b", "", "B"},
	{"epc-ratings", "c", "", "C"},
	{"epc-ratings", "d", "", "D"},
	{"job-categories", "it", "", "IT & software"},
	{"job-categories", "sales", "", "Sales"},
	{"contract-types", "permanent", "", "Permanent"},
	{"contract-types", "fixed-term", "", "Fixed term"},
	{"cp-codes", "200", "", "CP 200"},
	{"cp-codes", "124", "", "CP 124"},
}

// furnitureFields and furnitureSchema give the generic furniture category
// a catalog schema so schema-driven forms and filters work out of the box.
var furnitureFields = map[string]map[string]any{
	"furniture_type": {"name": "furniture_type", "type": "select", "label": "Type", "required": true,
		"options": []map[string]string{{"value": "sofa", "label": "Sofa"}, {"value": "table", "label": "Table"}, {"value": "wardrobe", "label": "Wardrobe"}}},
	"seats":        {"name": "seats", "type": "number", "label": "Seats", "min": 1, "max": 12, "integer": true, "conditional": map[string]any{"field": "furniture_type", "value": "sofa"}},
	"material":     {"name": "material", "type": "multiselect", "label": "Material", "options": []map[string]string{{"value": "wood", "label": "Wood"}, {"value": "metal", "label": "Metal"}, {"value": "fabric", "label": "Fabric"}}},
	"width_cm":     {"name": "width_cm", "type": "number", "label": "Width", "unit": "cm", "min": 0},
	"assembled":    {"name": "assembled", "type": "checkbox", "label": "Assembled"},
	"pickup_notes": {"name": "pickup_notes", "type": "textarea", "label": "Pickup notes"},
}

var furnitureSchema = map[string]any{
	"version": 1,
	"steps": []map[string]any{
		{"key": "details", "groups": []map[string]any{
			{"key": "main", "title_i18n_key": "catalog.group.main", "layout": "double", "fields": []map[string]any{
				{"field_key": "furniture_type"}, {"field_key": "seats"}, {"field_key": "material"},
			}},
		}},
		{"key": "more", "groups": []map[string]any{
			{"key": "size", "fields": []map[string]any{{"field_key": "width_cm", "min_value": 10, "max_value": 500}, {"field_key": "assembled"}}},
			{"key": "notes", "fields": []map[string]any{{"field_key": "pickup_notes", "optional": true}}},
		}},
	},
}

// Seed populates the database with initial development data: a seller
// account, the category tree, reference lists and one catalog schema.
// It does nothing once categories exist.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("seller"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO users (email, password_hash, display_name, verified, locale)
		VALUES ($1, $2, $3, TRUE, 'en')
		ON CONFLICT (email) DO NOTHING
	`, "seller@classifieds.local", string(hash), "Demo Seller")
	if err != nil {
		return fmt.Errorf("seed insert user: %w", err)
	}

	ids := make(map[string]string, len(seedCategories))
	for i, c := range seedCategories {
		names, _ := json.Marshal(c.names)
		parent, slug, level := splitPath(c.path)
		var parentID any
		if parent != "" {
			parentID = ids[parent]
		}
		var id string
		err := tx.QueryRow(`
			INSERT INTO categories (parent_id, slug, path, level, names, sort)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (path) DO UPDATE SET names = EXCLUDED.names
			RETURNING id
		`, parentID, slug, c.path, level, names, i).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.path, err)
		}
		ids[c.path] = id
	}

	for i, r := range seedReferences {
		names, _ := json.Marshal(map[string]string{"en": r.name})
		_, err := tx.Exec(`
			INSERT INTO reference_items (source, id, parent_id, names, sort)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (source, id) DO NOTHING
		`, r.source, r.id, r.parent, names, i)
		if err != nil {
			return fmt.Errorf("seed reference %s/%s: %w", r.source, r.id, err)
		}
	}

	for name, def := range furnitureFields {
		raw, _ := json.Marshal(def)
		_, err := tx.Exec(`
			INSERT INTO catalog_fields (name, definition) VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, name, raw)
		if err != nil {
			return fmt.Errorf("seed catalog field %s: %w", name, err)
		}
	}
	schema, _ := json.Marshal(furnitureSchema)
	_, err = tx.Exec(`
		INSERT INTO catalog_schemas (category_id, version, schema) VALUES ($1, 1, $2)
		ON CONFLICT (category_id) DO NOTHING
	`, ids["home-garden/furniture"], schema)
	if err != nil {
		return fmt.Errorf("seed catalog schema: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo seller",
		"email", "seller@classifieds.local",
		"password", "seller",
		"categories", len(seedCategories),
	)

	return nil
}

// splitPath returns the parent path, the last segment and the depth of a
// category path.
func splitPath(path string) (parent, slug string, level int) {
	level = strings.Count(path, "/") + 1
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path, level
	}
	return path[:i], path[i+1:], level
}
