package database

import (
	"context"
	"database/sql"
	"errors"
)

const categoryColumns = `id, name, display_name, icon_name, color_hex`

func (r *Repository) ListCategories(ctx context.Context) ([]HabitCategory, error) {
	rows, err := r.query(ctx, `SELECT `+categoryColumns+` FROM habit_categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]HabitCategory, 0)
	for rows.Next() {
		var c HabitCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.DisplayName, &c.IconName, &c.ColorHex); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id string) (*HabitCategory, error) {
	var c HabitCategory
	err := r.queryRow(ctx, `SELECT `+categoryColumns+` FROM habit_categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.DisplayName, &c.IconName, &c.ColorHex)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const templateSelect = `
	SELECT t.id, t.name, t.description, t.icon_name, t.color_hex, t.category_id,
		t.default_frequency_type, t.is_popular, t.tips,
		c.id, c.name, c.display_name, c.icon_name, c.color_hex
	FROM habit_templates t
	LEFT JOIN habit_categories c ON c.id = t.category_id`

// ListTemplates возвращает шаблоны вместе с категорией: сначала популярные,
// затем по имени. Пустой categoryID отключает фильтр.
func (r *Repository) ListTemplates(ctx context.Context, categoryID string) ([]HabitTemplate, error) {
	query := templateSelect
	var args []any
	if categoryID != "" {
		query += ` WHERE t.category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY t.is_popular DESC, t.name ASC`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]HabitTemplate, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (r *Repository) GetTemplate(ctx context.Context, id string) (*HabitTemplate, error) {
	t, err := scanTemplate(r.queryRow(ctx, templateSelect+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func scanTemplate(s rowScanner) (*HabitTemplate, error) {
	var t HabitTemplate
	var frequency, tips string
	var catID, catName, catDisplay, catIcon, catColor sql.NullString

	err := s.Scan(&t.ID, &t.Name, &t.Description, &t.IconName, &t.ColorHex, &t.CategoryID,
		&frequency, &t.IsPopular, &tips,
		&catID, &catName, &catDisplay, &catIcon, &catColor)
	if err != nil {
		return nil, err
	}

	t.DefaultFrequencyType = FrequencyType(frequency)
	t.Tips = decodeTags(tips)
	if catID.Valid {
		t.Category = &HabitCategory{
			ID:          catID.String,
			Name:        catName.String,
			DisplayName: catDisplay.String,
			IconName:    catIcon.String,
			ColorHex:    catColor.String,
		}
	}
	return &t, nil
}
