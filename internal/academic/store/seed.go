package store

import (
	"context"
	"errors"
	"fmt"

	"sigcerh/internal/academic/models"
	"sigcerh/pkg/platform/sentinel"
)

type areaCreator interface {
	CreateArea(ctx context.Context, a *models.Area) error
}

// historicalAreas is the subject catalog the ledgers of this period used.
var historicalAreas = []struct {
	code string
	name string
}{
	{"MAT", "Matemática"},
	{"COM", "Comunicación"},
	{"ING", "Inglés"},
	{"CTA", "Ciencia, Tecnología y Ambiente"},
	{"CCSS", "Ciencias Sociales"},
	{"EPT", "Educación para el Trabajo"},
	{"ART", "Arte"},
	{"EDF", "Educación Física"},
	{"FCC", "Formación Ciudadana y Cívica"},
	{"PFRH", "Persona, Familia y Relaciones Humanas"},
	{"REL", "Educación Religiosa"},
	{"COMP", "Computación e Informática"},
}

// SeedHistoricalAreas creates the historical catalog for an institution.
// Areas that already exist are left alone, so it is safe on every start.
func SeedHistoricalAreas(ctx context.Context, st areaCreator, institution string) (int, error) {
	created := 0
	for i, a := range historicalAreas {
		area, err := models.NewArea(institution, a.code, a.name, i+1)
		if err != nil {
			return created, err
		}
		err = st.CreateArea(ctx, area)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed area %s: %w", a.code, err)
		}
		created++
	}
	return created, nil
}
