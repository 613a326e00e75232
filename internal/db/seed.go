package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirdesai22/lacs-verts/internal/logging"
	"github.com/sirdesai22/lacs-verts/internal/models"
	"github.com/sirdesai22/lacs-verts/internal/repository"
)

// SampleLakes returns the bootstrap set of monitored lakes. Creation times are
// spaced one microsecond apart from now so list order matches this order.
func SampleLakes(now time.Time) []models.Lake {
	base := now.UTC()
	lakes := []models.Lake{
		{
			Name: "Lac de Kossou", Latitude: 7.0, Longitude: -5.5, Status: models.LakeClean,
			Description: "Plus grand lac artificiel de Côte d'Ivoire",
			Region:      "Région de Yamoussoukro",
		},
		{
			Name: "Lac Buyo", Latitude: 6.5, Longitude: -7.0, Status: models.LakeWatch,
			Description: "Lac de barrage important pour l'électricité",
			Region:      "Région de San-Pédro",
		},
		{
			Name: "Lac de Taabo", Latitude: 6.2, Longitude: -5.2, Status: models.LakeClean,
			Description: "Lac artificiel sur le fleuve Bandama",
			Region:      "Région de Dimbokro",
		},
		{
			Name: "Lac de Ayamé", Latitude: 5.5, Longitude: -3.2, Status: models.LakePolluted,
			Description: "Lac nécessitant une attention particulière",
			Region:      "Région d'Aboisso",
		},
	}
	for i := range lakes {
		at := base.Add(time.Duration(i) * time.Microsecond)
		lakes[i].ID = uuid.New()
		lakes[i].CreatedAt = at
		lakes[i].UpdatedAt = at
	}
	return lakes
}

// Seed populates the lake collection once. It is a no-op when any lake exists.
func Seed(ctx context.Context, lakes repository.Lakes, log logging.Logger) error {
	n, err := lakes.Seed(ctx, SampleLakes(time.Now()))
	if err != nil {
		return err
	}
	if n == 0 {
		log.Info(ctx, "lakes already exist, skipping seed")
		return nil
	}
	log.Info(ctx, "sample lakes inserted", "count", n)
	return nil
}
