package meteodisplay

import "meteo-stack/internal/models"

// Merge combines partial snapshots in order. A later partial wins for every
// top-level field it sets. Groups (wind, pressure, clouds, visibility) are
// replaced as a whole, never merged member by member. Nil partials and nil
// fields are skipped.
func Merge(partials ...*models.DisplayData) *models.DisplayData {
	merged := &models.DisplayData{}

	for _, p := range partials {
		if p == nil {
			continue
		}

		overwrite(&merged.Hours, p.Hours)
		overwrite(&merged.Minutes, p.Minutes)
		overwrite(&merged.Wind, p.Wind)
		overwrite(&merged.Pressure, p.Pressure)
		overwrite(&merged.Clouds, p.Clouds)
		overwrite(&merged.Visibility, p.Visibility)
		overwrite(&merged.Humidity, p.Humidity)
		overwrite(&merged.Temperature, p.Temperature)
		overwrite(&merged.HasThunder, p.HasThunder)
		overwrite(&merged.Events, p.Events)
		overwrite(&merged.IsUrgent, p.IsUrgent)
		overwrite(&merged.UnitID, p.UnitID)
		overwrite(&merged.HasIcing, p.HasIcing)
	}

	return merged
}

func overwrite[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}
