package meteodisplay

import (
	"context"
	"time"

	"k8s.io/utils/ptr"

	"meteo-stack/internal/models"
)

// Clock fills the time of day in the display's timezone
type Clock struct {
	location *time.Location
	now      func() time.Time
}

func NewClock(location *time.Location) *Clock {
	if location == nil {
		location = time.Local
	}
	return &Clock{
		location: location,
		now:      time.Now,
	}
}

func (c *Clock) Name() string {
	return "clock"
}

func (c *Clock) Fetch(ctx context.Context) *models.DisplayData {
	now := c.now().In(c.location)
	return &models.DisplayData{
		Hours:   ptr.To(now.Hour()),
		Minutes: ptr.To(now.Minute()),
	}
}
