package testutil

import (
	"testing"
	"time"

	"github.com/lmsexplorer/lmsexplorer/core/platform"
)

// CreatePlatform inserts a platform fixture through the given repository.
func CreatePlatform(
	t *testing.T,
	repo platform.Repository,
	name, url string,
	active bool,
	createdAt ...time.Time,
) platform.Platform {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	plt, err := repo.CreatePlatform(platform.Platform{
		Name:        name,
		URL:         url,
		Service:     "moodle_mobile_app",
		APIEndpoint: "/webservice/rest/server.php",
		Active:      active,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	})
	if err != nil {
		t.Fatalf("createPlatform() failed: %v", err)
	}
	return plt
}
