package platform

import (
	"time"

	"github.com/pkg/errors"
)

const defaultAPIEndpoint = "/webservice/rest/server.php"

var (
	// errors
	ErrNotFound  = errors.New("platform not found")
	ErrURLExists = errors.New("a platform with this URL is already registered")
)

// Platform is a registered Moodle installation the explorer can be pointed at.
type Platform struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	URL         string    `db:"url" json:"url"`
	Service     string    `db:"service" json:"service"`
	APIEndpoint string    `db:"api_endpoint" json:"api_endpoint"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"` // UTC
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"` // UTC
}

type NewPlatform struct {
	Name    string `json:"name" validate:"required"`
	URL     string `json:"url" validate:"required,httpurl"`
	Service string `json:"service"`
}

type UpdatePlatform struct {
	Name    string `json:"name"`
	URL     string `json:"url" validate:"omitempty,httpurl"`
	Service string `json:"service"`
	Active  *bool  `json:"active"`
}

type Repository interface {
	CheckURLUniqueness(url string, excludedPlatforms ...Platform) error
	CreatePlatform(platform Platform) (Platform, error)
	QueryAllPlatforms() ([]Platform, error)
	GetPlatformByID(id int) (Platform, error)
	GetPlatformByURL(url string) (Platform, error)
	UpdatePlatform(platform Platform, active *bool) (Platform, error)
	DeletePlatformsByID(ids ...int) error
}
