package database

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/lmsexplorer/lmsexplorer/core/platform"
)

type platformRepository struct {
	db *sqlx.DB
}

var _ platform.Repository = (*platformRepository)(nil)

func NewPlatformRepository(db *sqlx.DB) platform.Repository {
	return &platformRepository{db: db}
}

func (repo *platformRepository) CheckURLUniqueness(url string, excludedPlatforms ...platform.Platform) error {
	query := `SELECT COUNT(*) FROM platform WHERE url = $1`
	args := []interface{}{url}
	if len(excludedPlatforms) > 0 {
		query += ` AND id <> $2`
		args = append(args, excludedPlatforms[0].ID)
	}

	var count int
	if err := repo.db.Get(&count, query, args...); err != nil {
		return errors.Wrap(err, "checking url uniqueness")
	}
	if count > 0 {
		return platform.ErrURLExists
	}
	return nil
}

func (repo *platformRepository) CreatePlatform(plt platform.Platform) (platform.Platform, error) {
	query := `
		INSERT INTO platform (name, url, service, api_endpoint, active, created_at, updated_at)
		VALUES (:name, :url, :service, :api_endpoint, :active, :created_at, :updated_at)
		RETURNING id`
	rows, err := repo.db.NamedQuery(query, plt)
	if err != nil {
		return platform.Platform{}, errors.Wrap(err, "creating platform")
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err := rows.Scan(&plt.ID); err != nil {
			return platform.Platform{}, errors.Wrap(err, "creating platform")
		}
	}
	return plt, nil
}

func (repo *platformRepository) QueryAllPlatforms() ([]platform.Platform, error) {
	platforms := make([]platform.Platform, 0)
	err := repo.db.Select(&platforms, `SELECT * FROM platform ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "querying platforms")
	}
	return platforms, nil
}

func (repo *platformRepository) GetPlatformByID(id int) (platform.Platform, error) {
	var plt platform.Platform
	err := repo.db.Get(&plt, `SELECT * FROM platform WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return platform.Platform{}, platform.ErrNotFound
	}
	if err != nil {
		return platform.Platform{}, errors.Wrap(err, "getting platform")
	}
	return plt, nil
}

func (repo *platformRepository) GetPlatformByURL(url string) (platform.Platform, error) {
	var plt platform.Platform
	err := repo.db.Get(&plt, `SELECT * FROM platform WHERE url = $1`, url)
	if err == sql.ErrNoRows {
		return platform.Platform{}, platform.ErrNotFound
	}
	if err != nil {
		return platform.Platform{}, errors.Wrap(err, "getting platform by url")
	}
	return plt, nil
}

// UpdatePlatform applies the non-empty fields of plt; active is applied when
// non-nil. The stored record is returned.
func (repo *platformRepository) UpdatePlatform(plt platform.Platform, active *bool) (platform.Platform, error) {
	existing, err := repo.GetPlatformByID(plt.ID)
	if err != nil {
		return platform.Platform{}, err
	}

	if plt.Name != "" {
		existing.Name = plt.Name
	}
	if plt.URL != "" {
		existing.URL = plt.URL
	}
	if plt.Service != "" {
		existing.Service = plt.Service
	}
	if active != nil {
		existing.Active = *active
	}
	existing.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE platform
		SET name = :name, url = :url, service = :service, active = :active, updated_at = :updated_at
		WHERE id = :id`
	if _, err := repo.db.NamedExec(query, existing); err != nil {
		return platform.Platform{}, errors.Wrap(err, "updating platform")
	}
	return existing, nil
}

func (repo *platformRepository) DeletePlatformsByID(ids ...int) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM platform WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "deleting platforms")
	}
	if _, err := repo.db.Exec(repo.db.Rebind(query), args...); err != nil {
		return errors.Wrap(err, "deleting platforms")
	}
	return nil
}
