// Package inmem provides an in-memory platform repository. It is meant for
// tests and local development where a database is not available.
package inmem

import (
	"sync"
	"time"

	"github.com/lmsexplorer/lmsexplorer/core/platform"
)

type platformRepository struct {
	mutex     sync.RWMutex
	pkCount   int
	platforms map[int]platform.Platform
}

var _ platform.Repository = (*platformRepository)(nil)

func NewPlatformRepository() platform.Repository {
	return &platformRepository{platforms: make(map[int]platform.Platform)}
}

func (repo *platformRepository) CheckURLUniqueness(url string, excludedPlatforms ...platform.Platform) error {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	excluded := make(map[int]struct{}, len(excludedPlatforms))
	for _, plt := range excludedPlatforms {
		excluded[plt.ID] = struct{}{}
	}
	for _, plt := range repo.platforms {
		if _, skip := excluded[plt.ID]; skip {
			continue
		}
		if plt.URL == url {
			return platform.ErrURLExists
		}
	}
	return nil
}

func (repo *platformRepository) CreatePlatform(plt platform.Platform) (platform.Platform, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.pkCount++
	plt.ID = repo.pkCount
	repo.platforms[plt.ID] = plt
	return plt, nil
}

func (repo *platformRepository) QueryAllPlatforms() ([]platform.Platform, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	platforms := make([]platform.Platform, 0, len(repo.platforms))
	for _, plt := range repo.platforms {
		platforms = append(platforms, plt)
	}
	return platforms, nil
}

func (repo *platformRepository) GetPlatformByID(id int) (platform.Platform, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	plt, ok := repo.platforms[id]
	if !ok {
		return platform.Platform{}, platform.ErrNotFound
	}
	return plt, nil
}

func (repo *platformRepository) GetPlatformByURL(url string) (platform.Platform, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	for _, plt := range repo.platforms {
		if plt.URL == url {
			return plt, nil
		}
	}
	return platform.Platform{}, platform.ErrNotFound
}

func (repo *platformRepository) UpdatePlatform(plt platform.Platform, active *bool) (platform.Platform, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	existing, ok := repo.platforms[plt.ID]
	if !ok {
		return platform.Platform{}, platform.ErrNotFound
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
	repo.platforms[existing.ID] = existing
	return existing, nil
}

func (repo *platformRepository) DeletePlatformsByID(ids ...int) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	for _, id := range ids {
		delete(repo.platforms, id)
	}
	return nil
}
