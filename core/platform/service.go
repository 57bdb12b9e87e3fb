package platform

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/lmsexplorer/lmsexplorer/core"
)

type Service struct {
	repo       Repository
	validate   *validator.Validate
	translator ut.Translator
}

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{repo: repo, validate: validate, translator: translator}
}

func (svc *Service) checkUniqueness(url string, exclPlatforms ...Platform) error {
	if err := svc.repo.CheckURLUniqueness(url, exclPlatforms...); err != nil {
		if err == ErrURLExists {
			return core.NewValidationError(err, core.FieldError{Field: "url", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(np NewPlatform) (Platform, error) {
	np.Name = core.CleanString(np.Name)
	np.URL = core.CleanString(np.URL, true /* lower */)
	if err := svc.validate.Struct(np); err != nil {
		return Platform{}, err
	}
	if err := svc.checkUniqueness(np.URL); err != nil {
		return Platform{}, err
	}

	now := time.Now().UTC()
	plt := Platform{
		Name:        np.Name,
		URL:         np.URL,
		Service:     np.Service,
		APIEndpoint: defaultAPIEndpoint,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreatePlatform(plt)
}

func (svc *Service) QueryAll() ([]Platform, error) {
	return svc.repo.QueryAllPlatforms()
}

func (svc *Service) GetByID(id int) (Platform, error) {
	return svc.repo.GetPlatformByID(id)
}

func (svc *Service) GetByURL(url string) (Platform, error) {
	return svc.repo.GetPlatformByURL(core.CleanString(url, true /* lower */))
}

func (svc *Service) Update(id int, up UpdatePlatform) (Platform, error) {
	up.Name = core.CleanString(up.Name)
	up.URL = core.CleanString(up.URL, true /* lower */)
	if err := svc.validate.Struct(up); err != nil {
		return Platform{}, err
	}

	existing, err := svc.repo.GetPlatformByID(id)
	if err != nil {
		return Platform{}, err
	}
	if up.URL != "" && up.URL != existing.URL {
		if err := svc.checkUniqueness(up.URL, existing); err != nil {
			return Platform{}, err
		}
	}

	plt := Platform{
		ID:        id,
		Name:      up.Name,
		URL:       up.URL,
		Service:   up.Service,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdatePlatform(plt, up.Active)
}

func (svc *Service) Delete(ids ...int) error {
	return svc.repo.DeletePlatformsByID(ids...)
}
