package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/lmsexplorer/lmsexplorer/storage/vault"
)

// sectionPrefix starts the generated names of unnamed profiles.
const sectionPrefix = "lms"

// Section names become viper key paths: a dot would split the section and
// uppercase would not survive viper's key lowercasing on reload.
var sectionNameRx = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Profile is one named LMS connection. The password never reaches the config
// file: remember-me profiles recover it from the vault at load time, all
// others keep it in memory only.
type Profile struct {
	// Name is assigned by the store when left empty.
	Name        string `json:"name"`
	URL         string `json:"url" validate:"required,httpurl"`
	Username    string `json:"user" validate:"required"`
	Password    string `json:"-"`
	Service     string `json:"service"`
	Autoconnect bool   `json:"autoconnect"`
	RememberMe  bool   `json:"remember_me"`
}

// VaultKey is the service key this profile's password is stored under.
func (p Profile) VaultKey() string {
	return "lms_" + p.Name + "_" + p.URL
}

// Store persists connection profiles in an INI-style config file and delegates
// password storage to the vault. Profiles keep their file/insertion order.
//
// The store owns the whole file: every section is a profile, whether it
// carries a generated lms<N> name or a custom one. Nothing else shares it.
type Store struct {
	path     string
	vault    *vault.Vault
	profiles []Profile
}

func NewStore(path string, vlt *vault.Vault) *Store {
	return &Store{path: path, vault: vlt}
}

// Load parses every section of the config file into a profile, recovering
// remembered passwords from the vault. A missing file yields an empty store.
func (s *Store) Load() error {
	s.profiles = nil

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	conf := viper.New()
	conf.SetConfigFile(s.path)
	conf.SetConfigType("ini")
	if err := conf.ReadInConfig(); err != nil {
		return errors.Wrap(err, "reading "+s.path)
	}

	for _, section := range orderedSections(conf.AllSettings()) {
		get := func(key string) string { return conf.GetString(section + "." + key) }
		p := Profile{
			Name:        section,
			URL:         get("url"),
			Username:    get("user"),
			Service:     get("service"),
			Autoconnect: get("autoconnect") == "1",
			RememberMe:  get("remember_me") == "1",
		}
		if p.RememberMe {
			if creds := s.vault.Get(p.VaultKey()); !creds.IsZero() {
				p.Password = creds.Password
			}
		}
		s.profiles = append(s.profiles, p)
	}
	return nil
}

// Save serializes every profile back to the config file, always with a blank
// password, creating parent directories as needed.
func (s *Store) Save() error {
	conf := viper.New()
	conf.SetConfigType("ini")

	for _, p := range s.profiles {
		set := func(key, val string) { conf.Set(p.Name+"."+key, val) }
		set("url", p.URL)
		set("user", p.Username)
		set("password", "")
		set("service", p.Service)
		set("autoconnect", flag(p.Autoconnect))
		set("remember_me", flag(p.RememberMe))
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, "creating config directory")
		}
	}
	if err := conf.WriteConfigAs(s.path); err != nil {
		return errors.Wrap(err, "writing "+s.path)
	}
	return nil
}

// Add appends the profile, assigning the next free section name when none is
// given, and writes the password through to the vault for remember-me
// profiles.
func (s *Store) Add(p Profile) (Profile, error) {
	if p.Name == "" {
		p.Name = s.nextSectionName()
	} else if !sectionNameRx.MatchString(p.Name) {
		return Profile{}, errors.Errorf("invalid profile name %q: use lowercase letters, digits, - or _", p.Name)
	}
	if s.Get(p.Name) != nil {
		return Profile{}, errors.Errorf("profile %q already exists", p.Name)
	}
	if err := s.rememberPassword(p); err != nil {
		return Profile{}, err
	}
	s.profiles = append(s.profiles, p)
	return p, nil
}

// Update replaces the profile with the same name, keeping its position and
// syncing the vault entry with the remember-me flag.
func (s *Store) Update(p Profile) error {
	for i, existing := range s.profiles {
		if existing.Name != p.Name {
			continue
		}
		if p.RememberMe {
			if err := s.rememberPassword(p); err != nil {
				return err
			}
		} else if existing.RememberMe {
			if err := s.vault.Delete(existing.VaultKey()); err != nil {
				return err
			}
		}
		s.profiles[i] = p
		return nil
	}
	return errors.Errorf("profile %q not found", p.Name)
}

// Remove drops the profile and purges its vault entry if it was remembered.
func (s *Store) Remove(name string) error {
	for i, p := range s.profiles {
		if p.Name != name {
			continue
		}
		s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
		if p.RememberMe {
			return s.vault.Delete(p.VaultKey())
		}
		return nil
	}
	return errors.Errorf("profile %q not found", name)
}

func (s *Store) Get(name string) *Profile {
	for i := range s.profiles {
		if s.profiles[i].Name == name {
			return &s.profiles[i]
		}
	}
	return nil
}

// All returns the profiles in insertion order.
func (s *Store) All() []Profile {
	all := make([]Profile, len(s.profiles))
	copy(all, s.profiles)
	return all
}

// AutoconnectProfile returns the first profile flagged for automatic
// connection at startup; when several set the flag, insertion order wins.
func (s *Store) AutoconnectProfile() *Profile {
	for i := range s.profiles {
		if s.profiles[i].Autoconnect {
			return &s.profiles[i]
		}
	}
	return nil
}

func (s *Store) rememberPassword(p Profile) error {
	if !p.RememberMe {
		return nil
	}
	if err := s.vault.Save(p.VaultKey(), p.Username, p.Password, true); err != nil {
		return errors.Wrap(err, "remembering password")
	}
	return nil
}

func (s *Store) nextSectionName() string {
	for n := len(s.profiles) + 1; ; n++ {
		name := fmt.Sprintf("%s%d", sectionPrefix, n)
		if s.Get(name) == nil {
			return name
		}
	}
}

// orderedSections sorts generated sections by their numeric suffix so that
// lms2 precedes lms10; custom-named sections sort after, alphabetically.
func orderedSections(settings map[string]interface{}) []string {
	sections := make([]string, 0, len(settings))
	for section := range settings {
		sections = append(sections, section)
	}
	sort.Slice(sections, func(i, j int) bool {
		ni, iok := sectionNumber(sections[i])
		nj, jok := sectionNumber(sections[j])
		switch {
		case iok && jok:
			return ni < nj
		case iok:
			return true
		case jok:
			return false
		default:
			return sections[i] < sections[j]
		}
	})
	return sections
}

func sectionNumber(section string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(section, sectionPrefix))
	return n, err == nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
