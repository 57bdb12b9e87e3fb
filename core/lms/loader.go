package lms

import (
	"time"

	"github.com/pkg/errors"
)

// ErrLoadInProgress is returned when a load is requested on an LMS whose
// previous load has not finished; entity lists are cleared destructively, so
// loads are serialized per instance instead of interleaving.
var ErrLoadInProgress = errors.New("lms: load already in progress")

// LoadReport records the outcome of each load sub-step. A sub-step failure
// does not abort the whole load: categories can be fully loaded even when
// enrolled-course loading fails.
type LoadReport struct {
	Categories      error
	Courses         error
	EnrolledCourses error
}

func (r LoadReport) Failed() bool {
	return r.Categories != nil || r.Courses != nil || r.EnrolledCourses != nil
}

func (r LoadReport) Err() error {
	for _, err := range []error{r.Categories, r.Courses, r.EnrolledCourses} {
		if err != nil {
			return err
		}
	}
	return nil
}

// Connect performs the token handshake via c and, on success, stores the token
// and loads the catalog. On handshake failure the entity graph is untouched
// and the token stays empty.
func (l *LMS) Connect(c Client, username, password string) (LoadReport, error) {
	token, err := c.Connect(username, password)
	if err != nil {
		return LoadReport{}, errors.Wrap(err, "connecting to "+l.Host)
	}
	l.Token = token
	l.Username = username
	return l.LoadData(c)
}

// LoadData replaces the previously loaded graph: it clears categories, courses
// and enrolled courses, then repopulates them from c step by step.
func (l *LMS) LoadData(c Client) (LoadReport, error) {
	l.loadMu.Lock()
	if l.loading {
		l.loadMu.Unlock()
		return LoadReport{}, ErrLoadInProgress
	}
	l.loading = true
	l.loadMu.Unlock()
	defer func() {
		l.loadMu.Lock()
		l.loading = false
		l.loadMu.Unlock()
	}()

	l.Categories = nil
	l.Courses = nil
	l.EnrolledCourses = nil

	var report LoadReport
	report.Categories = l.loadCategories(c)
	report.Courses = l.loadCourses(c)
	report.EnrolledCourses = l.loadEnrolledCourses(c)
	return report, report.Err()
}

// loadCategories attaches root categories to the LMS and nested ones under
// their parent; a child whose parent is not (yet) known attaches to the LMS.
func (l *LMS) loadCategories(c Client) error {
	records, err := c.Categories()
	if err != nil {
		return errors.Wrap(err, "loading categories")
	}
	for _, rec := range records {
		cat := &Category{ID: rec.ID, Name: rec.Name, ParentID: rec.Parent}
		if rec.Parent > 0 {
			if parent := l.CategoryByID(rec.Parent); parent != nil {
				parent.AddSubCategory(cat)
				continue
			}
		}
		l.AddCategory(cat)
	}
	return nil
}

// loadCourses attaches each course under its declared category; courses whose
// category id matches no known category are attached directly to the LMS, not
// dropped.
func (l *LMS) loadCourses(c Client) error {
	records, err := c.Courses()
	if err != nil {
		return errors.Wrap(err, "loading courses")
	}
	for _, rec := range records {
		crs := newCourse(rec)
		if rec.CategoryID > 0 {
			if cat := l.CategoryByID(rec.CategoryID); cat != nil {
				cat.AddCourse(crs)
				continue
			}
		}
		l.AddCourse(crs)
	}
	return nil
}

func (l *LMS) loadEnrolledCourses(c Client) error {
	rec, err := c.UserByField("username", l.Username)
	if err != nil {
		return errors.Wrap(err, "resolving connected user")
	}
	l.User = newUser(rec)
	l.User.LMS = l

	records, err := c.UserCourses(rec.ID)
	if err != nil {
		return errors.Wrap(err, "loading enrolled courses")
	}
	for _, r := range records {
		l.AddEnrolledCourse(newCourse(r))
	}
	return nil
}

// LoadCourseUsers refreshes a course's enrolled users and resolves each user's
// other enrolled courses.
func (l *LMS) LoadCourseUsers(c Client, crs *Course) error {
	records, err := c.EnrolledUsers(crs.ID)
	if err != nil {
		return errors.Wrap(err, "loading enrolled users")
	}
	crs.EnrolledUsers = nil
	for _, rec := range records {
		usr := newUser(rec)
		crs.AddEnrolledUser(usr)

		courses, err := c.UserCourses(rec.ID)
		if err != nil {
			continue // user stays attached without the cross-listing
		}
		for _, cr := range courses {
			if cr.ID == crs.ID {
				continue
			}
			usr.OtherEnrolledCourses = append(usr.OtherEnrolledCourses, newCourse(cr))
		}
	}
	return nil
}

// LoadCourseGroups refreshes a course's user groups and their members. Members
// already enrolled in the course are linked, unknown ids are skipped.
func (l *LMS) LoadCourseGroups(c Client, crs *Course) error {
	records, err := c.CourseGroups(crs.ID)
	if err != nil {
		return errors.Wrap(err, "loading course groups")
	}
	crs.Groups = nil
	for _, rec := range records {
		grp := &UsersGroup{ID: rec.ID, Name: rec.Name}
		crs.AddGroup(grp)

		ids, err := c.GroupMembers(rec.ID)
		if err != nil {
			continue
		}
		for _, id := range ids {
			if usr := crs.UserByID(id); usr != nil {
				grp.AddUser(usr)
			}
		}
	}
	return nil
}

// LoadCourseContents refreshes a course's section/module/content tree.
func (l *LMS) LoadCourseContents(c Client, crs *Course) error {
	records, err := c.CourseContents(crs.ID)
	if err != nil {
		return errors.Wrap(err, "loading course contents")
	}
	crs.Sections = nil
	for _, rec := range records {
		sec := &Section{ID: rec.ID, Name: rec.Name, Number: rec.Number}
		crs.AddSection(sec)
		for _, mrec := range rec.Modules {
			mod := &Module{ID: mrec.ID, Name: mrec.Name, ModName: mrec.ModName}
			sec.AddModule(mod)
			for _, crec := range mrec.Contents {
				mod.AddContent(&Content{
					FileName: crec.FileName,
					FileType: crec.Type,
					MimeType: crec.MimeType,
					FileURL:  crec.FileURL,
					FileSize: crec.FileSize,
				})
			}
		}
	}
	return nil
}

// LoadGradeItems refreshes a course's grade book items.
func (l *LMS) LoadGradeItems(c Client, crs *Course) error {
	records, err := c.GradeItems(crs.ID)
	if err != nil {
		return errors.Wrap(err, "loading grade items")
	}
	crs.GradeItems = nil
	for _, rec := range records {
		if rec.ItemName == "" {
			continue
		}
		crs.AddGradeItem(&GradeItem{ItemName: rec.ItemName, ItemType: rec.ItemType})
	}
	return nil
}

func newCourse(rec CourseRecord) *Course {
	crs := &Course{
		ID:          rec.ID,
		Name:        rec.FullName,
		FullName:    rec.FullName,
		ShortName:   rec.ShortName,
		DisplayName: rec.DisplayName,
		GroupMode:   rec.GroupMode,
	}
	if crs.DisplayName == "" {
		crs.DisplayName = rec.FullName
	}
	if rec.StartDate > 0 {
		crs.StartDate = time.Unix(rec.StartDate, 0).UTC()
	}
	if rec.EndDate > 0 {
		crs.EndDate = time.Unix(rec.EndDate, 0).UTC()
	}
	return crs
}

func newUser(rec UserRecord) *User {
	usr := &User{
		ID:        rec.ID,
		FirstName: rec.FirstName,
		LastName:  rec.LastName,
		FullName:  rec.FullName,
		Email:     rec.Email,
		Username:  rec.Username,
	}
	if rec.LastAccess > 0 {
		usr.LastAccess = time.Unix(rec.LastAccess, 0).UTC()
	}
	for _, role := range rec.Roles {
		usr.Roles = append(usr.Roles, role.ShortName)
	}
	return usr
}
