package lms

import (
	"strings"
	"sync"
	"time"
)

// The graph is a tree of owning parents: every Add pairs with a Remove, and
// attaching an entity to a new parent detaches it from its previous one.
// Parent pointers on children are for navigation only; the slices own.

type LMS struct {
	Name string
	Host string

	// Token is the web-service bearer token; the LMS is connected iff it is set.
	Token    string
	Username string
	Service  string
	User     *User

	Categories      []*Category
	Courses         []*Course // courses not claimed by any loaded category
	EnrolledCourses []*Course

	loadMu  sync.Mutex
	loading bool
}

func NewLMS(name, host string) *LMS {
	return &LMS{Name: name, Host: strings.TrimRight(host, "/")}
}

func (l *LMS) IsConnected() bool { return l.Token != "" }

func (l *LMS) AddCategory(cat *Category) {
	cat.detach()
	cat.LMS = l
	l.Categories = append(l.Categories, cat)
}

func (l *LMS) RemoveCategory(cat *Category) {
	for i, c := range l.Categories {
		if c == cat {
			l.Categories = append(l.Categories[:i], l.Categories[i+1:]...)
			cat.LMS = nil
			return
		}
	}
}

func (l *LMS) AddCourse(crs *Course) {
	crs.detach()
	crs.LMS = l
	l.Courses = append(l.Courses, crs)
}

func (l *LMS) RemoveCourse(crs *Course) {
	for i, c := range l.Courses {
		if c == crs {
			l.Courses = append(l.Courses[:i], l.Courses[i+1:]...)
			crs.LMS = nil
			return
		}
	}
}

func (l *LMS) AddEnrolledCourse(crs *Course) {
	crs.LMS = l
	l.EnrolledCourses = append(l.EnrolledCourses, crs)
}

func (l *LMS) RemoveEnrolledCourse(crs *Course) {
	for i, c := range l.EnrolledCourses {
		if c == crs {
			l.EnrolledCourses = append(l.EnrolledCourses[:i], l.EnrolledCourses[i+1:]...)
			crs.LMS = nil
			return
		}
	}
}

// CategoryByID searches the whole category tree.
func (l *LMS) CategoryByID(id int) *Category {
	var find func(cats []*Category) *Category
	find = func(cats []*Category) *Category {
		for _, cat := range cats {
			if cat.ID == id {
				return cat
			}
			if sub := find(cat.SubCategories); sub != nil {
				return sub
			}
		}
		return nil
	}
	return find(l.Categories)
}

// CourseByID searches uncategorized courses and every category's courses.
func (l *LMS) CourseByID(id int) *Course {
	for _, crs := range l.Courses {
		if crs.ID == id {
			return crs
		}
	}
	var find func(cats []*Category) *Course
	find = func(cats []*Category) *Course {
		for _, cat := range cats {
			for _, crs := range cat.Courses {
				if crs.ID == id {
					return crs
				}
			}
			if crs := find(cat.SubCategories); crs != nil {
				return crs
			}
		}
		return nil
	}
	return find(l.Categories)
}

type Category struct {
	ID       int
	Name     string
	ParentID int

	LMS    *LMS
	Parent *Category

	SubCategories []*Category
	Courses       []*Course
}

// detach removes the category from whichever parent currently owns it.
func (cat *Category) detach() {
	if cat.Parent != nil {
		cat.Parent.RemoveSubCategory(cat)
	}
	if cat.LMS != nil {
		cat.LMS.RemoveCategory(cat)
	}
}

func (cat *Category) AddSubCategory(sub *Category) {
	sub.detach()
	sub.Parent = cat
	sub.LMS = cat.LMS
	cat.SubCategories = append(cat.SubCategories, sub)
}

func (cat *Category) RemoveSubCategory(sub *Category) {
	for i, c := range cat.SubCategories {
		if c == sub {
			cat.SubCategories = append(cat.SubCategories[:i], cat.SubCategories[i+1:]...)
			sub.Parent = nil
			sub.LMS = nil
			return
		}
	}
}

func (cat *Category) AddCourse(crs *Course) {
	crs.detach()
	crs.Category = cat
	crs.LMS = cat.LMS
	cat.Courses = append(cat.Courses, crs)
}

func (cat *Category) RemoveCourse(crs *Course) {
	for i, c := range cat.Courses {
		if c == crs {
			cat.Courses = append(cat.Courses[:i], cat.Courses[i+1:]...)
			crs.Category = nil
			crs.LMS = nil
			return
		}
	}
}

func (cat *Category) CoursesCount() int       { return len(cat.Courses) }
func (cat *Category) SubCategoriesCount() int { return len(cat.SubCategories) }

type Course struct {
	ID          int
	Name        string
	FullName    string
	ShortName   string
	DisplayName string
	GroupMode   int
	StartDate   time.Time
	EndDate     time.Time

	LMS      *LMS
	Category *Category

	Sections      []*Section
	EnrolledUsers []*User
	Groups        []*UsersGroup
	GradeItems    []*GradeItem
}

func (crs *Course) detach() {
	if crs.Category != nil {
		crs.Category.RemoveCourse(crs)
	}
	if crs.LMS != nil {
		crs.LMS.RemoveCourse(crs)
	}
}

func (crs *Course) AddSection(sec *Section) {
	if sec.Course != nil && sec.Course != crs {
		sec.Course.RemoveSection(sec)
	}
	sec.Course = crs
	crs.Sections = append(crs.Sections, sec)
}

func (crs *Course) RemoveSection(sec *Section) {
	for i, s := range crs.Sections {
		if s == sec {
			crs.Sections = append(crs.Sections[:i], crs.Sections[i+1:]...)
			sec.Course = nil
			return
		}
	}
}

func (crs *Course) AddEnrolledUser(usr *User) {
	if usr.Course != nil && usr.Course != crs {
		usr.Course.RemoveEnrolledUser(usr)
	}
	usr.Course = crs
	usr.LMS = crs.LMS
	crs.EnrolledUsers = append(crs.EnrolledUsers, usr)
}

func (crs *Course) RemoveEnrolledUser(usr *User) {
	for i, u := range crs.EnrolledUsers {
		if u == usr {
			crs.EnrolledUsers = append(crs.EnrolledUsers[:i], crs.EnrolledUsers[i+1:]...)
			usr.Course = nil
			return
		}
	}
}

func (crs *Course) AddGroup(grp *UsersGroup) {
	if grp.Course != nil && grp.Course != crs {
		grp.Course.RemoveGroup(grp)
	}
	grp.Course = crs
	crs.Groups = append(crs.Groups, grp)
}

func (crs *Course) RemoveGroup(grp *UsersGroup) {
	for i, g := range crs.Groups {
		if g == grp {
			crs.Groups = append(crs.Groups[:i], crs.Groups[i+1:]...)
			grp.Course = nil
			return
		}
	}
}

func (crs *Course) AddGradeItem(item *GradeItem) {
	crs.GradeItems = append(crs.GradeItems, item)
}

func (crs *Course) RemoveGradeItem(item *GradeItem) {
	for i, it := range crs.GradeItems {
		if it == item {
			crs.GradeItems = append(crs.GradeItems[:i], crs.GradeItems[i+1:]...)
			return
		}
	}
}

// UserCountByRole counts enrolled users holding the given role.
func (crs *Course) UserCountByRole(role string) int {
	var count int
	for _, usr := range crs.EnrolledUsers {
		if usr.HasRole(role) {
			count++
		}
	}
	return count
}

// UserByID returns the enrolled user with the given id, if any.
func (crs *Course) UserByID(id int) *User {
	for _, usr := range crs.EnrolledUsers {
		if usr.ID == id {
			return usr
		}
	}
	return nil
}

type Section struct {
	ID     int
	Name   string
	Number int

	Course *Course

	Modules []*Module
}

func (sec *Section) AddModule(mod *Module) {
	if mod.Section != nil && mod.Section != sec {
		mod.Section.RemoveModule(mod)
	}
	mod.Section = sec
	sec.Modules = append(sec.Modules, mod)
}

func (sec *Section) RemoveModule(mod *Module) {
	for i, m := range sec.Modules {
		if m == mod {
			sec.Modules = append(sec.Modules[:i], sec.Modules[i+1:]...)
			mod.Section = nil
			return
		}
	}
}

type Module struct {
	ID   int
	Name string
	// ModName is the Moodle module type tag: resource, forum, label, folder, ...
	ModName string

	Section *Section

	Contents []*Content
}

func (mod *Module) AddContent(cnt *Content) {
	if cnt.Module != nil && cnt.Module != mod {
		cnt.Module.RemoveContent(cnt)
	}
	cnt.Module = mod
	mod.Contents = append(mod.Contents, cnt)
}

func (mod *Module) RemoveContent(cnt *Content) {
	for i, c := range mod.Contents {
		if c == cnt {
			mod.Contents = append(mod.Contents[:i], mod.Contents[i+1:]...)
			cnt.Module = nil
			return
		}
	}
}

type Content struct {
	FileName string
	FileType string
	MimeType string
	FileURL  string
	FileSize int64

	Module *Module
}

type User struct {
	ID        int
	FirstName string
	LastName  string
	FullName  string
	Email     string
	Username  string
	Roles     []string

	LastAccess   time.Time
	TimeCreated  time.Time
	TimeModified time.Time
	Notes        string

	Course *Course
	LMS    *LMS

	OtherEnrolledCourses []*Course
}

// DisplayName prefers the server-provided full name.
func (usr *User) DisplayName() string {
	if usr.FullName != "" {
		return usr.FullName
	}
	return strings.TrimSpace(usr.FirstName + " " + usr.LastName)
}

func (usr *User) HasRole(role string) bool {
	for _, r := range usr.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type UsersGroup struct {
	ID   int
	Name string

	Course *Course

	Users []*User
}

func (grp *UsersGroup) AddUser(usr *User) {
	grp.Users = append(grp.Users, usr)
}

func (grp *UsersGroup) RemoveUser(usr *User) {
	for i, u := range grp.Users {
		if u == usr {
			grp.Users = append(grp.Users[:i], grp.Users[i+1:]...)
			return
		}
	}
}

type GradeItem struct {
	ItemName string
	ItemType string
}
