package lms

import (
	"testing"

	"github.com/pkg/errors"
)

// fakeClient satisfies Client with canned data; per-call errors are injected
// via the errs map keyed by method name.
type fakeClient struct {
	token      string
	connectErr error
	errs       map[string]error

	categories  []CategoryRecord
	courses     []CourseRecord
	users       map[int][]UserRecord
	userCourses map[int][]CourseRecord
	self        UserRecord
	groups      map[int][]GroupRecord
	members     map[int][]int
	sections    map[int][]SectionRecord
	gradeItems  map[int][]GradeItemRecord
}

func (f *fakeClient) Connect(username, password string) (string, error) {
	if f.connectErr != nil {
		return "", f.connectErr
	}
	if f.token == "" {
		f.token = "tok123"
	}
	return f.token, nil
}

func (f *fakeClient) IsConnected() bool { return f.token != "" }

func (f *fakeClient) Categories() ([]CategoryRecord, error) {
	return f.categories, f.errs["Categories"]
}

func (f *fakeClient) Courses() ([]CourseRecord, error) {
	return f.courses, f.errs["Courses"]
}

func (f *fakeClient) EnrolledUsers(courseID int) ([]UserRecord, error) {
	return f.users[courseID], f.errs["EnrolledUsers"]
}

func (f *fakeClient) UserCourses(userID int) ([]CourseRecord, error) {
	return f.userCourses[userID], f.errs["UserCourses"]
}

func (f *fakeClient) UserByField(field, value string) (UserRecord, error) {
	if err := f.errs["UserByField"]; err != nil {
		return UserRecord{}, err
	}
	return f.self, nil
}

func (f *fakeClient) UsersByCriteria(key, value string) ([]UserRecord, error) {
	return nil, f.errs["UsersByCriteria"]
}

func (f *fakeClient) CourseGroups(courseID int) ([]GroupRecord, error) {
	return f.groups[courseID], f.errs["CourseGroups"]
}

func (f *fakeClient) GroupMembers(groupID int) ([]int, error) {
	return f.members[groupID], f.errs["GroupMembers"]
}

func (f *fakeClient) CourseContents(courseID int) ([]SectionRecord, error) {
	return f.sections[courseID], f.errs["CourseContents"]
}

func (f *fakeClient) GradeItems(courseID int) ([]GradeItemRecord, error) {
	return f.gradeItems[courseID], f.errs["GradeItems"]
}

func (f *fakeClient) Grades(courseID, userID int) ([]GradeRecord, error) {
	return nil, f.errs["Grades"]
}

func (f *fakeClient) Download(fileURL, dest string) error { return f.errs["Download"] }

func newFakeClient() *fakeClient {
	return &fakeClient{
		errs: make(map[string]error),
		categories: []CategoryRecord{
			{ID: 1, Name: "Science"},
			{ID: 2, Name: "Physics", Parent: 1},
		},
		courses: []CourseRecord{
			{ID: 10, FullName: "Mechanics", CategoryID: 2},
			{ID: 11, FullName: "Orphan", CategoryID: 99},
			{ID: 12, FullName: "Uncategorized"},
		},
		self: UserRecord{ID: 7, Username: "ada", FirstName: "Ada", LastName: "Lovelace"},
		userCourses: map[int][]CourseRecord{
			7: {{ID: 10, FullName: "Mechanics"}},
		},
	}
}

func Test_LMS_Connect(t *testing.T) {
	t.Run("handshake failure leaves graph untouched", func(t *testing.T) {
		c := newFakeClient()
		c.connectErr = errors.New("invalid login")
		l := NewLMS("campus", "https://campus.test")

		if _, err := l.Connect(c, "ada", "nope"); err == nil {
			t.Fatal("Connect() expected error")
		}
		if l.IsConnected() {
			t.Error("IsConnected() = true after failed handshake")
		}
		if len(l.Categories) != 0 || len(l.Courses) != 0 {
			t.Error("graph populated after failed handshake")
		}
	})

	t.Run("success loads the catalog", func(t *testing.T) {
		c := newFakeClient()
		l := NewLMS("campus", "https://campus.test")

		report, err := l.Connect(c, "ada", "pwd")
		if err != nil {
			t.Fatalf("Connect() failed: %v", err)
		}
		if report.Failed() {
			t.Fatalf("report.Failed() = true: %v", report.Err())
		}
		if !l.IsConnected() {
			t.Error("IsConnected() = false")
		}
		if l.Username != "ada" {
			t.Errorf("Username = %q, want %q", l.Username, "ada")
		}

		// science and its nested physics category
		if len(l.Categories) != 1 {
			t.Fatalf("len(Categories) = %d, want 1", len(l.Categories))
		}
		physics := l.CategoryByID(2)
		if physics == nil || physics.Parent == nil || physics.Parent.ID != 1 {
			t.Fatal("nested category not attached under its parent")
		}
		if physics.CoursesCount() != 1 {
			t.Errorf("physics.CoursesCount() = %d, want 1", physics.CoursesCount())
		}

		// orphan + uncategorized courses attach to the LMS directly
		if len(l.Courses) != 2 {
			t.Errorf("len(l.Courses) = %d, want 2", len(l.Courses))
		}

		// connected user resolved and enrolled courses loaded
		if l.User == nil || l.User.ID != 7 {
			t.Fatal("connected user not resolved")
		}
		if len(l.EnrolledCourses) != 1 {
			t.Errorf("len(EnrolledCourses) = %d, want 1", len(l.EnrolledCourses))
		}
	})
}

func Test_LMS_LoadData_clearsPreviousGraph(t *testing.T) {
	c := newFakeClient()
	l := NewLMS("campus", "https://campus.test")
	if _, err := l.Connect(c, "ada", "pwd"); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	// second load over a shrunk catalog must not accumulate
	c.categories = []CategoryRecord{{ID: 1, Name: "Science"}}
	c.courses = nil
	if _, err := l.LoadData(c); err != nil {
		t.Fatalf("LoadData() failed: %v", err)
	}
	if len(l.Categories) != 1 {
		t.Errorf("len(Categories) = %d, want 1", len(l.Categories))
	}
	if len(l.Courses) != 0 {
		t.Errorf("len(Courses) = %d, want 0", len(l.Courses))
	}
}

func Test_LMS_LoadData_partialFailure(t *testing.T) {
	c := newFakeClient()
	c.errs["Courses"] = errors.New("boom")
	l := NewLMS("campus", "https://campus.test")

	report, err := l.Connect(c, "ada", "pwd")
	if err == nil {
		t.Fatal("Connect() expected partial failure error")
	}
	if !report.Failed() {
		t.Fatal("report.Failed() = false")
	}
	if report.Courses == nil {
		t.Error("report.Courses = nil, want error")
	}
	if report.Categories != nil {
		t.Errorf("report.Categories = %v, want nil", report.Categories)
	}

	// the steps that succeeded still populated the graph
	if len(l.Categories) != 1 {
		t.Errorf("len(Categories) = %d, want 1", len(l.Categories))
	}
	if len(l.EnrolledCourses) != 1 {
		t.Errorf("len(EnrolledCourses) = %d, want 1", len(l.EnrolledCourses))
	}
}

func Test_LMS_LoadData_enrolledCoursesFailure(t *testing.T) {
	c := newFakeClient()
	c.errs["UserCourses"] = errors.New("boom")
	l := NewLMS("campus", "https://campus.test")

	report, err := l.Connect(c, "ada", "pwd")
	if err == nil {
		t.Fatal("Connect() expected partial failure error")
	}
	if !report.Failed() {
		t.Fatal("report.Failed() = false")
	}
	if report.EnrolledCourses == nil {
		t.Error("report.EnrolledCourses = nil, want error")
	}
	if report.Categories != nil {
		t.Errorf("report.Categories = %v, want nil", report.Categories)
	}
	if report.Courses != nil {
		t.Errorf("report.Courses = %v, want nil", report.Courses)
	}

	// the catalog loaded fine, only the enrolment list is missing
	if len(l.Categories) != 1 {
		t.Errorf("len(Categories) = %d, want 1", len(l.Categories))
	}
	if len(l.Courses) != 2 {
		t.Errorf("len(Courses) = %d, want 2", len(l.Courses))
	}
	if len(l.EnrolledCourses) != 0 {
		t.Errorf("len(EnrolledCourses) = %d, want 0", len(l.EnrolledCourses))
	}
}

func Test_LMS_LoadCourseUsers(t *testing.T) {
	c := newFakeClient()
	c.users = map[int][]UserRecord{
		10: {
			{ID: 7, Username: "ada", Roles: []RoleRecord{{ShortName: "student"}}},
			{ID: 8, Username: "bob", Roles: []RoleRecord{{ShortName: "editingteacher"}}},
		},
	}
	c.userCourses[7] = []CourseRecord{{ID: 10}, {ID: 42, FullName: "Other"}}

	l := NewLMS("campus", "https://campus.test")
	crs := &Course{ID: 10}
	l.AddCourse(crs)

	if err := l.LoadCourseUsers(c, crs); err != nil {
		t.Fatalf("LoadCourseUsers() failed: %v", err)
	}
	if len(crs.EnrolledUsers) != 2 {
		t.Fatalf("len(EnrolledUsers) = %d, want 2", len(crs.EnrolledUsers))
	}
	if got := crs.UserCountByRole("student"); got != 1 {
		t.Errorf("UserCountByRole(student) = %d, want 1", got)
	}

	// the current course never appears in a user's other enrollments
	ada := crs.UserByID(7)
	if len(ada.OtherEnrolledCourses) != 1 || ada.OtherEnrolledCourses[0].ID != 42 {
		t.Errorf("OtherEnrolledCourses = %v, want the single course 42", ada.OtherEnrolledCourses)
	}
}

func Test_LMS_LoadCourseGroups(t *testing.T) {
	c := newFakeClient()
	c.users = map[int][]UserRecord{10: {{ID: 7, Username: "ada"}}}
	c.groups = map[int][]GroupRecord{10: {{ID: 100, Name: "Team A"}}}
	c.members = map[int][]int{100: {7, 999}} // 999 is not enrolled

	l := NewLMS("campus", "https://campus.test")
	crs := &Course{ID: 10}
	l.AddCourse(crs)

	if err := l.LoadCourseUsers(c, crs); err != nil {
		t.Fatalf("LoadCourseUsers() failed: %v", err)
	}
	if err := l.LoadCourseGroups(c, crs); err != nil {
		t.Fatalf("LoadCourseGroups() failed: %v", err)
	}

	if len(crs.Groups) != 1 {
		t.Fatalf("len(Groups) = %d, want 1", len(crs.Groups))
	}
	grp := crs.Groups[0]
	if len(grp.Users) != 1 || grp.Users[0].ID != 7 {
		t.Errorf("group members = %v, want the single enrolled user 7", grp.Users)
	}
}

func Test_LMS_LoadCourseContents(t *testing.T) {
	c := newFakeClient()
	c.sections = map[int][]SectionRecord{
		10: {
			{
				ID: 1, Name: "Week 1", Number: 1,
				Modules: []ModuleRecord{
					{
						ID: 2, Name: "Syllabus", ModName: "resource",
						Contents: []ContentRecord{
							{Type: "file", FileName: "syllabus.pdf", MimeType: "application/pdf"},
						},
					},
				},
			},
		},
	}

	l := NewLMS("campus", "https://campus.test")
	crs := &Course{ID: 10}
	l.AddCourse(crs)

	if err := l.LoadCourseContents(c, crs); err != nil {
		t.Fatalf("LoadCourseContents() failed: %v", err)
	}
	if len(crs.Sections) != 1 {
		t.Fatalf("len(Sections) = %d, want 1", len(crs.Sections))
	}
	sec := crs.Sections[0]
	if len(sec.Modules) != 1 {
		t.Fatalf("len(Modules) = %d, want 1", len(sec.Modules))
	}
	mod := sec.Modules[0]
	if mod.ModName != "resource" {
		t.Errorf("ModName = %q, want %q", mod.ModName, "resource")
	}
	if len(mod.Contents) != 1 || mod.Contents[0].FileName != "syllabus.pdf" {
		t.Errorf("Contents = %v, want the single syllabus.pdf", mod.Contents)
	}

	// a reload replaces the tree instead of appending
	if err := l.LoadCourseContents(c, crs); err != nil {
		t.Fatalf("LoadCourseContents() failed: %v", err)
	}
	if len(crs.Sections) != 1 {
		t.Errorf("len(Sections) = %d after reload, want 1", len(crs.Sections))
	}
}

func Test_LMS_LoadGradeItems_skipsUnnamed(t *testing.T) {
	c := newFakeClient()
	c.gradeItems = map[int][]GradeItemRecord{
		10: {
			{ID: 1, ItemName: "Quiz 1", ItemType: "mod"},
			{ID: 2, ItemName: "", ItemType: "course"}, // course total rows have no name
		},
	}

	l := NewLMS("campus", "https://campus.test")
	crs := &Course{ID: 10}
	l.AddCourse(crs)

	if err := l.LoadGradeItems(c, crs); err != nil {
		t.Fatalf("LoadGradeItems() failed: %v", err)
	}
	if len(crs.GradeItems) != 1 {
		t.Fatalf("len(GradeItems) = %d, want 1", len(crs.GradeItems))
	}
	if crs.GradeItems[0].ItemName != "Quiz 1" {
		t.Errorf("ItemName = %q, want %q", crs.GradeItems[0].ItemName, "Quiz 1")
	}
}

func Test_newCourse_defaults(t *testing.T) {
	crs := newCourse(CourseRecord{ID: 10, FullName: "Mechanics", StartDate: 1600000000})
	if crs.DisplayName != "Mechanics" {
		t.Errorf("DisplayName = %q, want fallback to full name", crs.DisplayName)
	}
	if crs.StartDate.IsZero() {
		t.Error("StartDate not converted")
	}
	if !crs.EndDate.IsZero() {
		t.Error("EndDate set from zero timestamp")
	}
}
