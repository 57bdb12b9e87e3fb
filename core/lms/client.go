package lms

import "errors"

var (
	// ErrNotConnected is returned by a client asked to call the web service
	// before a successful token handshake.
	ErrNotConnected = errors.New("not connected")
	// ErrUserNotFound is returned by user lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")
)

type (
	// Wire records as decoded from the Moodle web-service JSON responses.
	// Timestamps are unix seconds, zero when the server omits them.

	CategoryRecord struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Parent int    `json:"parent"`
	}

	CourseRecord struct {
		ID          int    `json:"id"`
		FullName    string `json:"fullname"`
		ShortName   string `json:"shortname"`
		DisplayName string `json:"displayname"`
		CategoryID  int    `json:"categoryid"`
		GroupMode   int    `json:"groupmode"`
		StartDate   int64  `json:"startdate"`
		EndDate     int64  `json:"enddate"`
	}

	RoleRecord struct {
		ID        int    `json:"roleid"`
		Name      string `json:"name"`
		ShortName string `json:"shortname"`
	}

	UserRecord struct {
		ID         int          `json:"id"`
		FirstName  string       `json:"firstname"`
		LastName   string       `json:"lastname"`
		FullName   string       `json:"fullname"`
		Email      string       `json:"email"`
		Username   string       `json:"username"`
		LastAccess int64        `json:"lastaccess"`
		Roles      []RoleRecord `json:"roles"`
	}

	GroupRecord struct {
		ID          int    `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	ContentRecord struct {
		Type         string `json:"type"`
		FileName     string `json:"filename"`
		FileURL      string `json:"fileurl"`
		MimeType     string `json:"mimetype"`
		FileSize     int64  `json:"filesize"`
		TimeModified int64  `json:"timemodified"`
	}

	ModuleRecord struct {
		ID       int             `json:"id"`
		Name     string          `json:"name"`
		ModName  string          `json:"modname"`
		Contents []ContentRecord `json:"contents"`
	}

	SectionRecord struct {
		ID      int            `json:"id"`
		Name    string         `json:"name"`
		Number  int            `json:"section"`
		Modules []ModuleRecord `json:"modules"`
	}

	GradeItemRecord struct {
		ID       int    `json:"id"`
		ItemName string `json:"itemname"`
		ItemType string `json:"itemtype"`
	}

	GradeRecord struct {
		ItemName string
		UserID   int
		Grade    string
	}
)

// Client mediates every call to one Moodle host. Implementations report
// expected failures (bad credentials, network down, server exception payloads)
// as errors and never retain partial state; the loader treats any error as
// "call failed, no data".
type Client interface {
	// Connect performs the token handshake and returns the session token.
	Connect(username, password string) (string, error)
	IsConnected() bool

	Categories() ([]CategoryRecord, error)
	Courses() ([]CourseRecord, error)
	EnrolledUsers(courseID int) ([]UserRecord, error)
	UserCourses(userID int) ([]CourseRecord, error)
	// UserByField resolves a single user via core_user_get_users_by_field;
	// returns ErrUserNotFound when nothing matches.
	UserByField(field, value string) (UserRecord, error)
	UsersByCriteria(key, value string) ([]UserRecord, error)
	CourseGroups(courseID int) ([]GroupRecord, error)
	GroupMembers(groupID int) ([]int, error)
	CourseContents(courseID int) ([]SectionRecord, error)
	GradeItems(courseID int) ([]GradeItemRecord, error)
	Grades(courseID, userID int) ([]GradeRecord, error)

	// Download streams the (token-authenticated) file URL to dest.
	Download(fileURL, dest string) error
}
