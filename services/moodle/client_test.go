package moodle

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/lmsexplorer/lmsexplorer/core/lms"
)

// newTestServer fakes a Moodle host: a token endpoint plus a web-service
// dispatcher keyed by wsfunction.
func newTestServer(t *testing.T, responses map[string]string) *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() failed: %v", err)
		}
		if r.PostFormValue("password") != "goodpwd" {
			fmt.Fprint(w, `{"error": "Invalid login, please try again"}`)
			return
		}
		fmt.Fprint(w, `{"token": "tok123"}`)
	})

	mux.HandleFunc(wsPath, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm() failed: %v", err)
		}
		if r.PostFormValue("wstoken") != "tok123" {
			fmt.Fprint(w, `{"exception": "moodle_exception", "errorcode": "invalidtoken", "message": "Invalid token"}`)
			return
		}
		body, ok := responses[r.PostFormValue("wsfunction")]
		if !ok {
			fmt.Fprint(w, `{"exception": "moodle_exception", "errorcode": "invalidfunction", "message": "unknown function"}`)
			return
		}
		fmt.Fprint(w, body)
	})

	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return httptest.NewServer(mux)
}

func connectedClient(t *testing.T, srv *httptest.Server) *Client {
	c := NewClient(srv.URL, nil)
	if _, err := c.Connect("ada", "goodpwd"); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	return c
}

func Test_Client_Connect(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	t.Run("success", func(t *testing.T) {
		c := NewClient(srv.URL, nil)
		token, err := c.Connect("ada", "goodpwd")
		if err != nil {
			t.Fatalf("Connect() failed: %v", err)
		}
		if token != "tok123" {
			t.Errorf("token = %q, want %q", token, "tok123")
		}
		if !c.IsConnected() {
			t.Error("IsConnected() = false")
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		c := NewClient(srv.URL, nil)
		if _, err := c.Connect("ada", "badpwd"); err == nil {
			t.Fatal("Connect() expected error")
		}
		if c.IsConnected() {
			t.Error("IsConnected() = true after refused handshake")
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:1", &Options{Timeout: time.Second})
		if _, err := c.Connect("ada", "goodpwd"); err == nil {
			t.Fatal("Connect() expected error")
		}
	})
}

func Test_Client_notConnected(t *testing.T) {
	c := NewClient("https://campus.test", nil)
	if _, err := c.Categories(); errors.Cause(err) != lms.ErrNotConnected {
		t.Errorf("Categories() error = %v, want ErrNotConnected", err)
	}
	if err := c.Download("https://campus.test/f.pdf", "f.pdf"); errors.Cause(err) != lms.ErrNotConnected {
		t.Errorf("Download() error = %v, want ErrNotConnected", err)
	}
}

func Test_Client_Categories(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		coreCourseGetCategories: `[{"id": 1, "name": "Science", "parent": 0}, {"id": 2, "name": "Physics", "parent": 1}]`,
	})
	defer srv.Close()
	c := connectedClient(t, srv)

	records, err := c.Categories()
	if err != nil {
		t.Fatalf("Categories() failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[1].Parent != 1 {
		t.Errorf("records[1].Parent = %d, want 1", records[1].Parent)
	}
}

func Test_Client_exceptionPayload(t *testing.T) {
	srv := newTestServer(t, map[string]string{}) // every function errors
	defer srv.Close()
	c := connectedClient(t, srv)

	_, err := c.Courses()
	if errors.Cause(err) != errCallFailed {
		t.Errorf("Courses() error = %v, want errCallFailed", err)
	}
}

func Test_Client_UserByField(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		coreUserGetUsersByField: `[{"id": 7, "username": "ada", "firstname": "Ada", "roles": [{"roleid": 5, "shortname": "student"}]}]`,
	})
	defer srv.Close()
	c := connectedClient(t, srv)

	rec, err := c.UserByField("username", "ada")
	if err != nil {
		t.Fatalf("UserByField() failed: %v", err)
	}
	if rec.ID != 7 || rec.Roles[0].ShortName != "student" {
		t.Errorf("unexpected record %+v", rec)
	}
}

func Test_Client_UserByField_notFound(t *testing.T) {
	srv := newTestServer(t, map[string]string{coreUserGetUsersByField: `[]`})
	defer srv.Close()
	c := connectedClient(t, srv)

	if _, err := c.UserByField("username", "ghost"); err != lms.ErrUserNotFound {
		t.Errorf("UserByField() error = %v, want ErrUserNotFound", err)
	}
}

func Test_Client_UsersByCriteria(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		coreUserGetUsers: `{"users": [{"id": 7, "username": "ada"}], "warnings": []}`,
	})
	defer srv.Close()
	c := connectedClient(t, srv)

	records, err := c.UsersByCriteria("email", "ada@test.cd")
	if err != nil {
		t.Fatalf("UsersByCriteria() failed: %v", err)
	}
	if len(records) != 1 || records[0].Username != "ada" {
		t.Errorf("unexpected records %+v", records)
	}
}

func Test_Client_GroupMembers(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		coreGroupGetGroupMembers: `[{"groupid": 100, "userids": [7, 8]}]`,
	})
	defer srv.Close()
	c := connectedClient(t, srv)

	ids, err := c.GroupMembers(100)
	if err != nil {
		t.Fatalf("GroupMembers() failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != 7 {
		t.Errorf("ids = %v, want [7 8]", ids)
	}
}

func Test_Client_GradeItems(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		coreGradeGetGradeItems: `{"usergrades": [{"gradeitems": [{"id": 1, "itemname": "Quiz 1", "itemtype": "mod"}]}]}`,
	})
	defer srv.Close()
	c := connectedClient(t, srv)

	records, err := c.GradeItems(10)
	if err != nil {
		t.Fatalf("GradeItems() failed: %v", err)
	}
	if len(records) != 1 || records[0].ItemName != "Quiz 1" {
		t.Errorf("unexpected records %+v", records)
	}
}

func Test_Client_Grades(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		coreGradeGetGrades: `{"items": [{"itemname": "Quiz 1", "grades": [{"userid": 7, "gradeformatted": "8.5"}]}]}`,
	})
	defer srv.Close()
	c := connectedClient(t, srv)

	records, err := c.Grades(10, 7)
	if err != nil {
		t.Fatalf("Grades() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].ItemName != "Quiz 1" || records[0].Grade != "8.5" {
		t.Errorf("unexpected record %+v", records[0])
	}
}

func Test_Client_Download(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"token": "tok123"}`)
	})
	mux.HandleFunc("/file.pdf", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "file body")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	if _, err := c.Connect("ada", "goodpwd"); err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}

	dest := filepath.Join(t.TempDir(), "sub", "file.pdf")
	if err := c.Download(srv.URL+"/file.pdf", dest); err != nil {
		t.Fatalf("Download() failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("ReadFile() failed: %v", err)
	}
	if string(data) != "file body" {
		t.Errorf("file contents = %q, want %q", data, "file body")
	}
}

func Test_Ping(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	if !Ping(srv.URL, time.Second) {
		t.Error("Ping() = false for a live host")
	}
	if Ping("http://127.0.0.1:1", time.Second) {
		t.Error("Ping() = true for a dead host")
	}
}

func Test_fmtTokenURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "no query", url: "https://h/f.pdf", want: "https://h/f.pdf?token=tok123"},
		{name: "existing query", url: "https://h/f.pdf?forcedownload=1", want: "https://h/f.pdf?forcedownload=1&token=tok123"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fmtTokenURL(tt.url, "tok123"); got != tt.want {
				t.Errorf("fmtTokenURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
