package moodle

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lmsexplorer/lmsexplorer/core"
	"github.com/lmsexplorer/lmsexplorer/core/lms"
)

// Moodle web-service functions
const (
	coreUserGetUsers         = "core_user_get_users"
	coreUserGetUsersByField  = "core_user_get_users_by_field"
	coreCourseGetCourses     = "core_course_get_courses"
	coreCourseGetCategories  = "core_course_get_categories"
	coreCourseGetContents    = "core_course_get_contents"
	coreEnrolGetEnrolledUsrs = "core_enrol_get_enrolled_users"
	coreEnrolGetUsersCourses = "core_enrol_get_users_courses"
	coreGroupGetCourseGroups = "core_group_get_course_groups"
	coreGroupGetGroupMembers = "core_group_get_group_members"
	coreGradeGetGradeItems   = "core_grade_get_grade_items"
	coreGradeGetGrades       = "core_grade_get_grades"
)

const (
	tokenPath = "/login/token.php"
	wsPath    = "/webservice/rest/server.php"
	loginPath = "/login/index.php"

	defaultService = "moodle_mobile_app"
	defaultTimeout = 30 * time.Second
)

var errCallFailed = errors.New("moodle: call failed")

type Options struct {
	Service string
	Timeout time.Duration
	Logger  core.Logger
	// HTTPClient overrides the transport; for tests.
	HTTPClient *http.Client
}

// Client owns one authenticated session to one Moodle host. Moodle's web
// service is function-call-over-HTTP with no connection state beyond the
// token, so the client is a stateless function dispatcher around it.
type Client struct {
	host    string
	service string
	token   string
	http    *http.Client
	logger  core.Logger
}

var _ lms.Client = (*Client)(nil)

func NewClient(host string, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	c := &Client{
		host:    strings.TrimRight(host, "/"),
		service: opts.Service,
		http:    opts.HTTPClient,
		logger:  opts.Logger,
	}
	if c.service == "" {
		c.service = defaultService
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	return c
}

// Connect POSTs the credentials to the token endpoint and keeps the returned
// token as the session's bearer credential. On any failure the token stays
// empty and no partial state is retained.
func (c *Client) Connect(username, password string) (string, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
		"service":  {c.service},
	}
	resp, err := c.http.PostForm(c.host+tokenPath, form)
	if err != nil {
		return "", errors.Wrap(err, "posting to token endpoint")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Errorf("token endpoint returned %s", resp.Status)
	}

	var body struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "decoding token response")
	}
	if body.Token == "" {
		if body.Error == "" {
			body.Error = "unknown error"
		}
		return "", errors.Errorf("connection refused: %s", body.Error)
	}

	c.token = body.Token
	return c.token, nil
}

func (c *Client) IsConnected() bool { return c.token != "" }

// call issues one web-service function call and decodes the response into out.
// Transport errors, non-2xx statuses, malformed JSON and Moodle `exception`
// payloads are all surfaced uniformly as a failed call yielding no data.
func (c *Client) call(function string, params url.Values, out interface{}) error {
	if !c.IsConnected() {
		return lms.ErrNotConnected
	}

	form := url.Values{
		"wstoken":            {c.token},
		"wsfunction":         {function},
		"moodlewsrestformat": {"json"},
	}
	for key, vals := range params {
		form[key] = vals
	}

	resp, err := c.http.PostForm(c.host+wsPath, form)
	if err != nil {
		return errors.Wrapf(errCallFailed, "%s: %v", function, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrapf(errCallFailed, "%s: %s", function, resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(errCallFailed, "%s: reading body: %v", function, err)
	}

	// Moodle reports errors as a JSON object carrying an `exception` key.
	if len(raw) > 0 && raw[0] == '{' {
		var moodleErr struct {
			Exception string `json:"exception"`
			ErrorCode string `json:"errorcode"`
			Message   string `json:"message"`
		}
		if err := json.Unmarshal(raw, &moodleErr); err == nil && moodleErr.Exception != "" {
			if c.logger != nil {
				c.logger.Warn("moodle error", map[string]interface{}{
					"function":  function,
					"errorcode": moodleErr.ErrorCode,
					"message":   moodleErr.Message,
				})
			}
			return errors.Wrapf(errCallFailed, "%s: %s", function, moodleErr.Message)
		}
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(errCallFailed, "%s: decoding response: %v", function, err)
	}
	return nil
}

func (c *Client) Categories() ([]lms.CategoryRecord, error) {
	var records []lms.CategoryRecord
	if err := c.call(coreCourseGetCategories, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) Courses() ([]lms.CourseRecord, error) {
	var records []lms.CourseRecord
	if err := c.call(coreCourseGetCourses, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) EnrolledUsers(courseID int) ([]lms.UserRecord, error) {
	params := url.Values{"courseid": {strconv.Itoa(courseID)}}
	var records []lms.UserRecord
	if err := c.call(coreEnrolGetEnrolledUsrs, params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) UserCourses(userID int) ([]lms.CourseRecord, error) {
	params := url.Values{"userid": {strconv.Itoa(userID)}}
	var records []lms.CourseRecord
	if err := c.call(coreEnrolGetUsersCourses, params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) UserByField(field, value string) (lms.UserRecord, error) {
	params := url.Values{
		"field":     {field},
		"values[0]": {value},
	}
	var records []lms.UserRecord
	if err := c.call(coreUserGetUsersByField, params, &records); err != nil {
		return lms.UserRecord{}, err
	}
	if len(records) == 0 {
		return lms.UserRecord{}, lms.ErrUserNotFound
	}
	return records[0], nil
}

func (c *Client) UsersByCriteria(key, value string) ([]lms.UserRecord, error) {
	params := url.Values{
		"criteria[0][key]":   {key},
		"criteria[0][value]": {value},
	}
	var body struct {
		Users []lms.UserRecord `json:"users"`
	}
	if err := c.call(coreUserGetUsers, params, &body); err != nil {
		return nil, err
	}
	return body.Users, nil
}

func (c *Client) CourseGroups(courseID int) ([]lms.GroupRecord, error) {
	params := url.Values{"courseid": {strconv.Itoa(courseID)}}
	var records []lms.GroupRecord
	if err := c.call(coreGroupGetCourseGroups, params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) GroupMembers(groupID int) ([]int, error) {
	params := url.Values{"groupids[0]": {strconv.Itoa(groupID)}}
	var records []struct {
		GroupID int   `json:"groupid"`
		UserIDs []int `json:"userids"`
	}
	if err := c.call(coreGroupGetGroupMembers, params, &records); err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.GroupID == groupID {
			return rec.UserIDs, nil
		}
	}
	return nil, nil
}

func (c *Client) CourseContents(courseID int) ([]lms.SectionRecord, error) {
	params := url.Values{"courseid": {strconv.Itoa(courseID)}}
	var records []lms.SectionRecord
	if err := c.call(coreCourseGetContents, params, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) GradeItems(courseID int) ([]lms.GradeItemRecord, error) {
	params := url.Values{"courseid": {strconv.Itoa(courseID)}}
	var body struct {
		UserGrades []struct {
			GradeItems []lms.GradeItemRecord `json:"gradeitems"`
		} `json:"usergrades"`
	}
	if err := c.call(coreGradeGetGradeItems, params, &body); err != nil {
		return nil, err
	}
	var records []lms.GradeItemRecord
	for _, ug := range body.UserGrades {
		records = append(records, ug.GradeItems...)
	}
	return records, nil
}

func (c *Client) Grades(courseID, userID int) ([]lms.GradeRecord, error) {
	params := url.Values{"courseid": {strconv.Itoa(courseID)}}
	if userID > 0 {
		params.Set("userid", strconv.Itoa(userID))
	}
	var body struct {
		Items []struct {
			ItemName string `json:"itemname"`
			Grades   []struct {
				UserID         int    `json:"userid"`
				GradeFormatted string `json:"gradeformatted"`
			} `json:"grades"`
		} `json:"items"`
	}
	if err := c.call(coreGradeGetGrades, params, &body); err != nil {
		return nil, err
	}
	var records []lms.GradeRecord
	for _, item := range body.Items {
		for _, g := range item.Grades {
			records = append(records, lms.GradeRecord{
				ItemName: item.ItemName,
				UserID:   g.UserID,
				Grade:    g.GradeFormatted,
			})
		}
	}
	return records, nil
}

// Ping reports whether a Moodle host answers on its login page; no token is
// required, so it works for registered-but-unconnected platforms.
func Ping(host string, timeout time.Duration) bool {
	if timeout == 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(strings.TrimRight(host, "/") + loginPath)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

func fmtTokenURL(fileURL, token string) string {
	sep := "?"
	if strings.Contains(fileURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%stoken=%s", fileURL, sep, url.QueryEscape(token))
}
