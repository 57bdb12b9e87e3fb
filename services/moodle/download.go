package moodle

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/lmsexplorer/lmsexplorer/core/lms"
)

// Download appends the session token to the file URL as a query parameter and
// streams the response body to dest, creating parent directories as needed.
func (c *Client) Download(fileURL, dest string) error {
	if !c.IsConnected() {
		return lms.ErrNotConnected
	}

	resp, err := c.http.Get(fmtTokenURL(fileURL, c.token))
	if err != nil {
		return errors.Wrap(err, "downloading "+fileURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("downloading %s: %s", fileURL, resp.Status)
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating destination directory")
		}
	}
	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrap(err, "creating "+dest)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return errors.Wrap(err, "writing "+dest)
	}
	if c.logger != nil {
		c.logger.Info("downloaded file", map[string]interface{}{"url": fileURL, "dest": dest})
	}
	return nil
}
