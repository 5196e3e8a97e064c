package clinicapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/apperror"
	"github.com/WailSalutem-Health-Care/clinic-gateway/internal/consultation"
)

// UploadFile sends one local file to the backend's upload endpoint as the
// multipart field "file" and returns the stored path.
func (c *Client) UploadFile(ctx context.Context, file consultation.PendingFile) (string, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return "", apperror.Transport(fmt.Errorf("open %s: %w", file.Name, err))
	}
	defer f.Close()

	name := file.Name
	if name == "" {
		name = filepath.Base(file.Path)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", apperror.Transport(fmt.Errorf("read %s: %w", name, err))
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload: %w", err)
	}

	var resp struct {
		FilePath string `json:"file_path"`
	}
	if err := c.send(ctx, http.MethodPost, "/files", nil, &body, mw.FormDataContentType(), &resp); err != nil {
		return "", err
	}
	if resp.FilePath == "" {
		return "", missingField("file_path")
	}
	return resp.FilePath, nil
}
