package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// File kinds recognized by the content store.
const (
	FileKindAIGenerated   = "ai_generated"
	FileKindStudentUpload = "student_upload"
	FileKindTeacherUpload = "teacher_upload"
)

// File is one stored artifact. JSONData carries the content payload whose
// shape depends on the artifact kind (quiz, summary, mindmap, upload).
type File struct {
	FileID   string          `json:"fileId"`
	FileName string          `json:"fileName"`
	FileType string          `json:"fileType"`
	JSONData json.RawMessage `json:"jsonData"`
}

// CreateFileRequest is the payload for persisting a new artifact.
type CreateFileRequest struct {
	FileName string          `json:"fileName"`
	FileType string          `json:"fileType"`
	JSONData json.RawMessage `json:"jsonData"`
	ChatID   string          `json:"chatId"`
}

// UpdateFileRequest replaces an artifact's content.
type UpdateFileRequest struct {
	FileName string          `json:"fileName"`
	FileType string          `json:"fileType"`
	JSONData json.RawMessage `json:"jsonData"`
}

// CreateFile persists a new artifact and returns its id.
func (c *Client) CreateFile(ctx context.Context, req CreateFileRequest) (string, error) {
	var resp struct {
		FileID string `json:"fileId"`
	}
	if err := c.do(ctx, http.MethodPost, "/files/", req, &resp); err != nil {
		return "", fmt.Errorf("create file %q: %w", req.FileName, err)
	}
	return resp.FileID, nil
}

// GetFile reads one artifact's content by id.
func (c *Client) GetFile(ctx context.Context, fileID string) (File, error) {
	var f File
	path := "/files/" + url.PathEscape(fileID)
	if err := c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return File{}, fmt.Errorf("get file %s: %w", fileID, err)
	}
	if f.FileID == "" {
		f.FileID = fileID
	}
	return f, nil
}

// UpdateFile replaces an artifact's content.
func (c *Client) UpdateFile(ctx context.Context, fileID string, req UpdateFileRequest) error {
	path := "/files/" + url.PathEscape(fileID)
	if err := c.do(ctx, http.MethodPatch, path, req, nil); err != nil {
		return fmt.Errorf("update file %s: %w", fileID, err)
	}
	return nil
}

// ListFiles returns every artifact visible to the current user.
func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	var files []File
	if err := c.do(ctx, http.MethodGet, "/files/list/", nil, &files); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// UploadFile registers an uploaded document for a chat. The file kind is
// derived from the uploader's role.
func (c *Client) UploadFile(ctx context.Context, chatID, fileName, role string) (string, error) {
	kind := FileKindTeacherUpload
	if role == "student" {
		kind = FileKindStudentUpload
	}
	return c.CreateFile(ctx, CreateFileRequest{
		FileName: fileName,
		FileType: kind,
		JSONData: json.RawMessage(`{}`),
		ChatID:   chatID,
	})
}
