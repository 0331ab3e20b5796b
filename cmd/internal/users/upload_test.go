package users

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"opsboard/cmd/identity"
)

func multipartUpload(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadProfilePicture(t *testing.T) {
	store := identity.NewMemoryStore()
	u, err := store.Create(context.Background(), identity.CreateInput{
		Firstname:    "Ada",
		Lastname:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$hash",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	dir := t.TempDir()
	mux := http.NewServeMux()
	NewHandler(store, nil, nil, dir).Register(mux, noGuard)

	body, contentType := multipartUpload(t, map[string]string{
		"employeeId": strconv.FormatInt(u.ID, 10),
		"firstname":  "Ada",
		"lastname":   "Lovelace",
	}, "portrait.png", []byte("not really a png"))

	req := httptest.NewRequest(http.MethodPost, "/users/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("upload: %d, body %s", rec.Code, rec.Body)
	}
	var resp struct {
		Message string `json:"message"`
		File    string `json:"file"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.HasPrefix(resp.File, "/uploads/profile/Ada_Lovelace_") || !strings.HasSuffix(resp.File, ".png") {
		t.Fatalf("file path = %q", resp.File)
	}

	// The file landed on disk.
	name := filepath.Base(resp.File)
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read uploaded file: %v", err)
	}
	if string(raw) != "not really a png" {
		t.Fatalf("uploaded content = %q", raw)
	}

	// And the user row points at it.
	got, err := store.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ProfileImage == nil || *got.ProfileImage != resp.File {
		t.Fatalf("profile image = %v, want %q", got.ProfileImage, resp.File)
	}
}

func TestUploadValidation(t *testing.T) {
	store := identity.NewMemoryStore()
	mux := http.NewServeMux()
	NewHandler(store, nil, nil, t.TempDir()).Register(mux, noGuard)

	cases := []struct {
		name     string
		fields   map[string]string
		filename string
		want     string
	}{
		{"missing file", map[string]string{"employeeId": "1"}, "", "No file uploaded"},
		{"missing employee id", map[string]string{}, "a.png", "Missing employeeId"},
		{"bad employee id", map[string]string{"employeeId": "zero"}, "a.png", "Missing employeeId"},
		{"bad extension", map[string]string{"employeeId": "1"}, "a.gif", "Invalid file type"},
	}
	for _, tc := range cases {
		body, contentType := multipartUpload(t, tc.fields, tc.filename, []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/users/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, body %s", tc.name, rec.Code, rec.Body)
		}
		if !strings.Contains(rec.Body.String(), tc.want) {
			t.Fatalf("%s: body %s, want %q", tc.name, rec.Body, tc.want)
		}
	}

	// Unknown employee id reaches the store and comes back 404.
	body, contentType := multipartUpload(t, map[string]string{"employeeId": "99"}, "a.jpg", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/users/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user: status %d, body %s", rec.Code, rec.Body)
	}
}
