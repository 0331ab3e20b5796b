package users

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"opsboard/cmd/internal/web"
)

// Profile images are small; reject anything over 5 MiB before it hits disk.
const maxUploadBytes = 5 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// handleUpload accepts a multipart profile picture, stores it under the
// upload directory, and records its public path on the user row.
// Form fields: image (file), employeeId, firstname, lastname.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+(64<<10))

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		web.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	employeeID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("employeeId")), 10, 64)
	if err != nil || employeeID <= 0 {
		web.WriteError(w, http.StatusBadRequest, "Missing employeeId")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		web.WriteError(w, http.StatusBadRequest, "Invalid file type. Only JPG and PNG are allowed.")
		return
	}

	name := uploadFilename(r.FormValue("firstname"), r.FormValue("lastname"), employeeID, ext)

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.log.Error("users.upload.mkdir", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Server error during upload")
		return
	}

	dst, err := os.Create(filepath.Join(h.uploadDir, name))
	if err != nil {
		h.log.Error("users.upload.create", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Server error during upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		h.log.Error("users.upload.write", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Server error during upload")
		return
	}
	if err := dst.Close(); err != nil {
		h.log.Error("users.upload.close", "error", err)
		web.WriteError(w, http.StatusInternalServerError, "Server error during upload")
		return
	}

	webPath := "/uploads/profile/" + name
	if err := h.store.SetProfileImage(r.Context(), employeeID, webPath); err != nil {
		h.writeStoreErr(w, "users.upload.save", err)
		return
	}

	web.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Profile picture uploaded successfully",
		"file":    webPath,
	})
}

// uploadFilename builds a collision-resistant name from the submitted
// display name plus a timestamp, falling back to the employee id.
func uploadFilename(firstname, lastname string, employeeID int64, ext string) string {
	first := sanitizeNamePart(firstname)
	last := sanitizeNamePart(lastname)
	ts := time.Now().UnixMilli()
	if first == "" || last == "" {
		return fmt.Sprintf("employee_%d_%d%s", employeeID, ts, ext)
	}
	return fmt.Sprintf("%s_%s_%d%s", first, last, ts, ext)
}

// sanitizeNamePart keeps letters, digits, dashes, and underscores; spaces
// become underscores, everything else is dropped.
func sanitizeNamePart(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '-' || r == '_':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
