// controllers/document.go
package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"abstract-review-api/config"
	"abstract-review-api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func uploadBasePath() string {
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	return uploadPath
}

func maxUploadBytes() int64 {
	maxMB, err := strconv.Atoi(os.Getenv("MAX_UPLOAD_MB"))
	if err != nil || maxMB <= 0 {
		maxMB = 10
	}
	return int64(maxMB) * 1024 * 1024
}

// saveUploadedFile stores a multipart file on disk under a generated name and
// records its metadata. The rest of the system refers to it by file_id only.
func saveUploadedFile(header *multipart.FileHeader, uploadedBy int, subdir string) (*models.FileUpload, error) {
	if header.Size > maxUploadBytes() {
		return nil, fmt.Errorf("file exceeds the %d MB limit", maxUploadBytes()/(1024*1024))
	}

	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	hasher := sha256.New()
	dir := filepath.Join(uploadBasePath(), subdir)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	storedName := uuid.NewString() + strings.ToLower(filepath.Ext(header.Filename))
	storedPath := filepath.Join(dir, storedName)
	dst, err := os.Create(storedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(io.MultiWriter(dst, hasher), src)
	if err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	now := time.Now()
	file := models.FileUpload{
		OriginalName: filepath.Base(header.Filename),
		StoredPath:   storedPath,
		FileSize:     written,
		MimeType:     header.Header.Get("Content-Type"),
		FileHash:     hex.EncodeToString(hasher.Sum(nil)),
		UploadedBy:   uploadedBy,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}
	if !file.IsValidDocumentType() {
		os.Remove(storedPath)
		return nil, fmt.Errorf("unsupported file type %s", file.MimeType)
	}

	if err := config.DB.Create(&file).Error; err != nil {
		os.Remove(storedPath)
		return nil, fmt.Errorf("failed to record file: %w", err)
	}
	return &file, nil
}

// UploadFile stores a standalone attachment and returns its file_id for use
// in a later submit or resubmit call.
func UploadFile(c *gin.Context) {
	userID, _ := c.Get("userID")

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}

	file, err := saveUploadedFile(header, userID.(int), "attachments")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"file":    file,
	})
}

// DownloadFile streams a stored file back to its uploader or staff.
func DownloadFile(c *gin.Context) {
	userID, _ := c.Get("userID")
	roleID, _ := c.Get("roleID")

	fileID, err := strconv.Atoi(c.Param("file_id"))
	if err != nil || fileID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file ID"})
		return
	}

	var file models.FileUpload
	if err := config.DB.Where("file_id = ? AND delete_at IS NULL", fileID).First(&file).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	if roleID.(int) != models.RoleStaff && file.UploadedBy != userID.(int) {
		c.JSON(http.StatusForbidden, gin.H{"error": "No access to this file"})
		return
	}

	if _, err := os.Stat(file.StoredPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File missing from storage"})
		return
	}

	c.FileAttachment(file.StoredPath, file.OriginalName)
}
