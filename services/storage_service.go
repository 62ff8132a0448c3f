package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// StorageService writes uploaded files to local disk and issues time-limited
// signed URLs for downloads. File keys are content-hash derived so repeated
// uploads of the same bytes land on the same key.
type StorageService struct {
	storagePath  string
	signedSecret []byte
	signedTTL    time.Duration
	maxFileSize  int64
	allowedTypes []string
}

func NewStorageService(storagePath, signedSecret string, signedTTL time.Duration, maxFileSize int64, allowedTypes []string) *StorageService {
	if signedTTL <= 0 {
		signedTTL = 15 * time.Minute
	}
	if maxFileSize <= 0 {
		maxFileSize = 50 * 1024 * 1024
	}
	if len(allowedTypes) == 0 {
		allowedTypes = []string{"application/pdf", "image/jpeg", "image/png", "image/tiff"}
	}
	return &StorageService{
		storagePath:  storagePath,
		signedSecret: []byte(signedSecret),
		signedTTL:    signedTTL,
		maxFileSize:  maxFileSize,
		allowedTypes: allowedTypes,
	}
}

// Save stores an uploaded file and returns its storage key and content hash
func (s *StorageService) Save(file *multipart.FileHeader) (fileKey, fileHash string, err error) {
	if err := s.validateFile(file); err != nil {
		return "", "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, src); err != nil {
		return "", "", fmt.Errorf("failed to hash upload: %w", err)
	}
	fileHash = hex.EncodeToString(hash.Sum(nil))

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	storageDir := filepath.Join(s.storagePath, "documents", fileHash[:2])
	if err := os.MkdirAll(storageDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	ext := filepath.Ext(file.Filename)
	fileKey = filepath.Join("documents", fileHash[:2], fileHash+ext)
	filePath := filepath.Join(s.storagePath, "documents", fileHash[:2], fileHash+ext)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filePath)
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	return fileKey, fileHash, nil
}

// Open returns a reader over a stored file
func (s *StorageService) Open(fileKey string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.storagePath, fileKey))
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file %s: %w", fileKey, err)
	}
	return f, nil
}

// Delete removes a stored file; absent files are not an error
func (s *StorageService) Delete(fileKey string) error {
	err := os.Remove(filepath.Join(s.storagePath, fileKey))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete stored file %s: %w", fileKey, err)
	}
	return nil
}

// FilePath returns the absolute path for a storage key
func (s *StorageService) FilePath(fileKey string) string {
	return filepath.Join(s.storagePath, fileKey)
}

// SignedURL builds a download path with an HMAC signature and expiry. The
// signature covers both the key and the expiry timestamp.
func (s *StorageService) SignedURL(fileKey string) string {
	expires := time.Now().Add(s.signedTTL).Unix()
	sig := s.sign(fileKey, expires)
	return fmt.Sprintf("/api/files/%s?expires=%d&signature=%s", fileKey, expires, sig)
}

// VerifySignature checks a signed download request. Expired or tampered
// signatures are rejected.
func (s *StorageService) VerifySignature(fileKey, expiresStr, signature string) error {
	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid expiry in signed url")
	}
	if time.Now().Unix() > expires {
		return fmt.Errorf("signed url has expired")
	}
	expected := s.sign(fileKey, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

func (s *StorageService) sign(fileKey string, expires int64) string {
	mac := hmac.New(sha256.New, s.signedSecret)
	fmt.Fprintf(mac, "%s:%d", fileKey, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *StorageService) validateFile(file *multipart.FileHeader) error {
	if file.Size > s.maxFileSize {
		return fmt.Errorf("file size exceeds %d byte limit", s.maxFileSize)
	}

	mimeType := file.Header.Get("Content-Type")
	for _, t := range s.allowedTypes {
		if t == mimeType {
			return nil
		}
	}
	return fmt.Errorf("unsupported document type: %s", mimeType)
}
