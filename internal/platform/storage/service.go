package storage

import (
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"leadcapture/pkg/utils"
)

var allowedExtensions = []string{"pdf", "jpg", "jpeg", "png", "doc", "docx", "xls", "xlsx", "csv", "txt"}

// StorageService defines methods for lead document storage
type StorageService interface {
	// SaveFile uploads a multipart file under key
	SaveFile(file *multipart.FileHeader, key string, c *fiber.Ctx) error

	IsFileExtensionAllowed(filename string) bool

	// GenerateKeyName returns a random object key keeping the file extension
	GenerateKeyName(filename string) string

	// URL returns the public location of an uploaded object
	URL(key string) string
}

type storageService struct {
	storage   fiber.Storage
	publicURL string
}

func NewStorageService(storage fiber.Storage, publicURL string) StorageService {
	return &storageService{
		storage:   storage,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (s *storageService) SaveFile(file *multipart.FileHeader, key string, c *fiber.Ctx) error {
	return c.SaveFileToStorage(file, key, s.storage)
}

func (s *storageService) IsFileExtensionAllowed(filename string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	return ext != "" && slices.Contains(allowedExtensions, ext)
}

func (s *storageService) GenerateKeyName(filename string) string {
	key := "leads/" + strings.ToLower(utils.GenerateRandomString(16))
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		key += ext
	}
	return key
}

func (s *storageService) URL(key string) string {
	return s.publicURL + "/" + key
}
