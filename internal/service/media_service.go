package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/rs/zerolog"

	"chirpnet/api/internal/ids"
	"chirpnet/api/internal/media/sniffer"
	"chirpnet/api/internal/storage"
)

const maxImageBytes = 5 << 20

var (
	ErrImageTooLarge    = errors.New("image exceeds size limit")
	ErrUnsupportedImage = errors.New("unsupported image type")
)

// MediaService stores profile images. Resizing is out of scope here;
// originals go straight to the object store.
type MediaService struct {
	store *storage.ObjectStore
	log   zerolog.Logger
}

func NewMediaService(store *storage.ObjectStore, log zerolog.Logger) *MediaService {
	return &MediaService{store: store, log: log}
}

type UploadImageInput struct {
	UserID string
	File   multipart.File
	Header *multipart.FileHeader
}

// UploadImage sniffs the real content type, rejects anything that is not
// a raster image, and returns the public URL of the stored object.
func (s *MediaService) UploadImage(ctx context.Context, input UploadImageInput) (string, error) {
	if input.Header.Size > maxImageBytes {
		return "", ErrImageTooLarge
	}

	result, head, err := sniffer.Detect(input.File)
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return "", ErrUnsupportedImage
		}
		return "", err
	}

	objectName := fmt.Sprintf("%s/%s.%s", input.UserID, ids.New(), result.Type)
	body := io.MultiReader(bytes.NewReader(head), input.File)

	if err := s.store.Put(ctx, objectName, body, input.Header.Size, result.MIME); err != nil {
		return "", err
	}

	url := s.store.URL(objectName)
	s.log.Info().Str("user_id", input.UserID).Str("object", objectName).Msg("image stored")
	return url, nil
}
