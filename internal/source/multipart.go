package source

import (
	"context"
	"io"
	"mime/multipart"

	"github.com/xxxsen/mdkeep/internal/model"
)

type uploadedFile struct {
	header *multipart.FileHeader
}

// Uploaded wraps files received from a multipart form, keeping the form order.
func Uploaded(headers []*multipart.FileHeader) []model.FileHandle {
	out := make([]model.FileHandle, 0, len(headers))
	for _, h := range headers {
		out = append(out, &uploadedFile{header: h})
	}
	return out
}

func (f *uploadedFile) Name() string {
	return f.header.Filename
}

func (f *uploadedFile) ReadText(_ context.Context) (string, error) {
	opened, err := f.header.Open()
	if err != nil {
		return "", readError(f.header.Filename, err)
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		return "", readError(f.header.Filename, err)
	}
	return decodeText(f.header.Filename, data)
}
