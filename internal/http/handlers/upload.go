package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/jobscout/jobscout/internal/apperrors"
	"github.com/jobscout/jobscout/internal/storage"
)

// readFormFile pulls one multipart file out of the request and validates it
// against the slot's rule.
func readFormFile(ctx *gin.Context, field string, rule storage.FileRule) (string, []byte, *apperrors.AppError) {
	header, err := ctx.FormFile(field)
	if err != nil {
		return "", nil, apperrors.Validation("Please upload a file.").WithCause(err)
	}

	if err := rule.Check(header.Filename, header.Size); err != nil {
		if appErr, ok := apperrors.As(err); ok {
			return "", nil, appErr
		}
		return "", nil, apperrors.Validation(err.Error())
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, apperrors.Internal(err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, apperrors.Internal(err)
	}

	return header.Filename, data, nil
}
