package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"order-board/internal/models"
)

// ParseOrderForm reads the full field set posted by the form overlay or the
// inline editor. The "image" file is optional; callers must closeUpload the
// returned upload once the service call is done.
func ParseOrderForm(c *gin.Context, maxMemory int64) (models.OrderInput, *models.ImageUpload, error) {
	if err := parseMultipart(c, maxMemory); err != nil {
		return models.OrderInput{}, nil, err
	}

	input := models.OrderInput{
		Name:   strings.TrimSpace(c.PostForm("name")),
		Member: strings.TrimSpace(c.PostForm("member")),
		Source: strings.TrimSpace(c.PostForm("source")),
		Note:   strings.TrimSpace(c.PostForm("note")),
		Owner:  strings.TrimSpace(c.PostForm("owner")),
		Paid:   checked(c.PostForm("paid")),
	}
	if raw := c.PostForm("state"); raw != "" {
		state, err := models.ParseOrderState(raw)
		if err != nil {
			return models.OrderInput{}, nil, fmt.Errorf("state %q: %w", raw, err)
		}
		input.State = state
	}

	upload, err := formImage(c)
	if err != nil {
		return models.OrderInput{}, nil, err
	}
	return input, upload, nil
}

// ParseOrderPatchForm is the partial variant used by PATCH: only the fields
// present in the form end up in the patch.
func ParseOrderPatchForm(c *gin.Context, maxMemory int64) (models.OrderPatch, *models.ImageUpload, error) {
	if err := parseMultipart(c, maxMemory); err != nil {
		return models.OrderPatch{}, nil, err
	}

	var patch models.OrderPatch
	for key, dst := range map[string]**string{
		"name":   &patch.Name,
		"member": &patch.Member,
		"source": &patch.Source,
		"note":   &patch.Note,
		"owner":  &patch.Owner,
	} {
		if v, ok := c.GetPostForm(key); ok {
			v = strings.TrimSpace(v)
			*dst = &v
		}
	}
	if v, ok := c.GetPostForm("paid"); ok {
		paid := checked(v)
		patch.Paid = &paid
	}
	if raw, ok := c.GetPostForm("state"); ok {
		state, err := models.ParseOrderState(raw)
		if err != nil {
			return models.OrderPatch{}, nil, fmt.Errorf("state %q: %w", raw, err)
		}
		patch.State = &state
	}

	upload, err := formImage(c)
	if err != nil {
		return models.OrderPatch{}, nil, err
	}
	return patch, upload, nil
}

func parseMultipart(c *gin.Context, maxMemory int64) error {
	if c.ContentType() != "multipart/form-data" {
		return nil
	}
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		return fmt.Errorf("parse multipart form: %w", err)
	}
	return nil
}

func formImage(c *gin.Context) (*models.ImageUpload, error) {
	if c.ContentType() != "multipart/form-data" {
		return nil, nil
	}

	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	// browsers send an empty part when no file was picked
	if header.Size == 0 && header.Filename == "" {
		return nil, nil
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	return &models.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	}, nil
}

func closeUpload(upload *models.ImageUpload) {
	if upload == nil {
		return
	}
	if closer, ok := upload.Body.(io.Closer); ok {
		_ = closer.Close()
	}
}

func checked(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
