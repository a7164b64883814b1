package models

import "io"

// ImageUpload is a file picked in the form, not yet stored.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}
