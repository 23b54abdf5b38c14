package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
)

// Body is an encoded request payload.
type Body struct {
	Data []byte
	// ContentType is set for payloads that are not JSON (multipart).
	ContentType string
}

// JSONBody encodes v as the request payload.
func JSONBody(v any) (Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Body{}, fmt.Errorf("store: encoding body: %w", err)
	}
	return Body{Data: data}, nil
}

// FilePart is a file attached to a multipart body.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// MultipartBody builds a multipart/form-data payload from plain fields and
// one file.
func MultipartBody(fields map[string]string, file FilePart) (Body, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return Body{}, fmt.Errorf("store: writing field %s: %w", name, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.FileName))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return Body{}, fmt.Errorf("store: creating file part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return Body{}, fmt.Errorf("store: writing file part: %w", err)
	}

	if err := writer.Close(); err != nil {
		return Body{}, fmt.Errorf("store: closing multipart body: %w", err)
	}
	return Body{Data: buf.Bytes(), ContentType: writer.FormDataContentType()}, nil
}
