package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
)

// FileUpload is a file part of a multipart form body.
type FileUpload struct {
	Name             string
	MimeType         string
	TransferEncoding string
	Bytes            []byte
}

func parsePayload(req *Request) (any, error) {
	contentType := req.ContentType
	if contentType == "" {
		return nil, nil
	}

	mediaType, mediaParams, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("parse content type: %w", err)
	}

	switch mediaType {
	case "application/x-www-form-urlencoded":
		return parseForm(req.Body)
	case "multipart/form-data":
		boundary := mediaParams["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart body without boundary")
		}
		return parseMultipart(req.Body, boundary)
	case "application/json":
		var value any
		if err := json.Unmarshal(req.Body, &value); err != nil {
			return nil, fmt.Errorf("parse json body: %w", err)
		}
		return value, nil
	default:
		return nil, nil
	}
}

func parseForm(body []byte) (map[string]string, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}

	form := make(map[string]string, len(values))
	for key := range values {
		form[key] = values.Get(key)
	}
	return form, nil
}

func parseMultipart(body []byte, boundary string) (map[string]any, error) {
	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	form := make(map[string]any)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse multipart body: %w", err)
		}

		data, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("read multipart part: %w", err)
		}

		if fileName := part.FileName(); fileName != "" {
			form[part.FormName()] = &FileUpload{
				Name:             fileName,
				MimeType:         part.Header.Get("Content-Type"),
				TransferEncoding: part.Header.Get("Content-Transfer-Encoding"),
				Bytes:            data,
			}
		} else {
			form[part.FormName()] = data
		}
	}

	return form, nil
}
