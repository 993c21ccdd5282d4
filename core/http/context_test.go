package http

import (
	"bufio"
	"strings"
	"testing"
)

func requestFromRaw(t *testing.T, raw string) *Request {
	t.Helper()
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("ReadRequest error: %v", err)
	}
	return req
}

func TestRequestCtxBasics(t *testing.T) {
	req := requestFromRaw(t, "GET /user/7 HTTP/1.1\r\nHost: a\r\nCookie: sid=s1\r\n\r\n")
	ctx := NewRequestCtx(req, map[string]string{"id": "7"})

	if ctx.Method() != "GET" || ctx.Path() != "/user/7" {
		t.Errorf("method/path = %s %s", ctx.Method(), ctx.Path())
	}
	if ctx.Param("id") != "7" {
		t.Errorf("Param(id) = %q", ctx.Param("id"))
	}
	if ctx.Cookie("sid") != "s1" {
		t.Errorf("Cookie(sid) = %q", ctx.Cookie("sid"))
	}
}

func TestRequestCtxUpgradeDetection(t *testing.T) {
	tests := []struct {
		connection string
		upgrade    bool
	}{
		{"upgrade", true},
		{"Upgrade", true},
		{"UPGRADE", true},
		{"keep-alive", false},
		{"", false},
	}

	for _, tt := range tests {
		req := &Request{Method: "GET", Path: "/", Connection: tt.connection}
		ctx := NewRequestCtx(req, nil)
		if ctx.IsUpgrade() != tt.upgrade {
			t.Errorf("IsUpgrade with Connection=%q = %v, want %v", tt.connection, ctx.IsUpgrade(), tt.upgrade)
		}
	}
}

func TestRequestCtxKind(t *testing.T) {
	tests := []struct {
		contentType string
		kind        ContentKind
	}{
		{"application/x-www-form-urlencoded", ContentForm},
		{"multipart/form-data; boundary=xyz", ContentMultipart},
		{"application/json", ContentJSON},
		{"application/json; charset=utf-8", ContentJSON},
		{"text/html", ContentUnknown},
		{"", ContentUnknown},
	}

	for _, tt := range tests {
		ctx := NewRequestCtx(&Request{ContentType: tt.contentType}, nil)
		if ctx.Kind() != tt.kind {
			t.Errorf("Kind for %q = %d, want %d", tt.contentType, ctx.Kind(), tt.kind)
		}
	}
}

func TestPayloadForm(t *testing.T) {
	req := &Request{
		ContentType: "application/x-www-form-urlencoded",
		Body:        []byte("name=go&lang=en"),
	}
	ctx := NewRequestCtx(req, nil)

	payload, err := ctx.Payload()
	if err != nil {
		t.Fatalf("Payload error: %v", err)
	}
	form, ok := payload.(map[string]string)
	if !ok {
		t.Fatalf("payload type = %T", payload)
	}
	if form["name"] != "go" || form["lang"] != "en" {
		t.Errorf("form = %v", form)
	}
}

func TestPayloadJSON(t *testing.T) {
	req := &Request{
		ContentType: "application/json",
		Body:        []byte(`{"name":"go","n":3}`),
	}
	ctx := NewRequestCtx(req, nil)

	payload, err := ctx.Payload()
	if err != nil {
		t.Fatalf("Payload error: %v", err)
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T", payload)
	}
	if obj["name"] != "go" {
		t.Errorf("payload = %v", obj)
	}
}

func TestPayloadJSONError(t *testing.T) {
	req := &Request{
		ContentType: "application/json",
		Body:        []byte(`{broken`),
	}
	ctx := NewRequestCtx(req, nil)

	if _, err := ctx.Payload(); err == nil {
		t.Error("Payload of broken JSON should fail")
	}

	// The parse result is cached, including the error.
	_, err2 := ctx.Payload()
	if err2 == nil {
		t.Error("second Payload call should return the cached error")
	}
}

func TestPayloadMultipart(t *testing.T) {
	body := strings.Join([]string{
		"--BOUNDARY",
		`Content-Disposition: form-data; name="field"`,
		"",
		"value",
		"--BOUNDARY",
		`Content-Disposition: form-data; name="file"; filename="a.txt"`,
		"Content-Type: text/plain",
		"",
		"file-bytes",
		"--BOUNDARY--",
		"",
	}, "\r\n")

	req := &Request{
		ContentType: "multipart/form-data; boundary=BOUNDARY",
		Body:        []byte(body),
	}
	ctx := NewRequestCtx(req, nil)

	payload, err := ctx.Payload()
	if err != nil {
		t.Fatalf("Payload error: %v", err)
	}
	form, ok := payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T", payload)
	}

	if string(form["field"].([]byte)) != "value" {
		t.Errorf("field = %q", form["field"])
	}
	upload, ok := form["file"].(*FileUpload)
	if !ok {
		t.Fatalf("file part type = %T", form["file"])
	}
	if upload.Name != "a.txt" || upload.MimeType != "text/plain" || string(upload.Bytes) != "file-bytes" {
		t.Errorf("upload = %+v", upload)
	}
}

func TestPayloadUnknownContentType(t *testing.T) {
	req := &Request{ContentType: "application/octet-stream", Body: []byte("xx")}
	ctx := NewRequestCtx(req, nil)

	payload, err := ctx.Payload()
	if err != nil {
		t.Fatalf("Payload error: %v", err)
	}
	if payload != nil {
		t.Errorf("payload = %v, want nil for unknown content type", payload)
	}
}
