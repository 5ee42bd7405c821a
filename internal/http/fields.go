package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"healthmon/internal/service"
)

// formFields 先查表单体，再查 query string
type formFields struct {
	form  url.Values
	query url.Values
}

func (f formFields) Get(name string) (string, bool) {
	if vs, ok := f.form[name]; ok && len(vs) > 0 {
		return vs[0], true
	}
	if vs, ok := f.query[name]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}

var errBodyTooLarge = &service.PayloadError{Message: "Request body too large"}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// requestFields 取请求字段：Content-Type 是 JSON 时解析请求体，
// 否则依次取表单体和 query string（设备固件常用 x-www-form-urlencoded 或直接拼 URL）
func requestFields(w http.ResponseWriter, r *http.Request, maxBytes int64) (service.Fields, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}

	if isJSONContent(r.Header.Get("Content-Type")) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				return nil, errBodyTooLarge
			}
			return nil, service.ErrInvalidJSON
		}
		return service.ParseJSONFields(body)
	}

	if err := r.ParseForm(); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errBodyTooLarge
		}
		return nil, &service.PayloadError{Message: "Invalid form payload"}
	}
	return formFields{form: r.PostForm, query: r.URL.Query()}, nil
}
