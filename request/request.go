/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package request

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

func ToJsonReq(payload interface{}) (*bytes.Buffer, error) {
	c, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(c), nil
}

// Serve runs a JSON request against h and decodes the body into response when
// it is not nil.
func Serve(h http.Handler, method, route string, payload interface{}, headers map[string]string, response interface{}) (*httptest.ResponseRecorder, error) {
	body := &bytes.Buffer{}
	if payload != nil {
		var err error
		body, err = ToJsonReq(payload)
		if err != nil {
			return nil, err
		}
	}
	req := httptest.NewRequest(method, route, body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if response != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), response); err != nil {
			return rec, err
		}
	}
	return rec, nil
}
