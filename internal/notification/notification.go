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
package notification

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zenvest/ledger/config"
	"github.com/zenvest/ledger/request"
)

const (
	EventSystemError = "system.error"
	notifyTimeout    = 5 * time.Second
)

type errorEvent struct {
	Event string    `json:"event"`
	Data  errorData `json:"data"`
}

type errorData struct {
	Project string    `json:"project"`
	Error   string    `json:"error"`
	Time    time.Time `json:"time"`
}

// NotifyError logs systemError and posts it to the configured webhook URL.
// It blocks for at most a few seconds so it can run right before the process exits.
func NotifyError(systemError error) {
	logrus.Error(systemError)

	conf, err := config.Fetch()
	if err != nil || conf.Notification.Webhook.Url == "" {
		return
	}
	if err := postError(conf, systemError); err != nil {
		logrus.Errorf("error notification not delivered: %v", err)
	}
}

func postError(conf *config.Configuration, systemError error) error {
	payload, err := request.ToJsonReq(errorEvent{
		Event: EventSystemError,
		Data: errorData{
			Project: conf.ProjectName,
			Error:   systemError.Error(),
			Time:    time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conf.Notification.Webhook.Url, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range conf.Notification.Webhook.Headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}
