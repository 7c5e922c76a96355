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
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/zenvest/ledger/config"
	redis_db "github.com/zenvest/ledger/internal/redis-db"
)

const (
	WEBHOOK_QUEUE      = "new:webhook"
	webhookMaxRetries  = 5
	webhookContentType = "application/json"
)

// NewWebhook represents the structure of a webhook notification.
type NewWebhook struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"data"`
}

// WebhookQueue hands committed events to the asynq worker that delivers them.
type WebhookQueue struct {
	client *asynq.Client
}

// RedisConnOpt builds asynq connection options from a bare address or a redis:// URL.
func RedisConnOpt(dns string) (asynq.RedisClientOpt, error) {
	opts, err := redis_db.ParseRedisURL(dns)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opts.Addr,
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}, nil
}

func NewWebhookQueue(redisDns string) (*WebhookQueue, error) {
	opt, err := RedisConnOpt(redisDns)
	if err != nil {
		return nil, err
	}
	return &WebhookQueue{client: asynq.NewClient(opt)}, nil
}

// SendWebhook enqueues a webhook notification task.
func (q *WebhookQueue) SendWebhook(ctx context.Context, hook NewWebhook) error {
	payload, err := json.Marshal(hook)
	if err != nil {
		return err
	}
	task := asynq.NewTask(WEBHOOK_QUEUE, payload)
	_, err = q.client.EnqueueContext(ctx, task, asynq.Queue(WEBHOOK_QUEUE), asynq.MaxRetry(webhookMaxRetries))
	return err
}

func (q *WebhookQueue) Close() error {
	return q.client.Close()
}

// ProcessWebhook delivers one queued notification. A non-2xx response is
// returned as an error so asynq retries the task.
func ProcessWebhook(ctx context.Context, task *asynq.Task) error {
	conf, err := config.Fetch()
	if err != nil {
		return err
	}
	if conf.Notification.Webhook.Url == "" {
		return nil
	}

	var hook NewWebhook
	if err := json.Unmarshal(task.Payload(), &hook); err != nil {
		logrus.Errorf("Error unmarshaling task payload: %v", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	logrus.WithField("event", hook.Event).Debug("processing webhook")
	return processHTTP(ctx, hook, conf.Notification.Webhook)
}

func processHTTP(ctx context.Context, hook NewWebhook, webhook config.WebhookConfig) error {
	jsonData, err := json.Marshal(hook)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.Url, bytes.NewReader(jsonData))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", webhookContentType)
	for key, value := range webhook.Headers {
		req.Header.Set(key, value)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logrus.Error(err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s rejected with status %d", hook.Event, resp.StatusCode)
	}
	return nil
}
