// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
)

var _ rueidishook.Hook = (*errorLogHook)(nil)

// errorLogHook logs failed commands at warn level. Nil replies are not failures.
type errorLogHook struct {
	component string
}

// WithErrorLogging wraps client so that every failed command is logged with component.
func WithErrorLogging(client rueidis.Client, component string) rueidis.Client {
	return rueidishook.WithHook(client, errorLogHook{component: component})
}

func (h errorLogHook) log(ctx context.Context, cmd []string, err error) {
	if err == nil || rueidis.IsRedisNil(err) {
		return
	}
	name := ""
	if len(cmd) > 0 {
		name = cmd[0]
	}
	slog.WarnContext(ctx, "redis command failed",
		slog.String("component", h.component),
		slog.String("command", name),
		slog.Any("error", err),
	)
}

func (h errorLogHook) Do(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	res := client.Do(ctx, cmd)
	h.log(ctx, cmd.Commands(), res.Error())
	return res
}

func (h errorLogHook) DoMulti(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
	resps := client.DoMulti(ctx, multi...)
	for i, res := range resps {
		h.log(ctx, multi[i].Commands(), res.Error())
	}
	return resps
}

func (h errorLogHook) DoCache(client rueidis.Client, ctx context.Context, cmd rueidis.Cacheable, ttl time.Duration) rueidis.RedisResult {
	res := client.DoCache(ctx, cmd, ttl)
	h.log(ctx, cmd.Commands(), res.Error())
	return res
}

func (h errorLogHook) DoMultiCache(client rueidis.Client, ctx context.Context, multi ...rueidis.CacheableTTL) []rueidis.RedisResult {
	resps := client.DoMultiCache(ctx, multi...)
	for i, res := range resps {
		h.log(ctx, multi[i].Cmd.Commands(), res.Error())
	}
	return resps
}

func (h errorLogHook) Receive(client rueidis.Client, ctx context.Context, subscribe rueidis.Completed, fn func(msg rueidis.PubSubMessage)) error {
	err := client.Receive(ctx, subscribe, fn)
	h.log(ctx, subscribe.Commands(), err)
	return err
}

func (h errorLogHook) DoStream(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResultStream {
	return client.DoStream(ctx, cmd)
}

func (h errorLogHook) DoMultiStream(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) rueidis.MultiRedisResultStream {
	return client.DoMultiStream(ctx, multi...)
}
