// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package app

import (
	"context"
	"io"

	"github.com/gpuanalyzer/rga/core/log"
)

// LogFlags control the application logger.
type LogFlags struct {
	Level log.Severity `help:"The severity to enable logs at"`
	Style log.Style    `help:"The style of log output"`
}

func logDefaults() LogFlags {
	return LogFlags{
		Level: log.Info,
		Style: log.Normal,
	}
}

func prepareContext(ctx context.Context, flags *LogFlags, out io.Writer) context.Context {
	ctx = log.PutProcess(ctx, Name)
	ctx = log.PutFilter(ctx, log.SeverityFilter(flags.Level))
	ctx = log.PutHandler(ctx, log.Synchronized(flags.Style.Handler(log.To(out))))
	return ctx
}
