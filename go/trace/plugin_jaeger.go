/*
Copyright 2026 The Waggle Authors.

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

package trace

import (
	"io"

	"github.com/opentracing/opentracing-go"
	"github.com/spf13/pflag"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"waggle.dev/waggle/go/hive/log"
)

var (
	jaegerAgentHost string
	samplingRate    = 0.1
)

func registerJaegerFlags(fs *pflag.FlagSet) {
	fs.StringVar(&jaegerAgentHost, "jaeger-agent-host", jaegerAgentHost, "host and port in host:port format to send jaeger spans to")
	fs.Float64Var(&samplingRate, "tracing-sampling-rate", samplingRate, "sampling rate for the jaeger const sampler")
}

// newJaegerTracerFromEnv configures jaeger from the standard JAEGER_*
// environment variables and lets the flags override the agent address and
// the sampler. The flag-provided service name wins over the environment.
func newJaegerTracerFromEnv(serviceName string) (tracingService, io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	if jaegerAgentHost != "" {
		cfg.Reporter.LocalAgentHostPort = jaegerAgentHost
	}
	log.Infof("Tracing to: %v as %v", cfg.Reporter.LocalAgentHostPort, cfg.ServiceName)

	cfg.Sampler = &jaegercfg.SamplerConfig{
		Type:  jaeger.SamplerTypeConst,
		Param: samplingRate,
	}
	log.Infof("Tracing sampling rate: %v", samplingRate)

	var opts []jaegercfg.Option
	if enableLogging {
		opts = append(opts, jaegercfg.Logger(&traceLogger{}))
	} else if cfg.Reporter.LogSpans {
		log.Warningf("JAEGER_REPORTER_LOG_SPANS was set, but --tracing-enable-logging is not, spans will not be logged")
	}

	tracer, closer, err := cfg.NewTracer(opts...)
	if err != nil {
		return nil, nil, err
	}
	opentracing.SetGlobalTracer(tracer)
	return openTracingService{Tracer: tracer}, closer, nil
}

func init() {
	tracingBackendFactories["opentracing-jaeger"] = newJaegerTracerFromEnv
}
