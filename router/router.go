package router

import (
	"io"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
)

// New returns a mux serving liveness, readiness and metrics endpoints next
// to a huma API configured by opts.
func New(
	title, version string,
	readiness http.HandlerFunc,
	writeMetrics func(io.Writer),
	opts ...func(huma.API),
) http.Handler {
	set := metrics.NewSet()
	set.RegisterMetricsWriter(writeMetrics)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /liveness", func(http.ResponseWriter, *http.Request) {})
	mux.HandleFunc("GET /readiness", readiness)
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) { set.WritePrometheus(w) })

	config := huma.DefaultConfig(title, version)
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		SecurityBasic: {Type: "http", Scheme: "basic"},
	}
	api := humago.New(mux, config)
	for _, opt := range opts {
		opt(api)
	}

	return mux
}

// SecurityBasic names the HTTP basic authentication scheme in the OpenAPI document.
const SecurityBasic = "basic"

func OptUseMiddleware(middlewares ...func(huma.Context, func(huma.Context))) func(huma.API) {
	return func(api huma.API) { api.UseMiddleware(middlewares...) }
}

// OptGroup applies opts to a group of api mounted at prefix.
func OptGroup(prefix string, opts ...func(huma.API)) func(huma.API) {
	return func(api huma.API) {
		group := huma.NewGroup(api, prefix)
		for _, opt := range opts {
			opt(group)
		}
	}
}

// OptModifier applies modify to every operation registered afterward.
// It must be used inside [OptGroup].
func OptModifier(modify func(*huma.Operation)) func(huma.API) {
	return func(api huma.API) {
		group, ok := api.(*huma.Group)
		if !ok {
			panic("router: OptModifier used outside of OptGroup")
		}
		group.UseSimpleModifier(modify)
	}
}

// OptSecurity marks every operation registered afterward as requiring scheme.
// It must be used inside [OptGroup].
func OptSecurity(scheme string) func(huma.API) {
	return OptModifier(func(op *huma.Operation) {
		op.Security = append(op.Security, map[string][]string{scheme: {}})
	})
}

func OptAutoRegister(server any) func(huma.API) {
	return func(api huma.API) { huma.AutoRegister(api, server) }
}
