package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Social-login Prometheus metrics. Defined in a standalone package to avoid
// import cycles between services and HTTP packages.

var (
	AuthorizeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_authorize_requests_total",
		Help: "Redirecciones de autorización iniciadas, por provider",
	}, []string{"provider"})

	CallbackResults = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_callback_results_total",
		Help: "Callbacks procesados, por provider y resultado (success/error code)",
	}, []string{"provider", "result"})

	ExchangeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "social_token_exchange_latency_ms",
		Help:    "Latencia del intercambio code→token en milisegundos",
		Buckets: prometheus.ExponentialBuckets(5, 2, 10),
	}, []string{"provider"})

	UsersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "social_users_created_total",
		Help: "Usuarios nuevos creados desde login social",
	})

	AccountsLinked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "social_accounts_linked_total",
		Help: "Cuentas sociales enlazadas a usuarios existentes, por provider",
	}, []string{"provider"})
)

// RegisterSocial registers the social metrics on the given registry (or default if nil).
func RegisterSocial(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		AuthorizeRequests,
		CallbackResults,
		ExchangeLatency,
		UsersCreated,
		AccountsLinked,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
