//go:build wireinject

package bootstrap

import (
	"context"
	"net/http"

	httpserver "txscope/internal/infrastructure/http"

	"github.com/google/wire"
)

var infraSet = wire.NewSet(
	ProvideLogger,
	ProvideConfig,
	ProvideStore,
	ProvideUnitOfWork,
	ProvideIdempotency,
	ProvideTagService,
	ProvideReadiness,
)

// InitAPI builds the HTTP handler and the cleanup releasing store and redis.
func InitAPI(ctx context.Context) (http.Handler, func(), error) {
	wire.Build(
		infraSet,
		httpserver.NewServer,
		ProvideHandler,
	)
	return nil, nil, nil
}
