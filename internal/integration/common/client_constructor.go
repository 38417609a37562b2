package common

import (
	"github.com/futig/guardrails-agent/internal/config"
	pkgHTTP "github.com/futig/guardrails-agent/pkg/http"
	"go.uber.org/zap"
)

const userAgent = "guardrails-agent/1.0"

// NewBaseConnector builds the HTTP connector shared by every model call.
// token is sent as a bearer credential.
func NewBaseConnector(cfg config.HTTPClientConfig, token string, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(
		connCfg,
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(token),
		pkgHTTP.WithUserAgent(userAgent),
	)
}
