// Package config builds the filterkit server from flags, env vars and .env file
package config

import (
	"flag"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cshum/filterkit"
	"github.com/cshum/filterkit/filterpath"
	"github.com/cshum/filterkit/metrics/prometheusmetrics"
	"github.com/cshum/filterkit/server"
	"github.com/cshum/filterkit/service"
	"github.com/peterbourgon/ff/v3"
	"go.uber.org/zap"
)

// NewService creates Service from flags, options register their own flags
func NewService(fs *flag.FlagSet, cb func() (*zap.Logger, bool), options ...Option) *service.Service {
	var (
		secret = fs.String("filterkit-secret", "",
			"Secret key for signing filterkit URL")
		unsafe = fs.Bool("filterkit-unsafe", false,
			"Unsafe filterkit that does not require URL signature. Prone to URL tampering")
		signerType = fs.String("filterkit-signer-type", "sha1",
			"URL signature hasher type sha1, sha256 or sha512")
		signerTruncate = fs.Int("filterkit-signer-truncate", 0,
			"URL signature truncate at length")
		requestTimeout = fs.Duration("filterkit-request-timeout",
			time.Second*30, "Timeout for performing filterkit request")
		loadTimeout = fs.Duration("filterkit-load-timeout",
			time.Second*20, "Timeout for Loader request, should be smaller than filterkit-request-timeout")
		saveTimeout = fs.Duration("filterkit-save-timeout",
			time.Second*20, "Timeout for saving image to Storage")
		processTimeout = fs.Duration("filterkit-process-timeout",
			time.Second*20, "Timeout for applying the filter chain")
		processConcurrency = fs.Int64("filterkit-process-concurrency",
			-1, "Semaphore size for process concurrency control. Set -1 for no limit")
		basePathRedirect = fs.String("filterkit-base-path-redirect", "",
			"URL to redirect for / base path e.g. https://www.google.com")
		baseParams = fs.String("filterkit-base-params", "",
			"Base params applied to all resulting images e.g. filters:format(webp)")
		disableFilters = fs.String("filterkit-disable-filters", "",
			"Disable URL filters by csv e.g. color_map,color_cube")
		maxFilterOps = fs.Int("filterkit-max-filter-ops", -1,
			"Maximum number of filters applied per request. Set -1 for unlimited")
		cacheHeaderTTL = fs.Duration("filterkit-cache-header-ttl",
			time.Hour*24*7, "HTTP Cache-Control header TTL for successful image response")
		cacheHeaderSWR = fs.Duration("filterkit-cache-header-swr",
			time.Hour*24, "HTTP Cache-Control header stale-while-revalidate for successful image response")
		cacheHeaderNoCache = fs.Bool("filterkit-cache-header-no-cache",
			false, "HTTP Cache-Control header no-cache for successful image response")
		modifiedTimeCheck = fs.Bool("filterkit-modified-time-check", false,
			"Check modified time of result image against the source image. This eliminates stale result but require more lookups")
		disableErrorBody = fs.Bool("filterkit-disable-error-body", false,
			"Disable response body on error")
		disableParamsEndpoint = fs.Bool("filterkit-disable-params-endpoint", false,
			"Disable /params endpoint")
		storagePathStyle = fs.String("filterkit-storage-path-style", "original",
			"Storage path style original, digest")
		resultStoragePathStyle = fs.String("filterkit-result-storage-path-style", "original",
			"Result Storage path style original, digest, suffix")
	)

	serviceOptions, logger, isDebug := applyOptions(fs, cb, options...)

	return service.New(append(
		serviceOptions,
		service.WithSigner(filterpath.NewSignerFromType(*signerType, *signerTruncate, *secret)),
		service.WithStorageHasher(storageHasher(*storagePathStyle)),
		service.WithResultStorageHasher(resultStorageHasher(*resultStoragePathStyle)),
		service.WithBasePathRedirect(*basePathRedirect),
		service.WithBaseParams(*baseParams),
		service.WithDisableFilters(splitCSV(*disableFilters)...),
		service.WithMaxFilterOps(*maxFilterOps),
		service.WithRequestTimeout(*requestTimeout),
		service.WithLoadTimeout(*loadTimeout),
		service.WithSaveTimeout(*saveTimeout),
		service.WithProcessTimeout(*processTimeout),
		service.WithProcessConcurrency(*processConcurrency),
		service.WithCacheHeaderTTL(*cacheHeaderTTL),
		service.WithCacheHeaderSWR(*cacheHeaderSWR),
		service.WithCacheHeaderNoCache(*cacheHeaderNoCache),
		service.WithModifiedTimeCheck(*modifiedTimeCheck),
		service.WithDisableErrorBody(*disableErrorBody),
		service.WithDisableParamsEndpoint(*disableParamsEndpoint),
		service.WithUnsafe(*unsafe),
		service.WithLogger(logger),
		service.WithDebug(isDebug),
	)...)
}

// CreateServer parses args, env vars and config file into the filterkit server.
// Returns nil on -version
func CreateServer(args []string, options ...Option) (srv *server.Server) {
	var (
		fs     = flag.NewFlagSet("filterkit", flag.ExitOnError)
		logger *zap.Logger
		err    error

		debug        = fs.Bool("debug", false, "Debug mode")
		version      = fs.Bool("version", false, "filterkit version")
		port         = fs.Int("port", 8000, "Server port")
		goMaxProcess = fs.Int("gomaxprocs", 0, "GOMAXPROCS")

		_ = fs.String("config", ".env", "Retrieve configuration from the given file")

		bind = fs.String("bind", "",
			"Server address and port to bind .e.g. myhost:8888. This overrides server-address and port")
		serverAddress = fs.String("server-address", "",
			"Server address")
		serverPathPrefix = fs.String("server-path-prefix", "",
			"Server path prefix")
		serverCORS = fs.Bool("server-cors", false,
			"Enable CORS")
		serverStripQueryString = fs.Bool("server-strip-query-string", false,
			"Enable strip query string redirection")
		serverAccessLog = fs.Bool("server-access-log", false,
			"Enable server access log")
		serverStartupTimeout = fs.Duration("server-startup-timeout", time.Second*10,
			"Timeout for processors startup")
		serverShutdownTimeout = fs.Duration("server-shutdown-timeout", time.Second*10,
			"Timeout for graceful shutdown")
		serverCertFile = fs.String("server-cert-file", "",
			"TLS certificate file, serves HTTPS if both cert and key files present")
		serverKeyFile = fs.String("server-key-file", "",
			"TLS key file")

		prometheusBind = fs.String("prometheus-bind", "",
			"Specify address and port to enable Prometheus metrics, e.g. :5000, prom:7000")
		prometheusPath = fs.String("prometheus-path", "/metrics",
			"Prometheus metrics path")

		sentryDsn = fs.String("sentry-dsn", "",
			"Include sentry dsn to integrate filterkit with sentry")

		metrics *prometheusmetrics.Server
	)

	app := NewService(fs, func() (*zap.Logger, bool) {
		if err = ff.Parse(fs, args,
			ff.WithEnvVars(),
			ff.WithConfigFileFlag("config"),
			ff.WithIgnoreUndefined(true),
			ff.WithAllowMissingConfigFile(true),
			ff.WithConfigFileParser(ff.EnvParser),
		); err != nil {
			panic(err)
		}
		if *debug {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
		if err != nil {
			panic(err)
		}
		if *prometheusBind != "" {
			metrics = prometheusmetrics.New(
				prometheusmetrics.WithAddr(*prometheusBind),
				prometheusmetrics.WithPath(*prometheusPath),
				prometheusmetrics.WithLogger(logger),
			)
		}
		return logger, *debug
	}, append(options, withFileSystem, withHTTPLoader, withGift)...)

	if *version {
		fmt.Println(filterkit.Version)
		return
	}

	if *goMaxProcess > 0 {
		logger.Debug("GOMAXPROCS", zap.Int("count", *goMaxProcess))
		runtime.GOMAXPROCS(*goMaxProcess)
	}

	serverOptions := []server.Option{
		server.WithAddress(*serverAddress),
		server.WithPort(*port),
		server.WithPathPrefix(*serverPathPrefix),
		server.WithCORS(*serverCORS),
		server.WithStripQueryString(*serverStripQueryString),
		server.WithAccessLog(*serverAccessLog),
		server.WithStartupTimeout(*serverStartupTimeout),
		server.WithShutdownTimeout(*serverShutdownTimeout),
		server.WithCertFile(*serverCertFile, *serverKeyFile),
		server.WithSentry(*sentryDsn),
		server.WithLogger(logger),
		server.WithDebug(*debug),
	}
	if *bind != "" {
		serverOptions = append(serverOptions, server.WithAddr(*bind))
	}
	if metrics != nil {
		app.Metrics = metrics
		serverOptions = append(serverOptions, server.WithMetrics(metrics))
	}
	return server.New(app, serverOptions...)
}

func storageHasher(style string) filterpath.StorageHasher {
	if strings.ToLower(style) == "digest" {
		return filterpath.DigestStorageHasher
	}
	return nil
}

func resultStorageHasher(style string) filterpath.ResultStorageHasher {
	switch strings.ToLower(style) {
	case "digest":
		return filterpath.DigestResultStorageHasher
	case "suffix":
		return filterpath.SuffixResultStorageHasher
	}
	return nil
}

func splitCSV(s string) (res []string) {
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return
}
