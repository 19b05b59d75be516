package config

import (
	"github.com/JaimeStill/casefile/internal/access"
	"github.com/JaimeStill/casefile/internal/batch"
	"github.com/JaimeStill/casefile/internal/downloads"
	"github.com/JaimeStill/casefile/internal/events"
	"github.com/JaimeStill/casefile/internal/versions"
	"github.com/JaimeStill/casefile/pkg/database"
	"github.com/JaimeStill/casefile/pkg/logging"
	"github.com/JaimeStill/casefile/pkg/middleware"
	"github.com/JaimeStill/casefile/pkg/openapi"
	"github.com/JaimeStill/casefile/pkg/pagination"
	"github.com/JaimeStill/casefile/pkg/storage"
)

var databaseEnv = &database.Env{
	Host:            "DATABASE_HOST",
	Port:            "DATABASE_PORT",
	Name:            "DATABASE_NAME",
	User:            "DATABASE_USER",
	Password:        "DATABASE_PASSWORD",
	SSLMode:         "DATABASE_SSL_MODE",
	MaxOpenConns:    "DATABASE_MAX_OPEN_CONNS",
	MaxIdleConns:    "DATABASE_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DATABASE_CONN_MAX_LIFETIME",
	ConnTimeout:     "DATABASE_CONN_TIMEOUT",
}

var loggingEnv = &logging.Env{
	Level:     "LOGGING_LEVEL",
	Format:    "LOGGING_FORMAT",
	AddSource: "LOGGING_ADD_SOURCE",
}

var storageEnv = &storage.Env{
	Driver:        "STORAGE_DRIVER",
	BasePath:      "STORAGE_BASE_PATH",
	MaxUploadSize: "STORAGE_MAX_UPLOAD_SIZE",
	SigningSecret: "STORAGE_SIGNING_SECRET",
	S3Bucket:      "STORAGE_S3_BUCKET",
	S3Region:      "STORAGE_S3_REGION",
	S3Endpoint:    "STORAGE_S3_ENDPOINT",
	S3AccessKey:   "STORAGE_S3_ACCESS_KEY",
	S3SecretKey:   "STORAGE_S3_SECRET_KEY",
}

var corsEnv = &middleware.CORSEnv{
	Enabled:          "CORS_ENABLED",
	Origins:          "CORS_ORIGINS",
	AllowedMethods:   "CORS_ALLOWED_METHODS",
	AllowedHeaders:   "CORS_ALLOWED_HEADERS",
	AllowCredentials: "CORS_ALLOW_CREDENTIALS",
	MaxAge:           "CORS_MAX_AGE",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "PAGINATION_MAX_PAGE_SIZE",
}

var versionsEnv = &versions.Env{
	MaxFileSize:         "VERSIONS_MAX_FILE_SIZE",
	AllowedExtensions:   "VERSIONS_ALLOWED_EXTENSIONS",
	AllowedContentTypes: "VERSIONS_ALLOWED_CONTENT_TYPES",
	OperationTimeout:    "VERSIONS_OPERATION_TIMEOUT",
	Store:               "VERSIONS_STORE",
}

var batchEnv = &batch.Env{
	Concurrency: "BATCH_CONCURRENCY",
	FileTimeout: "BATCH_FILE_TIMEOUT",
	MaxFiles:    "BATCH_MAX_FILES",
}

var authEnv = &access.Env{
	Enabled: "AUTH_ENABLED",
	Secret:  "AUTH_SECRET",
	Issuer:  "AUTH_ISSUER",
}

var eventsEnv = &events.Env{
	Record:   "EVENTS_RECORD",
	RedisURL: "EVENTS_REDIS_URL",
	Channel:  "EVENTS_CHANNEL",
}

var downloadsEnv = &downloads.Env{
	LinkTTL:        "DOWNLOADS_LINK_TTL",
	CacheSize:      "DOWNLOADS_CACHE_SIZE",
	IdempotencyTTL: "DOWNLOADS_IDEMPOTENCY_TTL",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "OPENAPI_TITLE",
	Description: "OPENAPI_DESCRIPTION",
}
